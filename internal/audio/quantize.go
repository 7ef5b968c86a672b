package audio

import "math"

// maxAmplitude is the positive scale factor for 16-bit conversion.
const maxAmplitude = 32767

// Quantize converts normalized float samples to 16-bit signed samples.
// Each sample is clamped to [-1, 1], scaled by 32767 and rounded to the
// nearest integer (half away from zero). The conversion is bit-reproducible:
// the stored payload must come out identical for identical input.
func Quantize(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := float64(s)
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		out[i] = int16(math.Round(v * maxAmplitude))
	}
	return out
}

// Dequantize converts 16-bit signed samples back to normalized floats.
// The inverse scale uses 32768 so the full int16 range maps into [-1, 1).
func Dequantize(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768
	}
	return out
}
