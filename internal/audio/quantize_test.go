package audio

import "testing"

func TestQuantizeClampAndRound(t *testing.T) {
	in := []float32{0, 1, -1, 2.5, -2.5, 0.5, -0.5}
	got := Quantize(in)

	want := []int16{0, 32767, -32767, 32767, -32767, 16384, -16384}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestQuantizeRoundsToNearest(t *testing.T) {
	// 0.25*32767 = 8191.75 must round up, not truncate.
	got := Quantize([]float32{0.25})
	if got[0] != 8192 {
		t.Errorf("expected 8192, got %d", got[0])
	}
}

func TestQuantizeDeterministic(t *testing.T) {
	in := make([]float32, 4096)
	for i := range in {
		in[i] = float32(i%200-100) / 100
	}

	a := Quantize(in)
	b := Quantize(in)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("quantization not reproducible at sample %d: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestDequantizeRange(t *testing.T) {
	in := []int16{-32768, 0, 32767}
	got := Dequantize(in)

	if got[0] != -1 {
		t.Errorf("expected -1 for minimum sample, got %f", got[0])
	}
	if got[1] != 0 {
		t.Errorf("expected 0 for zero sample, got %f", got[1])
	}
	if got[2] >= 1 {
		t.Errorf("expected maximum sample below 1, got %f", got[2])
	}
}
