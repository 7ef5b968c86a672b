package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

// sinePCM generates a test buffer with one sine wave per channel.
func sinePCM(t *testing.T, sampleRate, channels int, seconds float64, freq float64) *PCM {
	t.Helper()

	frames := int(float64(sampleRate) * seconds)
	pcm, err := NewPCM(sampleRate, channels, frames)
	if err != nil {
		t.Fatalf("NewPCM failed: %v", err)
	}

	for ch := 0; ch < channels; ch++ {
		for i := 0; i < frames; i++ {
			phase := float64(i) / float64(sampleRate)
			pcm.Channels[ch][i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(ch+1)*phase))
		}
	}
	return pcm
}

func TestEncodeWAVRoundTripMono(t *testing.T) {
	src := sinePCM(t, 22050, 1, 0.1, 440)

	data, err := EncodeWAV(src)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	expectedSize := 44 + src.FrameCount()*2
	if len(data) != expectedSize {
		t.Errorf("expected WAV size %d, got %d", expectedSize, len(data))
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if got.SampleRate != src.SampleRate {
		t.Errorf("expected sample rate %d, got %d", src.SampleRate, got.SampleRate)
	}
	if got.ChannelCount() != 1 {
		t.Errorf("expected 1 channel, got %d", got.ChannelCount())
	}
	if got.FrameCount() != src.FrameCount() {
		t.Errorf("expected %d frames, got %d", src.FrameCount(), got.FrameCount())
	}

	// 16-bit quantization error bound.
	for i := range src.Channels[0] {
		diff := math.Abs(float64(src.Channels[0][i] - got.Channels[0][i]))
		if diff > 1.0/32767 {
			t.Fatalf("sample %d drifted by %f", i, diff)
		}
	}
}

func TestEncodeWAVRoundTripStereo(t *testing.T) {
	src := sinePCM(t, 44100, 2, 0.05, 220)

	data, err := EncodeWAV(src)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if got.ChannelCount() != 2 {
		t.Fatalf("expected 2 channels, got %d", got.ChannelCount())
	}
	if got.FrameCount() != src.FrameCount() {
		t.Errorf("expected %d frames, got %d", src.FrameCount(), got.FrameCount())
	}

	// Channels must stay separate: the second channel carries double the
	// frequency, so the buffers cannot be equal.
	same := true
	for i := range got.Channels[0] {
		if got.Channels[0][i] != got.Channels[1][i] {
			same = false
			break
		}
	}
	if same {
		t.Error("stereo channels decoded identical, interleaving is broken")
	}
}

func TestDecodeWAVSkipsExtraChunks(t *testing.T) {
	src := sinePCM(t, 8000, 1, 0.01, 440)
	data, err := EncodeWAV(src)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	// Splice a LIST chunk between fmt and data, as real recorders do.
	list := append([]byte("LIST"), 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(list[4:], 4)
	list = append(list, []byte("INFO")...)

	spliced := make([]byte, 0, len(data)+len(list))
	spliced = append(spliced, data[:36]...)
	spliced = append(spliced, list...)
	spliced = append(spliced, data[36:]...)
	binary.LittleEndian.PutUint32(spliced[4:8], uint32(len(spliced)-8))

	got, err := Decode(spliced)
	if err != nil {
		t.Fatalf("Decode with LIST chunk failed: %v", err)
	}
	if got.FrameCount() != src.FrameCount() {
		t.Errorf("expected %d frames, got %d", src.FrameCount(), got.FrameCount())
	}
}

func TestDecodeWAVEightBit(t *testing.T) {
	// Hand-built 8-bit mono file: midpoint, full positive, full negative.
	payload := []byte{128, 255, 0}
	data := make([]byte, 0, 44+len(payload))
	data = append(data, []byte("RIFF")...)
	data = binary.LittleEndian.AppendUint32(data, uint32(36+len(payload)))
	data = append(data, []byte("WAVEfmt ")...)
	data = binary.LittleEndian.AppendUint32(data, 16)
	data = binary.LittleEndian.AppendUint16(data, wavFormatPCM)
	data = binary.LittleEndian.AppendUint16(data, 1)
	data = binary.LittleEndian.AppendUint32(data, 11025)
	data = binary.LittleEndian.AppendUint32(data, 11025)
	data = binary.LittleEndian.AppendUint16(data, 1)
	data = binary.LittleEndian.AppendUint16(data, 8)
	data = append(data, []byte("data")...)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(payload)))
	data = append(data, payload...)

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.SampleRate != 11025 {
		t.Errorf("expected sample rate 11025, got %d", got.SampleRate)
	}
	if got.Channels[0][0] != 0 {
		t.Errorf("expected midpoint to decode as 0, got %f", got.Channels[0][0])
	}
	if got.Channels[0][2] != -1 {
		t.Errorf("expected 0 to decode as -1, got %f", got.Channels[0][2])
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	cases := map[string][]byte{
		"empty":          {},
		"text":           []byte("definitely not audio data, not even close"),
		"truncated riff": []byte("RIFF"),
		"riff no wave":   append([]byte("RIFF\x10\x00\x00\x00JUNK"), make([]byte, 16)...),
		"wave no chunks": []byte("RIFF\x04\x00\x00\x00WAVE"),
		"three channels": threeChannelWAV(),
		"unknown format": unknownFormatWAV(),
	}

	for name, data := range cases {
		if _, err := Decode(data); err == nil {
			t.Errorf("%s: expected decode error, got none", name)
		} else if !IsUnsupported(err) {
			t.Errorf("%s: expected ErrUnsupportedFormat, got %v", name, err)
		}
	}
}

func threeChannelWAV() []byte {
	data := append([]byte("RIFF"), make([]byte, 4)...)
	data = append(data, []byte("WAVEfmt ")...)
	data = binary.LittleEndian.AppendUint32(data, 16)
	data = binary.LittleEndian.AppendUint16(data, wavFormatPCM)
	data = binary.LittleEndian.AppendUint16(data, 3)
	data = binary.LittleEndian.AppendUint32(data, 8000)
	data = binary.LittleEndian.AppendUint32(data, 48000)
	data = binary.LittleEndian.AppendUint16(data, 6)
	data = binary.LittleEndian.AppendUint16(data, 16)
	data = append(data, []byte("data")...)
	data = binary.LittleEndian.AppendUint32(data, 0)
	return data
}

func unknownFormatWAV() []byte {
	data := append([]byte("RIFF"), make([]byte, 4)...)
	data = append(data, []byte("WAVEfmt ")...)
	data = binary.LittleEndian.AppendUint32(data, 16)
	data = binary.LittleEndian.AppendUint16(data, 0x55) // MPEG layer 3 in a WAV shell
	data = binary.LittleEndian.AppendUint16(data, 1)
	data = binary.LittleEndian.AppendUint32(data, 8000)
	data = binary.LittleEndian.AppendUint32(data, 8000)
	data = binary.LittleEndian.AppendUint16(data, 1)
	data = binary.LittleEndian.AppendUint16(data, 16)
	data = append(data, []byte("data")...)
	data = binary.LittleEndian.AppendUint32(data, 0)
	return data
}

func TestProbe(t *testing.T) {
	src := sinePCM(t, 22050, 1, 2.0, 440)
	data, err := EncodeWAV(src)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	info, err := Probe(data)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if info.SampleRate != 22050 || info.Channels != 1 {
		t.Errorf("unexpected probe result: %+v", info)
	}
	if math.Abs(info.Duration-2.0) > 0.001 {
		t.Errorf("expected duration 2.0s, got %.3f", info.Duration)
	}
}
