package transcode

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/BlockCodeLab/sound/internal/audio"
)

// captureEncoder records everything the slicing loop feeds it.
type captureEncoder struct {
	channels int
	blocks   [][]int16
	flushed  bool
	failOn   int // fail on the n-th encode call, 0 disables
	calls    int
}

func (c *captureEncoder) encode(samples []int16) error {
	c.calls++
	if c.failOn > 0 && c.calls >= c.failOn {
		return errors.New("boom")
	}
	block := make([]int16, len(samples))
	copy(block, samples)
	c.blocks = append(c.blocks, block)
	return nil
}

func (c *captureEncoder) flush() error {
	c.flushed = true
	return nil
}

func (c *captureEncoder) bytes() []byte {
	var out []byte
	for _, b := range c.blocks {
		for range b {
			out = append(out, 0xAA)
		}
	}
	return out
}

func newTestTranscoder(t *testing.T, capture **captureEncoder) *Transcoder {
	t.Helper()

	tr := New(Config{}, nil)
	tr.sleep = func(time.Duration) {}
	tr.newEncoder = func(channels, sampleRate, bitrateKbps int) (frameEncoder, error) {
		*capture = &captureEncoder{channels: channels}
		return *capture, nil
	}
	return tr
}

func stereoTone(t *testing.T, frames int) *audio.PCM {
	t.Helper()

	pcm, err := audio.NewPCM(22050, 2, frames)
	if err != nil {
		t.Fatalf("NewPCM failed: %v", err)
	}
	// Channel 0 stays silent; channel 1 carries a tone. The mono downmix
	// policy is verified by checking which of the two survives.
	for i := 0; i < frames; i++ {
		pcm.Channels[1][i] = float32(0.8 * math.Sin(2*math.Pi*440*float64(i)/22050))
	}
	return pcm
}

func TestTranscodeLowBitrateUsesChannelZeroOnly(t *testing.T) {
	var enc *captureEncoder
	tr := newTestTranscoder(t, &enc)

	out, err := tr.Transcode(stereoTone(t, 4000), 32, nil)
	if err != nil {
		t.Fatalf("Transcode failed: %v", err)
	}

	if enc.channels != 1 {
		t.Fatalf("expected mono encoder below 96 kbps, got %d channels", enc.channels)
	}
	for _, block := range enc.blocks {
		for i, s := range block {
			if s != 0 {
				t.Fatalf("expected silence from channel 0, got %d at sample %d", s, i)
			}
		}
	}
	if out.SampleRate != 22050 || out.FrameCount != 4000 {
		t.Errorf("metadata not carried over: %+v", out)
	}
}

func TestTranscodeStereoInterleaving(t *testing.T) {
	var enc *captureEncoder
	tr := newTestTranscoder(t, &enc)

	if _, err := tr.Transcode(stereoTone(t, 2000), 128, nil); err != nil {
		t.Fatalf("Transcode failed: %v", err)
	}

	if enc.channels != 2 {
		t.Fatalf("expected stereo encoder at 128 kbps, got %d channels", enc.channels)
	}
	// Even positions are channel 0 (silent), odd positions channel 1.
	sawTone := false
	for _, block := range enc.blocks {
		if len(block)%2 != 0 {
			t.Fatalf("stereo block has odd length %d", len(block))
		}
		for i := 0; i < len(block); i += 2 {
			if block[i] != 0 {
				t.Fatalf("channel 0 leaked a non-zero sample: %d", block[i])
			}
			if block[i+1] != 0 {
				sawTone = true
			}
		}
	}
	if !sawTone {
		t.Error("channel 1 tone never reached the encoder")
	}
}

func TestTranscodeBlockGrouping(t *testing.T) {
	var enc *captureEncoder
	tr := newTestTranscoder(t, &enc)

	pcm, err := audio.NewPCM(22050, 1, 3000)
	if err != nil {
		t.Fatalf("NewPCM failed: %v", err)
	}
	if _, err := tr.Transcode(pcm, 32, nil); err != nil {
		t.Fatalf("Transcode failed: %v", err)
	}

	wantSizes := []int{1152, 1152, 696}
	if len(enc.blocks) != len(wantSizes) {
		t.Fatalf("expected %d blocks, got %d", len(wantSizes), len(enc.blocks))
	}
	for i, want := range wantSizes {
		if len(enc.blocks[i]) != want {
			t.Errorf("block %d: expected %d samples, got %d", i, want, len(enc.blocks[i]))
		}
	}
	if !enc.flushed {
		t.Error("encoder was never flushed")
	}
}

func TestTranscodeProgressMonotonic(t *testing.T) {
	var enc *captureEncoder
	tr := New(Config{SliceBudget: time.Nanosecond}, nil)
	tr.sleep = func(time.Duration) {}
	tr.newEncoder = func(channels, sampleRate, bitrateKbps int) (frameEncoder, error) {
		enc = &captureEncoder{channels: channels}
		return enc, nil
	}

	pcm, err := audio.NewPCM(22050, 1, 10*DefaultBlockSize)
	if err != nil {
		t.Fatalf("NewPCM failed: %v", err)
	}

	var fractions []float64
	if _, err := tr.Transcode(pcm, 32, func(f float64) {
		fractions = append(fractions, f)
	}); err != nil {
		t.Fatalf("Transcode failed: %v", err)
	}

	// A nanosecond budget yields after nearly every block, so several
	// slices must report.
	if len(fractions) < 2 {
		t.Fatalf("expected multiple progress reports, got %d", len(fractions))
	}
	last := 0.0
	for i, f := range fractions {
		if f < last {
			t.Fatalf("progress went backwards at report %d: %f < %f", i, f, last)
		}
		last = f
	}
	if last != 1.0 {
		t.Errorf("final progress fraction is %f, expected 1.0", last)
	}
}

func TestTranscodeRejectsBadChannelLayout(t *testing.T) {
	var enc *captureEncoder
	tr := newTestTranscoder(t, &enc)

	bad := &audio.PCM{
		SampleRate: 22050,
		Channels:   [][]float32{make([]float32, 10), make([]float32, 10), make([]float32, 10)},
	}
	_, err := tr.Transcode(bad, 128, nil)
	if !errors.Is(err, ErrUnsupportedChannelLayout) {
		t.Fatalf("expected ErrUnsupportedChannelLayout, got %v", err)
	}
}

func TestTranscodeEncoderFaultDiscardsOutput(t *testing.T) {
	var enc *captureEncoder
	tr := New(Config{}, nil)
	tr.sleep = func(time.Duration) {}
	tr.newEncoder = func(channels, sampleRate, bitrateKbps int) (frameEncoder, error) {
		enc = &captureEncoder{channels: channels, failOn: 2}
		return enc, nil
	}

	pcm, err := audio.NewPCM(22050, 1, 5*DefaultBlockSize)
	if err != nil {
		t.Fatalf("NewPCM failed: %v", err)
	}

	out, err := tr.Transcode(pcm, 32, nil)
	if !errors.Is(err, ErrEncodingFailed) {
		t.Fatalf("expected ErrEncodingFailed, got %v", err)
	}
	if out != nil {
		t.Error("partial output surfaced to the caller")
	}
}

func TestTranscodeEmptyBuffer(t *testing.T) {
	var enc *captureEncoder
	tr := newTestTranscoder(t, &enc)

	pcm, err := audio.NewPCM(22050, 1, 0)
	if err != nil {
		t.Fatalf("NewPCM failed: %v", err)
	}

	out, err := tr.Transcode(pcm, 32, nil)
	if err != nil {
		t.Fatalf("Transcode failed: %v", err)
	}
	if out.FrameCount != 0 {
		t.Errorf("expected 0 frames, got %d", out.FrameCount)
	}
	if !enc.flushed {
		t.Error("encoder must still be flushed for an empty buffer")
	}
}

// TestTranscodeRoundTrip exercises the real LAME encoder and verifies the
// payload re-decodes with the source geometry intact. 44100 Hz keeps the
// stream MPEG-1 so the pure-Go decoder handles it.
func TestTranscodeRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping cgo encoder round trip in short mode")
	}

	const (
		rate   = 44100
		frames = rate / 2 // half a second
	)
	pcm, err := audio.NewPCM(rate, 1, frames)
	if err != nil {
		t.Fatalf("NewPCM failed: %v", err)
	}
	for i := 0; i < frames; i++ {
		pcm.Channels[0][i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/rate))
	}

	tr := New(Config{}, nil)
	first, err := tr.Transcode(pcm, 128, nil)
	if err != nil {
		t.Fatalf("Transcode failed: %v", err)
	}
	if first.MIMEType != MIMEType {
		t.Errorf("expected %q, got %q", MIMEType, first.MIMEType)
	}
	if len(first.Bytes) == 0 {
		t.Fatal("empty MP3 payload")
	}

	second, err := tr.Transcode(pcm, 128, nil)
	if err != nil {
		t.Fatalf("second Transcode failed: %v", err)
	}
	if !bytes.Equal(first.Bytes, second.Bytes) {
		t.Error("encoding the same buffer twice produced different bytes")
	}

	decoded, err := audio.Decode(first.Bytes)
	if err != nil {
		t.Fatalf("re-decode failed: %v", err)
	}
	if decoded.SampleRate != rate {
		t.Errorf("expected sample rate %d after re-decode, got %d", rate, decoded.SampleRate)
	}
	// Encoder delay pads the decoded stream by a frame or two.
	if diff := decoded.FrameCount() - frames; diff < 0 || diff > 2*DefaultBlockSize {
		t.Errorf("re-decoded frame count %d too far from source %d", decoded.FrameCount(), frames)
	}
}
