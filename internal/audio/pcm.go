package audio

import (
	"fmt"
	"time"
)

// PCM is decoded audio: one normalized float32 sample slice per channel
// plus the source sample rate. All channels have equal length.
type PCM struct {
	SampleRate int
	Channels   [][]float32
}

// NewPCM allocates a zeroed PCM buffer with the given geometry.
func NewPCM(sampleRate, channels, frames int) (*PCM, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("channel count must be 1 or 2, got %d", channels)
	}
	if frames < 0 {
		return nil, fmt.Errorf("frame count must be non-negative, got %d", frames)
	}

	chs := make([][]float32, channels)
	for i := range chs {
		chs[i] = make([]float32, frames)
	}
	return &PCM{SampleRate: sampleRate, Channels: chs}, nil
}

// ChannelCount returns the number of channels.
func (p *PCM) ChannelCount() int {
	return len(p.Channels)
}

// FrameCount returns the number of frames (samples per channel).
func (p *PCM) FrameCount() int {
	if len(p.Channels) == 0 {
		return 0
	}
	return len(p.Channels[0])
}

// Duration returns the playback duration at the buffer's sample rate.
func (p *PCM) Duration() time.Duration {
	if p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(p.FrameCount()) / float64(p.SampleRate) * float64(time.Second))
}
