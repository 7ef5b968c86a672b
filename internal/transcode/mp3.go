package transcode

import (
	"bytes"
	"encoding/binary"
	"fmt"

	lame "github.com/viert/go-lame"
)

// frameEncoder is the seam between the time-sliced loop and the underlying
// MP3 encoder. encode consumes one block of interleaved 16-bit frames;
// flush drains whatever the encoder still buffers after the last block.
type frameEncoder interface {
	encode(samples []int16) error
	flush() error
	bytes() []byte
}

// encoderFactory builds a frameEncoder for one transcode operation.
type encoderFactory func(channels, sampleRate, bitrateKbps int) (frameEncoder, error)

// lameEncoder wraps the LAME binding, accumulating MP3 output in memory.
type lameEncoder struct {
	enc *lame.Encoder
	out *bytes.Buffer
}

func newLameEncoder(channels, sampleRate, bitrateKbps int) (frameEncoder, error) {
	out := &bytes.Buffer{}
	enc := lame.NewEncoder(out)

	if err := enc.SetNumChannels(channels); err != nil {
		return nil, fmt.Errorf("set channels: %w", err)
	}
	if err := enc.SetInSamplerate(sampleRate); err != nil {
		return nil, fmt.Errorf("set sample rate: %w", err)
	}
	if err := enc.SetBrate(bitrateKbps); err != nil {
		return nil, fmt.Errorf("set bitrate: %w", err)
	}
	if channels == 1 {
		if err := enc.SetMode(lame.MpegMono); err != nil {
			return nil, fmt.Errorf("set mono mode: %w", err)
		}
	}

	return &lameEncoder{enc: enc, out: out}, nil
}

func (l *lameEncoder) encode(samples []int16) error {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	if _, err := l.enc.Write(buf); err != nil {
		return err
	}
	return nil
}

func (l *lameEncoder) flush() error {
	l.enc.Close()
	return nil
}

func (l *lameEncoder) bytes() []byte {
	return l.out.Bytes()
}
