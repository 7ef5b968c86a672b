package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// ErrUnsupportedFormat is the single decode failure surfaced to the user as
// "format not supported". Every byte stream the decoder cannot parse as
// audio (corrupt header, unsupported container) wraps this error.
var ErrUnsupportedFormat = errors.New("audio format not supported")

// IsUnsupported reports whether err is the user-facing decode failure.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat)
}

// Decode turns encoded audio bytes into a normalized PCM buffer. It accepts
// the containers the editor works with: RIFF/WAVE and MP3 (with or without
// an ID3 tag). The call may take platform decode latency for long inputs;
// callers must not assume it completes within one scheduling tick.
func Decode(data []byte) (*PCM, error) {
	switch {
	case len(data) == 0:
		return nil, fmt.Errorf("%w: empty input", ErrUnsupportedFormat)
	case looksLikeWAV(data):
		return decodeWAV(data)
	case looksLikeMP3(data):
		return decodeMP3(data)
	default:
		return nil, fmt.Errorf("%w: unrecognized container", ErrUnsupportedFormat)
	}
}

func looksLikeWAV(data []byte) bool {
	return len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF"))
}

func looksLikeMP3(data []byte) bool {
	if len(data) >= 3 && bytes.Equal(data[0:3], []byte("ID3")) {
		return true
	}
	// Bare MPEG audio frame sync: eleven set bits.
	return len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0
}

// decodeMP3 decodes an MP3 stream. The decoder always yields interleaved
// 16-bit stereo at the source sample rate.
func decodeMP3(data []byte) (*PCM, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	// 4 bytes per frame: two 16-bit channels.
	frames := len(raw) / 4
	pcm, err := NewPCM(dec.SampleRate(), 2, frames)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	for i := 0; i < frames; i++ {
		l := int16(binary.LittleEndian.Uint16(raw[i*4 : i*4+2]))
		r := int16(binary.LittleEndian.Uint16(raw[i*4+2 : i*4+4]))
		pcm.Channels[0][i] = float32(l) / 32768
		pcm.Channels[1][i] = float32(r) / 32768
	}

	return pcm, nil
}
