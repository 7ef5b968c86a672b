package audio

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

// WAV format tags supported by the decoder.
const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

// wavFormat holds the fields of a parsed "fmt " chunk.
type wavFormat struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// EncodeWAV encodes a PCM buffer into a 16-bit WAV byte stream. Samples are
// quantized with Quantize so the payload is bit-reproducible, interleaved
// frame by frame for stereo input.
func EncodeWAV(pcm *PCM) ([]byte, error) {
	if pcm == nil || pcm.ChannelCount() == 0 {
		return nil, fmt.Errorf("cannot encode empty audio buffer")
	}
	if pcm.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", pcm.SampleRate)
	}

	numChannels := pcm.ChannelCount()
	if numChannels != 1 && numChannels != 2 {
		return nil, fmt.Errorf("unsupported channel count: %d (only mono and stereo are supported)", numChannels)
	}

	frames := pcm.FrameCount()
	quantized := make([][]int16, numChannels)
	for ch := range pcm.Channels {
		quantized[ch] = Quantize(pcm.Channels[ch])
	}

	// Interleave frames: L R L R ... for stereo, plain run for mono.
	samples := make([]int16, frames*numChannels)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChannels; ch++ {
			samples[i*numChannels+ch] = quantized[ch][i]
		}
	}

	const bitsPerSample = 16
	dataSize := uint32(len(samples) * 2)

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(samples)*2))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, wavFormat{
		AudioFormat:   wavFormatPCM,
		NumChannels:   uint16(numChannels),
		SampleRate:    uint32(pcm.SampleRate),
		ByteRate:      uint32(pcm.SampleRate) * uint32(numChannels) * bitsPerSample / 8,
		BlockAlign:    uint16(numChannels) * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
	})
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, dataSize)
	if err := binary.Write(buf, binary.LittleEndian, samples); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	return buf.Bytes(), nil
}

// decodeWAV parses a RIFF/WAVE byte stream into a PCM buffer. The chunk walk
// tolerates extra chunks (LIST, fact, cue) between fmt and data, which real
// recorders routinely emit. Unparseable input wraps ErrUnsupportedFormat.
func decodeWAV(data []byte) (*PCM, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: missing RIFF/WAVE header", ErrUnsupportedFormat)
	}

	var (
		format  *wavFormat
		payload []byte
	)

	// Walk chunks after the 12-byte RIFF header.
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if chunkSize < 0 || body+chunkSize > len(data) {
			// Some writers emit a data chunk size beyond the actual payload;
			// truncate to what is present rather than rejecting outright.
			chunkSize = len(data) - body
			if chunkSize < 0 {
				break
			}
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, fmt.Errorf("%w: fmt chunk too short (%d bytes)", ErrUnsupportedFormat, chunkSize)
			}
			var f wavFormat
			if err := binary.Read(bytes.NewReader(data[body:body+16]), binary.LittleEndian, &f); err != nil {
				return nil, fmt.Errorf("%w: unreadable fmt chunk", ErrUnsupportedFormat)
			}
			format = &f
		case "data":
			payload = data[body : body+chunkSize]
		}

		// Chunks are word aligned; odd sizes carry a pad byte.
		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if format == nil {
		return nil, fmt.Errorf("%w: missing fmt chunk", ErrUnsupportedFormat)
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: missing data chunk", ErrUnsupportedFormat)
	}
	if format.SampleRate == 0 {
		return nil, fmt.Errorf("%w: invalid sample rate 0", ErrUnsupportedFormat)
	}
	if format.NumChannels != 1 && format.NumChannels != 2 {
		return nil, fmt.Errorf("%w: unsupported channel count %d", ErrUnsupportedFormat, format.NumChannels)
	}

	switch format.AudioFormat {
	case wavFormatPCM:
		switch format.BitsPerSample {
		case 8, 16, 24:
		default:
			return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrUnsupportedFormat, format.BitsPerSample)
		}
	case wavFormatFloat:
		if format.BitsPerSample != 32 {
			return nil, fmt.Errorf("%w: unsupported float bit depth %d", ErrUnsupportedFormat, format.BitsPerSample)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported audio format %d", ErrUnsupportedFormat, format.AudioFormat)
	}

	bytesPerSample := int(format.BitsPerSample) / 8
	numChannels := int(format.NumChannels)
	frames := len(payload) / (bytesPerSample * numChannels)

	pcm, err := NewPCM(int(format.SampleRate), numChannels, frames)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	for i := 0; i < frames; i++ {
		for ch := 0; ch < numChannels; ch++ {
			pos := (i*numChannels + ch) * bytesPerSample
			pcm.Channels[ch][i] = decodeSample(payload[pos:pos+bytesPerSample], format)
		}
	}

	return pcm, nil
}

// decodeSample converts one raw sample to a normalized float32.
func decodeSample(raw []byte, format *wavFormat) float32 {
	if format.AudioFormat == wavFormatFloat {
		return math.Float32frombits(binary.LittleEndian.Uint32(raw))
	}

	switch format.BitsPerSample {
	case 8:
		// 8-bit WAV is unsigned with a 128 midpoint.
		return (float32(raw[0]) - 128) / 128
	case 16:
		return float32(int16(binary.LittleEndian.Uint16(raw))) / 32768
	case 24:
		v := int32(raw[0]) | int32(raw[1])<<8 | int32(raw[2])<<16
		if v&0x800000 != 0 {
			v -= 0x1000000
		}
		return float32(v) / 8388608
	}
	return 0
}

// Info summarizes a decodable byte stream without keeping the samples.
type Info struct {
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	Frames     int     `json:"frames"`
	Duration   float64 `json:"duration_seconds"`
}

// Probe decodes just enough of a byte stream to describe it.
func Probe(data []byte) (*Info, error) {
	pcm, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return &Info{
		SampleRate: pcm.SampleRate,
		Channels:   pcm.ChannelCount(),
		Frames:     pcm.FrameCount(),
		Duration:   pcm.Duration().Seconds(),
	}, nil
}

// String renders the info as compact JSON, handy in log attributes.
func (i *Info) String() string {
	b, _ := json.Marshal(i)
	return string(b)
}
