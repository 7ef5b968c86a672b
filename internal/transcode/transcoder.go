package transcode

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/BlockCodeLab/sound/internal/audio"
)

// MIMEType tags the canonical compressed payload.
const MIMEType = "audio/mp3"

const (
	// DefaultBlockSize is the number of frames handed to the encoder per
	// call. It is a multiple of the encoder's internal 576-sample granule,
	// so the encoder never sees a partial frame.
	DefaultBlockSize = 1152

	// DefaultBitrate is used for uploaded and fetched sounds. It sits
	// below StereoMinBitrate, so the canonical stored payload is mono.
	DefaultBitrate = 32

	// StereoMinBitrate is the threshold below which the encoder cannot
	// produce stereo output. Lower bitrates force single-channel encoding
	// from channel 0 only.
	StereoMinBitrate = 96

	// DefaultSliceBudget bounds the synchronous encoding work done per
	// slice before yielding back to the scheduler.
	DefaultSliceBudget = 15 * time.Millisecond

	// DefaultTickInterval is how long a yielded transcode waits before the
	// next slice, aligned with the host's per-frame budget.
	DefaultTickInterval = 16700 * time.Microsecond
)

// Config tunes the chunked encoding loop. Zero values take the defaults.
type Config struct {
	BlockSize    int
	SliceBudget  time.Duration
	TickInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.BlockSize <= 0 {
		c.BlockSize = DefaultBlockSize
	}
	if c.SliceBudget <= 0 {
		c.SliceBudget = DefaultSliceBudget
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	return c
}

// Encoded is the finished compressed payload plus the metadata carried over
// from the source PCM buffer.
type Encoded struct {
	Bytes      []byte
	MIMEType   string
	SampleRate int
	FrameCount int
}

// ProgressFunc receives cumulative processedFrames/totalFrames after each
// slice. Delivery is advisory; no correctness depends on it.
type ProgressFunc func(fraction float64)

// Transcoder runs chunked PCM-to-MP3 encoding.
type Transcoder struct {
	cfg    Config
	logger *slog.Logger

	// newEncoder and now are injection points for tests.
	newEncoder encoderFactory
	now        func() time.Time
	sleep      func(time.Duration)
}

// New creates a transcoder with the given slicing configuration.
func New(cfg Config, logger *slog.Logger) *Transcoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transcoder{
		cfg:        cfg.withDefaults(),
		logger:     logger,
		newEncoder: newLameEncoder,
		now:        time.Now,
		sleep:      time.Sleep,
	}
}

// Transcode compresses a PCM buffer at the target bitrate. Below
// StereoMinBitrate the output is mono built from exactly channel 0,
// regardless of the source layout; this matches the stored payloads byte
// for byte and is deliberately not a mixdown. The call blocks until the
// encode finishes or fails, yielding to the scheduler between time slices;
// there is no mid-flight cancellation.
func (t *Transcoder) Transcode(pcm *audio.PCM, bitrateKbps int, onProgress ProgressFunc) (*Encoded, error) {
	channels := pcm.ChannelCount()
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("%w: got %d channels", ErrUnsupportedChannelLayout, channels)
	}

	if bitrateKbps <= 0 {
		bitrateKbps = DefaultBitrate
	}
	if bitrateKbps < StereoMinBitrate {
		// The encoder fails on stereo input below 96 kbps, so the sound is
		// forced to mono using only channel 0.
		channels = 1
	}

	quantized := make([][]int16, channels)
	for ch := 0; ch < channels; ch++ {
		quantized[ch] = audio.Quantize(pcm.Channels[ch])
	}

	enc, err := t.newEncoder(channels, pcm.SampleRate, bitrateKbps)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodingFailed, err)
	}

	frames := pcm.FrameCount()
	start := t.now()
	slices := 0

	for offset := 0; offset < frames; {
		sliceStart := t.now()

		// Encode at least one block per slice, then keep going while the
		// wall-clock budget allows.
		for {
			end := offset + t.cfg.BlockSize
			if end > frames {
				end = frames
			}
			if err := enc.encode(interleave(quantized, offset, end)); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrEncodingFailed, err)
			}
			offset = end

			if offset >= frames || t.now().Sub(sliceStart) >= t.cfg.SliceBudget {
				break
			}
		}
		slices++

		if onProgress != nil {
			onProgress(float64(offset) / float64(frames))
		}
		if offset < frames {
			t.sleep(t.cfg.TickInterval)
		}
	}

	if err := enc.flush(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodingFailed, err)
	}

	out := enc.bytes()
	t.logger.Debug("transcode finished",
		slog.Int("frames", frames),
		slog.Int("channels", channels),
		slog.Int("bitrate_kbps", bitrateKbps),
		slog.Int("output_bytes", len(out)),
		slog.Int("slices", slices),
		slog.Duration("elapsed", t.now().Sub(start)),
	)

	return &Encoded{
		Bytes:      out,
		MIMEType:   MIMEType,
		SampleRate: pcm.SampleRate,
		FrameCount: frames,
	}, nil
}

// interleave packs one block of quantized frames for the encoder:
// L R L R ... for stereo, the plain channel run for mono.
func interleave(channels [][]int16, start, end int) []int16 {
	if len(channels) == 1 {
		return channels[0][start:end]
	}

	out := make([]int16, 0, (end-start)*2)
	for i := start; i < end; i++ {
		out = append(out, channels[0][i], channels[1][i])
	}
	return out
}
