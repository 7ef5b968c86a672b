package record

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/BlockCodeLab/sound/internal/audio"
)

// Mic captures mono 16-bit PCM from the default system input device and
// hands it back as a WAV blob. It implements CaptureDevice.
type Mic struct {
	mu         sync.Mutex
	logger     *slog.Logger
	sampleRate int

	ctx      *malgo.AllocatedContext
	device   *malgo.Device
	captured []byte
}

// NewMic creates a microphone capture device at the given sample rate.
func NewMic(sampleRate int, logger *slog.Logger) *Mic {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mic{
		logger:     logger,
		sampleRate: sampleRate,
	}
}

// Start opens the default input device and begins accumulating frames.
func (m *Mic) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return fmt.Errorf("capture device already running")
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		m.logger.Debug("audio backend", slog.String("message", message))
	})
	if err != nil {
		return fmt.Errorf("failed to initialize audio context: %w", err)
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = 1
	cfg.SampleRate = uint32(m.sampleRate)
	cfg.Alsa.NoMMap = 1

	m.captured = m.captured[:0]
	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			m.mu.Lock()
			m.captured = append(m.captured, input...)
			m.mu.Unlock()
		},
	}

	device, err := malgo.InitDevice(ctx.Context, cfg, callbacks)
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to open capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	m.ctx = ctx
	m.device = device
	m.logger.Debug("capture device started", slog.Int("sample_rate", m.sampleRate))
	return nil
}

// Stop tears down the device and returns the captured take as a WAV blob.
func (m *Mic) Stop() ([]byte, error) {
	m.mu.Lock()
	if m.device == nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("capture device not running")
	}
	device := m.device
	ctx := m.ctx
	m.device = nil
	m.ctx = nil
	m.mu.Unlock()

	// Uninit blocks until the data callback has drained, so the raw
	// buffer is stable afterwards.
	device.Uninit()
	ctx.Uninit()
	ctx.Free()

	m.mu.Lock()
	raw := m.captured
	m.captured = nil
	m.mu.Unlock()

	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}

	pcm, err := audio.NewPCM(m.sampleRate, 1, len(samples))
	if err != nil {
		return nil, fmt.Errorf("failed to assemble captured audio: %w", err)
	}
	copy(pcm.Channels[0], audio.Dequantize(samples))

	blob, err := audio.EncodeWAV(pcm)
	if err != nil {
		return nil, fmt.Errorf("failed to encode captured audio: %w", err)
	}
	m.logger.Debug("capture device stopped",
		slog.Int("frames", len(samples)),
		slog.Int("wav_bytes", len(blob)))
	return blob, nil
}
