package record

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrAlreadyRecording reports a Start while a take is in flight. The
// in-flight take is untouched; callers that want no-op semantics check
// for this sentinel instead of treating it as a failure.
var ErrAlreadyRecording = errors.New("recording already in progress")

// State tracks where a recording session is in its lifecycle.
type State int

const (
	// Idle means no capture is running. Stop requests are ignored here.
	Idle State = iota
	// Recording means the device is capturing and the ceiling timer is armed.
	Recording
)

// String returns a human-readable state name for logging.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	default:
		return "unknown"
	}
}

// DefaultCeiling caps a single take. Long ambient captures balloon the
// document, so recording stops itself after this much time.
const DefaultCeiling = 10 * time.Second

// CaptureDevice abstracts the microphone. Start begins capture; Stop ends
// it and returns the captured audio as a WAV blob.
type CaptureDevice interface {
	Start() error
	Stop() ([]byte, error)
}

// CompleteFunc receives the finished take. assetID is the placeholder
// asset the take was recorded for; blob is the raw WAV capture. A nil
// error with an empty blob never happens, the device either delivers
// audio or fails.
type CompleteFunc func(assetID string, blob []byte, err error)

// Session is the recording state machine. One session serves the whole
// editor; takes are strictly sequential.
type Session struct {
	mu      sync.Mutex
	logger  *slog.Logger
	device  CaptureDevice
	ceiling time.Duration
	state   State
	assetID string
	timer   *time.Timer

	onComplete CompleteFunc

	// OnTransition, when set, observes every state change. Called outside
	// the session lock.
	OnTransition func(State)

	// afterFunc is swapped in tests to control the ceiling timer.
	afterFunc func(time.Duration, func()) *time.Timer
}

// NewSession creates a recording session around the given device. ceiling
// <= 0 selects DefaultCeiling.
func NewSession(device CaptureDevice, ceiling time.Duration, onComplete CompleteFunc, logger *slog.Logger) *Session {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		logger:     logger,
		device:     device,
		ceiling:    ceiling,
		onComplete: onComplete,
		afterFunc:  time.AfterFunc,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Active returns the asset bound to the in-flight take, if any.
func (s *Session) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assetID, s.state == Recording
}

// Start begins capturing into the given placeholder asset. A Start while
// already recording returns ErrAlreadyRecording and leaves the in-flight
// take bound to its original asset.
func (s *Session) Start(assetID string) error {
	s.mu.Lock()
	if s.state == Recording {
		s.mu.Unlock()
		s.logger.Debug("start ignored, already recording",
			slog.String("active_asset", s.assetID),
			slog.String("requested_asset", assetID))
		return ErrAlreadyRecording
	}

	if err := s.device.Start(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	s.state = Recording
	s.assetID = assetID
	s.timer = s.afterFunc(s.ceiling, s.ceilingExpired)
	s.mu.Unlock()

	s.logger.Info("recording started",
		slog.String("asset_id", assetID),
		slog.Duration("ceiling", s.ceiling))
	s.notify(Recording)
	return nil
}

// Stop ends the current take and delivers it to the completion callback.
// A Stop while idle is a no-op.
func (s *Session) Stop() {
	s.finish("stopped", true)
}

// Cancel ends the current take and discards it without completing. Used
// when the caller already holds the audio from another source.
func (s *Session) Cancel() {
	s.finish("cancelled", false)
}

func (s *Session) ceilingExpired() {
	s.finish("ceiling", true)
}

func (s *Session) finish(reason string, deliver bool) {
	s.mu.Lock()
	if s.state != Recording {
		s.mu.Unlock()
		return
	}

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	assetID := s.assetID
	s.state = Idle
	s.assetID = ""
	blob, err := s.device.Stop()
	s.mu.Unlock()

	s.logger.Info("recording finished",
		slog.String("asset_id", assetID),
		slog.String("reason", reason),
		slog.Int("blob_bytes", len(blob)))
	s.notify(Idle)
	if deliver && s.onComplete != nil {
		s.onComplete(assetID, blob, err)
	}
}

func (s *Session) notify(state State) {
	if s.OnTransition != nil {
		s.OnTransition(state)
	}
}
