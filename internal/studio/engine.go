package studio

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BlockCodeLab/sound/internal/asset"
	"github.com/BlockCodeLab/sound/internal/audio"
	"github.com/BlockCodeLab/sound/internal/metrics"
	"github.com/BlockCodeLab/sound/internal/record"
	"github.com/BlockCodeLab/sound/internal/transcode"
)

const (
	// DefaultBitrate is used for imported files. Below 96 kbps the
	// transcoder encodes mono, keeping stored payloads small.
	DefaultBitrate = 32
	// RecordBitrate is used for microphone takes.
	RecordBitrate = 32
	// RecordSampleRate is the microphone capture rate.
	RecordSampleRate = 22050
)

// File is one member of a batch import.
type File struct {
	Name string
	Data []byte
}

// Options wires an Engine together. Store and Transcoder are required;
// everything else degrades gracefully when absent.
type Options struct {
	Store      *asset.Store
	Transcoder *transcode.Transcoder

	// Device enables recording. Nil leaves recording unavailable.
	Device        record.CaptureDevice
	RecordCeiling time.Duration

	Fetcher *Fetcher
	Metrics *metrics.Metrics
	Alerts  AlertSink
	Logger  *slog.Logger

	DefaultBitrate   int
	RecordBitrate    int
	RecordSampleRate int
}

// Engine orchestrates the sound editor: imports, recording, transport
// events and asset lifecycle pass-throughs.
type Engine struct {
	store      *asset.Store
	transcoder *transcode.Transcoder
	session    *record.Session
	fetcher    *Fetcher
	metrics    *metrics.Metrics
	alerts     AlertSink
	logger     *slog.Logger

	defaultBitrate int
	recordBitrate  int
	recordRate     int

	newID func() string

	// locks serialize competing encodes targeting the same asset id.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New creates an Engine from the given options.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Alerts == nil {
		opts.Alerts = nopAlerts{}
	}
	if opts.DefaultBitrate <= 0 {
		opts.DefaultBitrate = DefaultBitrate
	}
	if opts.RecordBitrate <= 0 {
		opts.RecordBitrate = RecordBitrate
	}
	if opts.RecordSampleRate <= 0 {
		opts.RecordSampleRate = RecordSampleRate
	}

	e := &Engine{
		store:          opts.Store,
		transcoder:     opts.Transcoder,
		fetcher:        opts.Fetcher,
		metrics:        opts.Metrics,
		alerts:         opts.Alerts,
		logger:         opts.Logger,
		defaultBitrate: opts.DefaultBitrate,
		recordBitrate:  opts.RecordBitrate,
		recordRate:     opts.RecordSampleRate,
		newID:          uuid.NewString,
		locks:          make(map[string]*sync.Mutex),
	}
	if opts.Device != nil {
		e.session = record.NewSession(opts.Device, opts.RecordCeiling, e.completeTake, opts.Logger)
	}
	return e
}

// ImportFile decodes and transcodes one file and persists it as a new
// asset. Decode failures surface through the alert sink as a user-facing
// "format not supported" error.
func (e *Engine) ImportFile(ctx context.Context, name string, data []byte) (asset.Sound, error) {
	opID := e.newID()
	e.alerts.ShowAlert(opID, "importing")
	defer e.alerts.ClearAlert(opID)

	return e.importOne(ctx, opID, name, data)
}

// ImportFiles imports a batch under a single busy indicator. Each file's
// failure is isolated and reported; the batch continues past it. The
// indicator is cleared exactly once, after the last file.
func (e *Engine) ImportFiles(ctx context.Context, files []File) []asset.Sound {
	opID := e.newID()
	e.alerts.ShowAlert(opID, "importing")
	defer e.alerts.ClearAlert(opID)

	imported := make([]asset.Sound, 0, len(files))
	for _, f := range files {
		s, err := e.importOne(ctx, opID, f.Name, f.Data)
		if err != nil {
			e.logger.Warn("import skipped",
				slog.String("name", f.Name),
				slog.String("error", err.Error()))
			continue
		}
		imported = append(imported, s)
	}
	return imported
}

// ImportURL fetches a remote file and runs it through the import path.
// Library assets arrive this way.
func (e *Engine) ImportURL(ctx context.Context, rawURL string) (asset.Sound, error) {
	if e.fetcher == nil {
		return asset.Sound{}, fmt.Errorf("remote import is not configured")
	}

	opID := e.newID()
	e.alerts.ShowAlert(opID, "importing")
	defer e.alerts.ClearAlert(opID)

	data, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		e.alerts.ShowError(opID, err)
		if e.metrics != nil {
			e.metrics.RecordImportFailed()
		}
		return asset.Sound{}, err
	}
	return e.importOne(ctx, opID, nameFromURL(rawURL), data)
}

func (e *Engine) importOne(_ context.Context, opID, name string, data []byte) (asset.Sound, error) {
	if e.metrics != nil {
		e.metrics.RecordImportStarted()
	}

	pcm, err := audio.Decode(data)
	if err != nil {
		e.alerts.ShowError(opID, err)
		if e.metrics != nil {
			e.metrics.RecordDecodeError()
			e.metrics.RecordImportFailed()
		}
		return asset.Sound{}, fmt.Errorf("failed to import %s: %w", name, err)
	}

	enc, err := e.transcodeCounted(pcm, e.defaultBitrate)
	if err != nil {
		e.alerts.ShowError(opID, err)
		if e.metrics != nil {
			e.metrics.RecordImportFailed()
		}
		return asset.Sound{}, fmt.Errorf("failed to import %s: %w", name, err)
	}

	s := asset.Sound{
		ID:          e.newID(),
		Name:        cleanName(name),
		MIMEType:    enc.MIMEType,
		Data:        base64.StdEncoding.EncodeToString(enc.Bytes),
		SampleRate:  enc.SampleRate,
		SampleCount: enc.FrameCount,
	}
	if err := e.store.Create(s); err != nil {
		return asset.Sound{}, fmt.Errorf("failed to store %s: %w", name, err)
	}

	if e.metrics != nil {
		e.metrics.RecordImportFinished()
		e.metrics.SetAssetCount(e.store.Len())
	}
	e.logger.Info("sound imported",
		slog.String("asset_id", s.ID),
		slog.String("name", s.Name),
		slog.Int("sample_rate", s.SampleRate),
		slog.Int("frames", s.SampleCount))
	return s, nil
}

// transcodeCounted runs the transcoder and feeds the outcome into metrics.
func (e *Engine) transcodeCounted(pcm *audio.PCM, bitrate int) (*transcode.Encoded, error) {
	slices := 0
	start := time.Now()
	enc, err := e.transcoder.Transcode(pcm, bitrate, func(float64) { slices++ })
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordTranscodeFailure()
		}
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.RecordTranscode(time.Since(start).Seconds(), slices, len(enc.Bytes))
	}
	return enc, nil
}

// StartRecording creates a placeholder asset bound to a new microphone
// take, selects it, and starts capture. The placeholder carries no audio
// until the take completes. Starting while a take is already in flight is
// a no-op: the take in progress keeps its binding and its placeholder is
// returned.
func (e *Engine) StartRecording(name string) (asset.Sound, error) {
	if e.session == nil {
		return asset.Sound{}, fmt.Errorf("no capture device configured")
	}
	if id, active := e.session.Active(); active {
		if current, ok := e.store.Get(id); ok {
			return current, nil
		}
		return asset.Sound{}, record.ErrAlreadyRecording
	}
	if name == "" {
		name = "recording"
	}

	s := asset.Sound{
		ID:            e.newID(),
		Name:          name,
		MIMEType:      transcode.MIMEType,
		SampleRate:    e.recordRate,
		SampleCount:   0,
		LiveRecording: true,
	}
	if err := e.store.Create(s); err != nil {
		return asset.Sound{}, fmt.Errorf("failed to create recording placeholder: %w", err)
	}
	if err := e.store.Select(s.ID); err != nil {
		return asset.Sound{}, err
	}

	if err := e.session.Start(s.ID); err != nil {
		_ = e.store.Delete(s.ID)
		e.store.EnsureSelection()
		// Lost a race against another start: hand back the placeholder of
		// the take that won, with the selection restored to it.
		if errors.Is(err, record.ErrAlreadyRecording) {
			if id, active := e.session.Active(); active {
				if current, ok := e.store.Get(id); ok {
					_ = e.store.Select(id)
					return current, nil
				}
			}
		}
		return asset.Sound{}, err
	}

	if e.metrics != nil {
		e.metrics.RecordRecordingStarted()
		e.metrics.SetAssetCount(e.store.Len())
	}
	return s, nil
}

// StopRecording ends the current take; the completion path persists it.
// A stop with no take in flight is a no-op.
func (e *Engine) StopRecording() {
	if e.session != nil {
		e.session.Stop()
	}
}

// RecordingState reports the session state, Idle when recording is
// unavailable.
func (e *Engine) RecordingState() record.State {
	if e.session == nil {
		return record.Idle
	}
	return e.session.State()
}

// completeTake persists a finished take into its placeholder asset. The
// write applies only if the asset still exists and has not been rewritten
// since the take began; a stale or orphaned result is discarded.
func (e *Engine) completeTake(assetID string, blob []byte, takeErr error) {
	lock := e.assetLock(assetID)
	lock.Lock()
	defer lock.Unlock()

	discard := func(reason string, err error) {
		e.logger.Warn("recording take discarded",
			slog.String("asset_id", assetID),
			slog.String("reason", reason))
		if err != nil {
			e.alerts.ShowError(assetID, err)
		}
		if e.metrics != nil {
			e.metrics.RecordRecordingDiscarded()
		}
		// The placeholder never received audio; remove it rather than
		// leaving an unplayable entry in the selector.
		if s, ok := e.store.Get(assetID); ok && s.LiveRecording {
			_ = e.store.Delete(assetID)
			e.store.EnsureSelection()
			if e.metrics != nil {
				e.metrics.SetAssetCount(e.store.Len())
			}
		}
	}

	if takeErr != nil {
		discard("capture failed", takeErr)
		return
	}

	version, ok := e.store.Version(assetID)
	if !ok {
		discard("asset deleted", nil)
		return
	}

	pcm, err := audio.Decode(blob)
	if err != nil {
		discard("capture blob undecodable", err)
		return
	}

	enc, err := e.transcodeCounted(pcm, e.recordBitrate)
	if err != nil {
		discard("encode failed", err)
		return
	}

	data := base64.StdEncoding.EncodeToString(enc.Bytes)
	live := false
	applied, err := e.store.ReplaceIfVersion(assetID, version, asset.Patch{
		MIMEType:      &enc.MIMEType,
		Data:          &data,
		SampleRate:    &enc.SampleRate,
		SampleCount:   &enc.FrameCount,
		LiveRecording: &live,
	})
	if err != nil || !applied {
		discard("asset changed during encode", err)
		return
	}

	if e.metrics != nil {
		e.metrics.RecordRecordingCompleted(float64(enc.FrameCount) / float64(enc.SampleRate))
	}
	e.logger.Info("recording persisted",
		slog.String("asset_id", assetID),
		slog.Int("frames", enc.FrameCount),
		slog.Int("bytes", len(enc.Bytes)))
}

// Rename changes an asset's display name.
func (e *Engine) Rename(id, name string) error {
	return e.store.Replace(id, asset.Patch{Name: &name})
}

// Delete removes an asset. The selection is cleared if it pointed here;
// no successor is chosen automatically.
func (e *Engine) Delete(id string) error {
	if err := e.store.Delete(id); err != nil {
		return err
	}
	e.dropAssetLock(id)
	if e.metrics != nil {
		e.metrics.SetAssetCount(e.store.Len())
	}
	return nil
}

// Select makes the asset the current editing target.
func (e *Engine) Select(id string) error {
	return e.store.Select(id)
}

// Selected returns the current editing target, if any.
func (e *Engine) Selected() (asset.Sound, bool) {
	return e.store.Selected()
}

// Sounds returns a snapshot of all assets in collection order.
func (e *Engine) Sounds() []asset.Sound {
	return e.store.Sounds()
}

// Get returns one asset by id.
func (e *Engine) Get(id string) (asset.Sound, error) {
	s, ok := e.store.Get(id)
	if !ok {
		return asset.Sound{}, fmt.Errorf("%w: %s", asset.ErrNotFound, id)
	}
	return s, nil
}

// Export returns the asset's payload as a data URI for playback or
// document embedding.
func (e *Engine) Export(id string) (string, error) {
	s, ok := e.store.Get(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", asset.ErrNotFound, id)
	}
	return asset.DataURI(s), nil
}

func (e *Engine) assetLock(id string) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()

	lock, ok := e.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[id] = lock
	}
	return lock
}

func (e *Engine) dropAssetLock(id string) {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	delete(e.locks, id)
}

// cleanName strips the directory and extension from an imported file name.
func cleanName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" || base == "." {
		base = "sound"
	}
	return base
}

// nameFromURL derives a display name from the fetched URL's path.
func nameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "sound"
	}
	return cleanName(u.Path)
}
