package studio

import (
	"fmt"
	"log/slog"
)

// EventKind names a transport event from the waveform widget.
type EventKind string

const (
	EventPlayStart   EventKind = "play-start"
	EventPlayPause   EventKind = "play-pause"
	EventPlayFinish  EventKind = "play-finish"
	EventSeek        EventKind = "seek"
	EventRecordStart EventKind = "record-start"
	EventRecordEnd   EventKind = "record-end"
)

// Event is a transport notification. Playback events carry a position in
// seconds; record-end may carry the widget's own capture blob.
type Event struct {
	Kind     EventKind
	AssetID  string
	Name     string
	Position float64
	Blob     []byte
}

// Transport consumes a widget event. Playback happens entirely in the
// widget, so play and seek events are observed, not acted on. Safe to call
// while encodes are in flight.
func (e *Engine) Transport(ev Event) error {
	switch ev.Kind {
	case EventPlayStart, EventPlayPause, EventPlayFinish:
		e.logger.Debug("transport event",
			slog.String("kind", string(ev.Kind)),
			slog.String("asset_id", ev.AssetID))
		return nil

	case EventSeek:
		e.logger.Debug("transport seek",
			slog.String("asset_id", ev.AssetID),
			slog.Float64("position", ev.Position))
		return nil

	case EventRecordStart:
		_, err := e.StartRecording(ev.Name)
		return err

	case EventRecordEnd:
		if len(ev.Blob) == 0 {
			e.StopRecording()
			return nil
		}
		// The widget delivered its own capture; drop the device take and
		// persist the widget's audio into the bound placeholder.
		if e.session == nil {
			return fmt.Errorf("no recording session for record-end blob")
		}
		id, active := e.session.Active()
		if !active {
			e.logger.Debug("record-end blob with no take in flight")
			return nil
		}
		e.session.Cancel()
		e.completeTake(id, ev.Blob, nil)
		return nil

	default:
		return fmt.Errorf("unknown transport event %q", ev.Kind)
	}
}
