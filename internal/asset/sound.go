package asset

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Sound is the persisted unit: compressed audio bytes plus the metadata
// needed to display and re-edit the clip. The JSON field names match the
// document format the editor embeds assets in.
type Sound struct {
	// ID is an opaque unique identifier, immutable once created.
	ID string `json:"id"`

	// Name is the human-readable label shown in the selector.
	Name string `json:"name"`

	// MIMEType tags the compressed format. Immutable after encode.
	MIMEType string `json:"type"`

	// Data is the compressed payload in standard base64, safe to embed in
	// documents and data URIs.
	Data string `json:"data"`

	// SampleRate is the decoded source rate in Hz, set at encode time.
	SampleRate int `json:"rate"`

	// SampleCount is the frame count of the decoded source, used for
	// duration display. Zero means the asset has no audio payload yet.
	SampleCount int `json:"sampleCount"`

	// LiveRecording marks an asset bound to an in-progress recording
	// session; its Data and SampleCount are provisional until the
	// recording stops.
	LiveRecording bool `json:"record,omitempty"`
}

// IsAudio reports whether the asset carries an audio MIME type. The store
// only tracks audio assets, but documents may mix in other asset kinds.
func (s Sound) IsAudio() bool {
	return strings.HasPrefix(s.MIMEType, "audio/")
}

// Duration returns the clip length in seconds for display.
func (s Sound) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(s.SampleCount) / float64(s.SampleRate)
}

// Payload decodes the base64 data back into compressed audio bytes.
func (s Sound) Payload() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s.Data)
	if err != nil {
		return nil, fmt.Errorf("sound %s payload is not valid base64: %w", s.ID, err)
	}
	return raw, nil
}

// FormatTime renders seconds as m:ss.mmm, the selector's duration label.
func FormatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	min := int(seconds) / 60
	sec := int(seconds) % 60
	ms := int((seconds - float64(int(seconds))) * 1000)
	return fmt.Sprintf("%d:%02d.%03d", min, sec, ms)
}

// Patch is a partial update applied by Store.Replace. Nil fields are left
// untouched.
type Patch struct {
	Name          *string
	MIMEType      *string
	Data          *string
	SampleRate    *int
	SampleCount   *int
	LiveRecording *bool
}

func (p Patch) apply(s *Sound) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.MIMEType != nil {
		s.MIMEType = *p.MIMEType
	}
	if p.Data != nil {
		s.Data = *p.Data
	}
	if p.SampleRate != nil {
		s.SampleRate = *p.SampleRate
	}
	if p.SampleCount != nil {
		s.SampleCount = *p.SampleCount
	}
	if p.LiveRecording != nil {
		s.LiveRecording = *p.LiveRecording
	}
}
