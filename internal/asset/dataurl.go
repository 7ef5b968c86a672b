package asset

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrBadDataURI is returned when a data URI fails structural validation.
var ErrBadDataURI = errors.New("malformed data URI")

// DataURI renders the asset's payload as a data:<mime>;base64,<data> URI,
// the portable form the editor hands to playback and document embedding.
func DataURI(s Sound) string {
	return fmt.Sprintf("data:%s;base64,%s", s.MIMEType, s.Data)
}

// EncodeDataURI wraps raw compressed bytes in a data URI without going
// through a stored asset.
func EncodeDataURI(mimeType string, payload []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(payload))
}

// ParseDataURI splits a data URI into its MIME type and decoded payload.
// Only base64-encoded URIs are accepted; that is the only form this
// service emits or stores.
func ParseDataURI(uri string) (mimeType string, payload []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing data: scheme", ErrBadDataURI)
	}

	meta, data, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing payload separator", ErrBadDataURI)
	}

	mimeType, ok = strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: payload is not base64-encoded", ErrBadDataURI)
	}
	if mimeType == "" {
		return "", nil, fmt.Errorf("%w: empty MIME type", ErrBadDataURI)
	}

	payload, decodeErr := base64.StdEncoding.DecodeString(data)
	if decodeErr != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadDataURI, decodeErr)
	}
	return mimeType, payload, nil
}
