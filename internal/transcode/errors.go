package transcode

import "errors"

var (
	// ErrUnsupportedChannelLayout is returned for PCM input that is neither
	// mono nor stereo. Decoder-produced buffers never trip this; it marks a
	// caller contract violation and is fatal to the operation only.
	ErrUnsupportedChannelLayout = errors.New("expecting mono or stereo audio buffer")

	// ErrEncodingFailed is returned when the underlying encoder faults.
	// The whole operation is aborted and partial output discarded.
	ErrEncodingFailed = errors.New("audio encoding failed")
)
