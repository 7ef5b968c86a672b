package asset

import "errors"

var (
	// ErrNotFound is returned for operations on ids absent from the store.
	ErrNotFound = errors.New("sound asset not found")

	// ErrDuplicateID is returned when creating an asset whose id already
	// exists. Upstream id generation makes this a caller bug, so it is
	// surfaced instead of silently ignored.
	ErrDuplicateID = errors.New("sound asset id already exists")
)
