package yx5300

import (
	"errors"
	"fmt"
)

var (
	// ErrShortFrame indicates fewer bytes than a full frame.
	ErrShortFrame = errors.New("short frame")
	// ErrStartMarker indicates the first byte is not the start marker.
	ErrStartMarker = errors.New("bad start marker")
	// ErrVersion indicates an unexpected version byte.
	ErrVersion = errors.New("bad version")
	// ErrLength indicates an unexpected length byte.
	ErrLength = errors.New("bad length")
	// ErrEndMarker indicates the last byte is not the end marker.
	ErrEndMarker = errors.New("bad end marker")
)

// ChecksumError reports a frame whose checksum doesn't match the payload.
type ChecksumError struct {
	Expected uint16
	Actual   uint16
}

// Error implements error.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%04x, got 0x%04x", e.Expected, e.Actual)
}
