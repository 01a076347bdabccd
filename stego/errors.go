package stego

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the archive is well-formed but carries no payload recognisable by the requested mode.
//
// It is distinct from a zero-length payload, which is revealed as an empty non-nil slice.
var ErrNotFound = errors.New("hidden data not found")

// PayloadTooLargeError is returned when the payload does not fit in the structure of the requested mode.
type PayloadTooLargeError struct {
	Mode Mode
	// Size is the payload size in bytes.
	Size int
	// Max is the largest payload size that would have fit.
	Max int
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("payload of %d bytes is too large for %s mode (max %d bytes)", e.Size, e.Mode, e.Max)
}
