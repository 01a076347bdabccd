package zipsten

import (
	"errors"

	"github.com/nguyengg/zipsten/stego"
	"github.com/nguyengg/zipsten/z"
)

// ErrNotFound is returned by reveal operations when the archive carries no payload for the requested mode.
var ErrNotFound = stego.ErrNotFound

// ErrLocked is returned when Options.Lock is true and another process holds the archive's lock.
var ErrLocked = errors.New("archive is locked by another process")

// FormatError is returned when the archive is not a ZIP file or its records are inconsistent.
type FormatError = z.FormatError

// PayloadTooLargeError is returned when the payload does not fit in the requested mode.
type PayloadTooLargeError = stego.PayloadTooLargeError
