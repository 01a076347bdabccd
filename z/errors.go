package z

import (
	"errors"
	"fmt"
	"io"
)

// ErrNoEOCDFound is returned (wrapped in a FormatError) if no EOCD signature was found.
var ErrNoEOCDFound = errors.New("end of central directory not found; most likely not a ZIP file")

// FormatError is returned when the archive is not a ZIP file, or when the declared sizes of a parsed record are
// inconsistent with the data that is actually available.
type FormatError struct {
	// Record names the structure being parsed, such as "EOCD" or "central directory file header".
	Record string
	// Offset is the file offset of the structure, or -1 if unknown.
	Offset int64
	Err    error
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func (e *FormatError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("malformed %s: %v", e.Record, e.Err)
	}

	return fmt.Sprintf("malformed %s at offset %d: %v", e.Record, e.Offset, e.Err)
}

func formatErrorf(record string, offset int64, format string, a ...any) error {
	return &FormatError{Record: record, Offset: offset, Err: fmt.Errorf(format, a...)}
}

// readFullAt reads exactly len(p) bytes at off.
//
// An io.EOF accompanying a full read is ignored as permitted by io.ReaderAt; a short read is reported as
// io.ErrUnexpectedEOF.
func readFullAt(src io.ReaderAt, p []byte, off int64) error {
	n, err := src.ReadAt(p, off)
	switch {
	case n == len(p):
		return nil
	case err == nil, errors.Is(err, io.EOF):
		return io.ErrUnexpectedEOF
	default:
		return err
	}
}
