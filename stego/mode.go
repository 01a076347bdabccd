package stego

import (
	"fmt"
	"io"
	"strings"
)

// Mode selects where the payload is hidden.
type Mode int

const (
	// Trailer hides the payload right before the central directory.
	Trailer Mode = iota
	// Extra hides the payload as a sub-record of the first central directory file header's extra field.
	Extra
)

// ParseMode parses the string form of a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "trailer", "t":
		return Trailer, nil
	case "extra", "e":
		return Extra, nil
	default:
		return Trailer, fmt.Errorf("unknown mode: %q", s)
	}
}

func (m Mode) String() string {
	switch m {
	case Trailer:
		return "trailer"
	case Extra:
		return "extra"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Insert computes the plan that hides payload in the archive described by s.
func (m Mode) Insert(s Snapshot, payload []byte) (Result, error) {
	switch m {
	case Trailer:
		return InsertTrailer(s, payload)
	case Extra:
		return InsertExtra(s, payload)
	default:
		return Result{}, fmt.Errorf("unknown mode: %v", m)
	}
}

// Reveal locates the payload hidden in the archive described by s.
func (m Mode) Reveal(src io.ReaderAt, s Snapshot) (Result, error) {
	switch m {
	case Trailer:
		return RevealTrailer(src, s)
	case Extra:
		return RevealExtra(s)
	default:
		return Result{}, fmt.Errorf("unknown mode: %v", m)
	}
}
