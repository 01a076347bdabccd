package stego

import (
	"errors"
	"io"

	"github.com/nguyengg/zipsten/region"
	"github.com/nguyengg/zipsten/z"
)

// Snapshot is the parsed structural state of an archive.
//
// Codecs never modify a Snapshot; they derive a new one describing the archive after their Plan is applied.
type Snapshot struct {
	// Size is the size of the archive in bytes.
	Size int64
	// EOCD is the end of central directory record.
	EOCD z.EOCDRecord
	// First is the first central directory file header. It is only read for modes that need it.
	First *z.CentralDirectoryHeader
}

// Result is the outcome of a codec.
type Result struct {
	// Payload is the revealed payload. It is nil for insertions and never nil for successful reveals.
	Payload []byte
	// Plan rewrites the archive into After: with the payload for insertions, without it for reveals.
	Plan region.Plan
	// After describes the archive once Plan has been applied.
	After Snapshot
}

var errNoFirstHeader = errors.New("snapshot was read without the first central directory file header")

// Read parses the archive's EOCD record and, if the mode requires it, its first central directory file header.
//
// Every call re-parses src; nothing is cached.
func Read(src io.ReaderAt, size int64, m Mode) (s Snapshot, err error) {
	s.Size = size
	if s.EOCD, err = z.Locate(src, size); err != nil {
		return s, err
	}

	if m == Extra {
		h, err := z.ReadFirstHeader(src, s.EOCD)
		if err != nil {
			return s, err
		}
		s.First = &h
	}

	return s, nil
}

// shifted returns a copy of s with the EOCD offset and archive size moved by delta bytes and First deep-copied.
func (s Snapshot) shifted(delta int64) Snapshot {
	s.EOCD.Offset += delta
	s.Size += delta
	if s.First != nil {
		h := *s.First
		s.First = &h
	}
	return s
}

// eocdWrite encodes the EOCD record of s at its own offset.
func (s Snapshot) eocdWrite() (region.Write, error) {
	b, err := s.EOCD.MarshalBinary()
	return region.Write{At: s.EOCD.Offset, Data: b}, err
}

func readFullAt(src io.ReaderAt, p []byte, off int64) error {
	_, err := io.ReadFull(io.NewSectionReader(src, off, int64(len(p))), p)
	return err
}
