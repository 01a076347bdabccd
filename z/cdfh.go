package z

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	// CDFHSignature is the signature of a central directory file header.
	CDFHSignature uint32 = 0x02014b50

	// CDFHLen is the length of the fixed-size part of a central directory file header.
	CDFHLen = 46
)

// CentralDirectoryHeader is a central directory file header together with its variable-size file name and extra
// field.
//
// The file comment is not decoded; it stays in the archive right after Extra.
//
// See https://en.wikipedia.org/wiki/ZIP_(file_format)#Central_directory_file_header_(CDFH).
type CentralDirectoryHeader struct {
	CreatorVersion    uint16
	ReaderVersion     uint16
	Flags             uint16
	Method            uint16
	ModifiedTime      uint16
	ModifiedDate      uint16
	CRC32             uint32
	CompressedSize    uint32
	UncompressedSize  uint32
	FileCommentLength uint16
	DiskNumber        uint16
	InternalAttrs     uint16
	ExternalAttrs     uint32
	// LocalHeaderOffset is the relative offset of local file header.
	LocalHeaderOffset uint32

	Name  []byte
	Extra ExtraField

	// Offset is the position of the header's signature in the file. It is not part of the encoded header.
	Offset int64
}

// fixedSizeCDFileHeader needs to be fixed size to work with binary.Read and binary.Write.
type fixedSizeCDFileHeader struct {
	Signature         uint32
	CreatorVersion    uint16
	ReaderVersion     uint16
	Flags             uint16
	Method            uint16
	ModifiedTime      uint16
	ModifiedDate      uint16
	CRC32             uint32
	CompressedSize    uint32
	UncompressedSize  uint32
	FileNameLength    uint16
	ExtraFieldLength  uint16
	FileCommentLength uint16
	DiskNumber        uint16
	InternalAttrs     uint16
	ExternalAttrs     uint32
	Offset            uint32
}

// Len returns the encoded length of the fixed-size header, file name, and extra field.
func (h CentralDirectoryHeader) Len() int64 {
	return CDFHLen + int64(len(h.Name)) + int64(len(h.Extra))
}

// End returns the file offset right after the header's extra field, which is where its comment starts.
func (h CentralDirectoryHeader) End() int64 {
	return h.Offset + h.Len()
}

// MarshalBinary encodes the fixed-size header, the file name, and the extra field.
func (h CentralDirectoryHeader) MarshalBinary() ([]byte, error) {
	if len(h.Name) > math.MaxUint16 {
		return nil, fmt.Errorf("file name too long: %d bytes", len(h.Name))
	}
	if len(h.Extra) > math.MaxUint16 {
		return nil, fmt.Errorf("extra field too long: %d bytes", len(h.Extra))
	}

	buf := bytes.NewBuffer(make([]byte, 0, h.Len()))
	if err := binary.Write(buf, binary.LittleEndian, &fixedSizeCDFileHeader{
		Signature:         CDFHSignature,
		CreatorVersion:    h.CreatorVersion,
		ReaderVersion:     h.ReaderVersion,
		Flags:             h.Flags,
		Method:            h.Method,
		ModifiedTime:      h.ModifiedTime,
		ModifiedDate:      h.ModifiedDate,
		CRC32:             h.CRC32,
		CompressedSize:    h.CompressedSize,
		UncompressedSize:  h.UncompressedSize,
		FileNameLength:    uint16(len(h.Name)),
		ExtraFieldLength:  uint16(len(h.Extra)),
		FileCommentLength: h.FileCommentLength,
		DiskNumber:        h.DiskNumber,
		InternalAttrs:     h.InternalAttrs,
		ExternalAttrs:     h.ExternalAttrs,
		Offset:            h.LocalHeaderOffset,
	}); err != nil {
		return nil, fmt.Errorf("marshal central directory file header error: %w", err)
	}

	buf.Write(h.Name)
	buf.Write(h.Extra)
	return buf.Bytes(), nil
}

// ReadFirstHeader reads the first central directory file header of the archive described by eocd.
//
// Returns a FormatError if the archive has no entries (the declared central directory is smaller than one fixed-size
// header) or if the header's declared name and extra lengths run past the declared central directory.
func ReadFirstHeader(src io.ReaderAt, eocd EOCDRecord) (h CentralDirectoryHeader, err error) {
	const record = "central directory file header"

	offset := int64(eocd.CDOffset)
	if eocd.CDSize < CDFHLen {
		return h, formatErrorf(record, offset, "central directory size %d is smaller than one header (%d bytes); archive has no entries", eocd.CDSize, CDFHLen)
	}

	var fixed [CDFHLen]byte
	if err = readFullAt(src, fixed[:], offset); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return h, &FormatError{Record: record, Offset: offset, Err: err}
		}
		return h, fmt.Errorf("read central directory file header error: %w", err)
	}

	data := &fixedSizeCDFileHeader{}
	if err = binary.Read(bytes.NewReader(fixed[:]), binary.LittleEndian, data); err != nil {
		return h, &FormatError{Record: record, Offset: offset, Err: err}
	}
	if data.Signature != CDFHSignature {
		return h, formatErrorf(record, offset, "mismatched signature, got 0x%x, expected 0x%x", data.Signature, CDFHSignature)
	}

	n, m := int64(data.FileNameLength), int64(data.ExtraFieldLength)
	if CDFHLen+n+m > int64(eocd.CDSize) {
		return h, formatErrorf(record, offset, "name (%d bytes) and extra field (%d bytes) run past the central directory (%d bytes)", n, m, eocd.CDSize)
	}

	nm := make([]byte, n+m)
	if err = readFullAt(src, nm, offset+CDFHLen); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return h, &FormatError{Record: record, Offset: offset, Err: err}
		}
		return h, fmt.Errorf("read variable-size data error: %w", err)
	}

	return CentralDirectoryHeader{
		CreatorVersion:    data.CreatorVersion,
		ReaderVersion:     data.ReaderVersion,
		Flags:             data.Flags,
		Method:            data.Method,
		ModifiedTime:      data.ModifiedTime,
		ModifiedDate:      data.ModifiedDate,
		CRC32:             data.CRC32,
		CompressedSize:    data.CompressedSize,
		UncompressedSize:  data.UncompressedSize,
		FileCommentLength: data.FileCommentLength,
		DiskNumber:        data.DiskNumber,
		InternalAttrs:     data.InternalAttrs,
		ExternalAttrs:     data.ExternalAttrs,
		LocalHeaderOffset: data.Offset,
		Name:              nm[:n:n],
		Extra:             nm[n:],
		Offset:            offset,
	}, nil
}
