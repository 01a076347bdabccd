package z

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

const (
	// EOCDSignature is the signature of the end of central directory record.
	EOCDSignature uint32 = 0x06054b50

	// EOCDLen is the length of the fixed-size part of the end of central directory record.
	EOCDLen = 22

	// maxEOCDSearch is the furthest distance from end of file an EOCD record can start.
	maxEOCDSearch = EOCDLen + math.MaxUint16
)

var eocdSigBytes = binary.LittleEndian.AppendUint32(nil, EOCDSignature)

// EOCDRecord models the end of central directory record of a ZIP file.
//
// See https://en.wikipedia.org/wiki/ZIP_(file_format)#End_of_central_directory_record_(EOCD).
type EOCDRecord struct {
	// DiskNumber is number of this disk (or 0xffff for ZIP64).
	DiskNumber uint16
	// CDDiskNumber is disk where central directory starts (or 0xffff for ZIP64).
	CDDiskNumber uint16
	// CDCountOnDisk is the number of central directory records on this disk (or 0xffff for ZIP64).
	CDCountOnDisk uint16
	// CDCount is the total number of central directory records (or 0xffff for ZIP64).
	CDCount uint16
	// CDSize is size of central directory (bytes) (or 0xffffffff for ZIP64).
	CDSize uint32
	// CDOffset is offset of start of central directory, relative to start of archive (or 0xffffffff for ZIP64).
	CDOffset uint32
	// Comment is the comment section of the EOCD.
	Comment []byte

	// Offset is the position of the record's signature in the file.
	//
	// It is not part of the encoded record. For a well-formed archive, Offset == size - EOCDLen - len(Comment).
	Offset int64
}

// fixedSizeEOCDRecord needs to be fixed size to work with binary.Read and binary.Write.
type fixedSizeEOCDRecord struct {
	Signature     uint32
	DiskNumber    uint16
	CDDiskNumber  uint16
	CDCountOnDisk uint16
	CDCount       uint16
	CDSize        uint32
	CDOffset      uint32
	CommentLength uint16
}

// Len returns the encoded length of the record including its comment.
func (r EOCDRecord) Len() int64 {
	return EOCDLen + int64(len(r.Comment))
}

// End returns the file offset right after the record's comment.
func (r EOCDRecord) End() int64 {
	return r.Offset + r.Len()
}

// MarshalBinary encodes the record followed by its comment.
func (r EOCDRecord) MarshalBinary() ([]byte, error) {
	if len(r.Comment) > math.MaxUint16 {
		return nil, fmt.Errorf("EOCD comment too long: %d bytes", len(r.Comment))
	}

	buf := bytes.NewBuffer(make([]byte, 0, r.Len()))
	if err := binary.Write(buf, binary.LittleEndian, &fixedSizeEOCDRecord{
		Signature:     EOCDSignature,
		DiskNumber:    r.DiskNumber,
		CDDiskNumber:  r.CDDiskNumber,
		CDCountOnDisk: r.CDCountOnDisk,
		CDCount:       r.CDCount,
		CDSize:        r.CDSize,
		CDOffset:      r.CDOffset,
		CommentLength: uint16(len(r.Comment)),
	}); err != nil {
		return nil, fmt.Errorf("marshal EOCD error: %w", err)
	}

	buf.Write(r.Comment)
	return buf.Bytes(), nil
}

// unmarshalEOCDRecord decodes b which must start with the 22-byte fixed-size record and contain exactly the comment
// afterwards.
func unmarshalEOCDRecord(b []byte, offset int64) (r EOCDRecord, err error) {
	if len(b) < EOCDLen {
		return r, formatErrorf("EOCD", offset, "need at least %d bytes, got %d", EOCDLen, len(b))
	}

	data := &fixedSizeEOCDRecord{}
	if err = binary.Read(bytes.NewReader(b[:EOCDLen]), binary.LittleEndian, data); err != nil {
		return r, &FormatError{Record: "EOCD", Offset: offset, Err: err}
	}
	if data.Signature != EOCDSignature {
		return r, formatErrorf("EOCD", offset, "mismatched signature, got 0x%x, expected 0x%x", data.Signature, EOCDSignature)
	}
	if n := len(b) - EOCDLen; int(data.CommentLength) != n {
		return r, formatErrorf("EOCD", offset, "comment length %d does not match the %d trailing bytes", data.CommentLength, n)
	}

	return EOCDRecord{
		DiskNumber:    data.DiskNumber,
		CDDiskNumber:  data.CDDiskNumber,
		CDCountOnDisk: data.CDCountOnDisk,
		CDCount:       data.CDCount,
		CDSize:        data.CDSize,
		CDOffset:      data.CDOffset,
		Comment:       append([]byte(nil), b[EOCDLen:]...),
		Offset:        offset,
	}, nil
}

// Locate searches the tail of the archive backwards for the EOCD record.
//
// The search covers the last 22+65535 bytes so that a comment of any length is tolerated. The chosen record is the last
// signature whose declared comment length reaches exactly the end of the archive. Locate also checks that the central
// directory lies entirely before the record; it does not cross-check the declared entry count.
//
// Returns a FormatError wrapping ErrNoEOCDFound if no such record exists.
func Locate(src io.ReaderAt, size int64) (r EOCDRecord, err error) {
	if size < EOCDLen {
		return r, &FormatError{Record: "EOCD", Offset: -1, Err: ErrNoEOCDFound}
	}

	// the common case of an archive without comment only needs the last 22 bytes.
	var fixed [EOCDLen]byte
	if err = readFullAt(src, fixed[:], size-EOCDLen); err != nil {
		return r, fmt.Errorf("find EOCD: read error: %w", err)
	}
	if r, err = unmarshalEOCDRecord(fixed[:], size-EOCDLen); err == nil {
		return r, r.validate()
	}

	n := min(size, maxEOCDSearch)
	b := make([]byte, n)
	if err = readFullAt(src, b, size-n); err != nil {
		return r, fmt.Errorf("find EOCD: read error: %w", err)
	}

	for i := bytes.LastIndex(b[:n-EOCDLen+4], eocdSigBytes); i != -1; i = bytes.LastIndex(b[:i], eocdSigBytes) {
		if int(binary.LittleEndian.Uint16(b[i+20:i+22])) != len(b)-i-EOCDLen {
			continue
		}

		if r, err = unmarshalEOCDRecord(b[i:], size-n+int64(i)); err != nil {
			return r, err
		}

		return r, r.validate()
	}

	return r, &FormatError{Record: "EOCD", Offset: -1, Err: ErrNoEOCDFound}
}

// validate checks the single-disk and directory-placement constraints this package relies on.
func (r EOCDRecord) validate() error {
	switch {
	case r.DiskNumber != 0 || r.CDDiskNumber != 0:
		return formatErrorf("EOCD", r.Offset, "multi-disk archives are not supported (disk %d, central directory disk %d)", r.DiskNumber, r.CDDiskNumber)
	case r.CDOffset == math.MaxUint32 || r.CDSize == math.MaxUint32:
		return formatErrorf("EOCD", r.Offset, "ZIP64 archives are not supported")
	case int64(r.CDOffset)+int64(r.CDSize) > r.Offset:
		return formatErrorf("EOCD", r.Offset, "central directory [%d, %d) overlaps the EOCD record", r.CDOffset, int64(r.CDOffset)+int64(r.CDSize))
	}

	return nil
}
