package stego

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/nguyengg/zipsten/region"
)

// TrailerLengthLen is the length of the little-endian payload length that follows a trailer payload.
const TrailerLengthLen = 4

// InsertTrailer computes the plan that places payload followed by its 4-byte little-endian length right before the
// central directory.
//
// The central directory and everything up to the EOCD record move forward by len(payload)+4 bytes, and the EOCD
// record is rewritten with the new central directory offset. Returns a PayloadTooLargeError if the new offset would
// no longer fit in the 32-bit EOCD field.
func InsertTrailer(s Snapshot, payload []byte) (Result, error) {
	cdOffset := int64(s.EOCD.CDOffset)

	// 0xffffffff is reserved to signal ZIP64.
	if limit := math.MaxUint32 - 1 - cdOffset - TrailerLengthLen; int64(len(payload)) > limit {
		return Result{}, &PayloadTooLargeError{Mode: Trailer, Size: len(payload), Max: int(max(0, limit))}
	}

	shift := int64(len(payload)) + TrailerLengthLen
	after := s.shifted(shift)
	after.EOCD.CDOffset += uint32(shift)

	block := make([]byte, 0, shift)
	block = append(block, payload...)
	block = binary.LittleEndian.AppendUint32(block, uint32(len(payload)))

	eocd, err := after.eocdWrite()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Plan: region.Plan{
			Steps: []region.Step{
				// must move first since the payload is written over the old directory start.
				region.Move{From: cdOffset, To: int64(after.EOCD.CDOffset), Length: s.EOCD.Offset - cdOffset},
				region.Write{At: cdOffset, Data: block},
				eocd,
			},
			Size: after.Size,
		},
		After: after,
	}, nil
}

// RevealTrailer reads the payload that precedes the central directory.
//
// The 4 bytes right before the central directory are read as the payload length L. If fewer than L bytes precede
// the length field, ErrNotFound is returned. Any plain archive whose 4 bytes before the directory happen to decode
// to a small enough L is indistinguishable from one carrying a payload.
//
// Result.Plan removes the payload and its length by moving the central directory back onto the payload's start. Only
// those L+4 bytes are removed; the EOCD comment is preserved.
func RevealTrailer(src io.ReaderAt, s Snapshot) (Result, error) {
	cdOffset := int64(s.EOCD.CDOffset)
	if cdOffset < TrailerLengthLen {
		return Result{}, ErrNotFound
	}

	var lb [TrailerLengthLen]byte
	if err := readFullAt(src, lb[:], cdOffset-TrailerLengthLen); err != nil {
		return Result{}, fmt.Errorf("read payload length error: %w", err)
	}

	n := int64(binary.LittleEndian.Uint32(lb[:]))
	start := cdOffset - TrailerLengthLen - n
	if start < 0 {
		return Result{}, ErrNotFound
	}

	payload := make([]byte, n)
	if err := readFullAt(src, payload, start); err != nil {
		return Result{}, fmt.Errorf("read payload error: %w", err)
	}

	shift := n + TrailerLengthLen
	after := s.shifted(-shift)
	after.EOCD.CDOffset = uint32(start)

	eocd, err := after.eocdWrite()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Payload: payload,
		Plan: region.Plan{
			Steps: []region.Step{
				region.Move{From: cdOffset, To: start, Length: s.EOCD.Offset - cdOffset},
				eocd,
			},
			Size: after.Size,
		},
		After: after,
	}, nil
}
