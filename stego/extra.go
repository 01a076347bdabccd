package stego

import (
	"math"

	"github.com/nguyengg/zipsten/region"
	"github.com/nguyengg/zipsten/z"
)

// ExtraTag is the tag of the extra field sub-record that carries the payload.
const ExtraTag uint16 = 0x3333

// InsertExtra computes the plan that appends a sub-record tagged ExtraTag carrying payload to the extra field of the
// first central directory file header.
//
// Everything from the end of that header's extra field up to the EOCD record moves forward by len(payload)+4 bytes.
// The header and the EOCD record are rewritten with the grown extra field length and central directory size. Any
// extra field records already present are kept as-is.
func InsertExtra(s Snapshot, payload []byte) (Result, error) {
	h := s.First
	if h == nil {
		return Result{}, errNoFirstHeader
	}

	limit := math.MaxUint16 - len(h.Extra) - z.ExtraRecordHeaderLen
	// 0xffffffff is reserved to signal ZIP64.
	if l := math.MaxUint32 - 1 - int64(s.EOCD.CDSize) - z.ExtraRecordHeaderLen; l < int64(limit) {
		limit = int(l)
	}
	if len(payload) > limit {
		return Result{}, &PayloadTooLargeError{Mode: Extra, Size: len(payload), Max: max(0, limit)}
	}

	extra, err := h.Extra.Append(ExtraTag, payload)
	if err != nil {
		return Result{}, err
	}

	return rewriteFirst(s, extra, nil)
}

// RevealExtra returns the data of the first sub-record tagged ExtraTag in the extra field of the first central
// directory file header.
//
// Returns ErrNotFound if there is no such sub-record, or a z.FormatError if the extra field cannot be walked.
//
// Result.Plan removes that one sub-record only; other sub-records, including further ones tagged ExtraTag, are kept.
func RevealExtra(s Snapshot) (Result, error) {
	h := s.First
	if h == nil {
		return Result{}, errNoFirstHeader
	}

	r, ok, err := h.Extra.Find(ExtraTag)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, ErrNotFound
	}

	return rewriteFirst(s, h.Extra.Remove(r), append(make([]byte, 0, len(r.Data)), r.Data...))
}

// rewriteFirst computes the plan that replaces the extra field of the first header with extra.
func rewriteFirst(s Snapshot, extra z.ExtraField, payload []byte) (Result, error) {
	h := s.First
	delta := int64(len(extra)) - int64(len(h.Extra))

	after := s.shifted(delta)
	after.First.Extra = extra
	after.EOCD.CDSize = uint32(int64(after.EOCD.CDSize) + delta)

	hb, err := after.First.MarshalBinary()
	if err != nil {
		return Result{}, err
	}

	eocd, err := after.eocdWrite()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Payload: payload,
		Plan: region.Plan{
			Steps: []region.Step{
				// the rest of the central directory, including the first header's comment.
				region.Move{From: h.End(), To: after.First.End(), Length: s.EOCD.Offset - h.End()},
				region.Write{At: h.Offset, Data: hb},
				eocd,
			},
			Size: after.Size,
		},
		After: after,
	}, nil
}
