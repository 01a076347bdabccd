package z

import (
	"encoding/binary"
	"iter"
	"math"
)

// ExtraRecordHeaderLen is the length of the tag and length prefix of every extra field sub-record.
const ExtraRecordHeaderLen = 4

// ExtraField is the raw extra field of a file header: a sequence of [tag(2)][length(2)][data] sub-records.
type ExtraField []byte

// ExtraRecord is one sub-record of an ExtraField.
type ExtraRecord struct {
	Tag  uint16
	Data []byte
	// Offset is the position of the sub-record's tag within the extra field.
	Offset int
}

// Len returns the encoded length of the sub-record.
func (r ExtraRecord) Len() int {
	return ExtraRecordHeaderLen + len(r.Data)
}

// Records walks the sub-records sequentially by advancing 4+length each step.
//
// A trailing fragment too short for a sub-record prefix, or a sub-record whose declared length runs past the end of
// the extra field, yields a FormatError and stops the iteration.
func (e ExtraField) Records() iter.Seq2[ExtraRecord, error] {
	return func(yield func(ExtraRecord, error) bool) {
		for i := 0; i < len(e); {
			if len(e)-i < ExtraRecordHeaderLen {
				yield(ExtraRecord{Offset: i}, formatErrorf("extra field", -1, "trailing %d bytes at %d are too short for a sub-record", len(e)-i, i))
				return
			}

			tag := binary.LittleEndian.Uint16(e[i : i+2])
			n := int(binary.LittleEndian.Uint16(e[i+2 : i+4]))
			start := i + ExtraRecordHeaderLen
			if start+n > len(e) {
				yield(ExtraRecord{Tag: tag, Offset: i}, formatErrorf("extra field", -1, "sub-record 0x%04x at %d declares %d bytes but only %d remain", tag, i, n, len(e)-start))
				return
			}

			if !yield(ExtraRecord{Tag: tag, Data: e[start : start+n : start+n], Offset: i}, nil) {
				return
			}

			i = start + n
		}
	}
}

// Find returns the first sub-record with the given tag.
//
// The boolean return value is false if no such sub-record exists. The error is non-nil only if the extra field is
// malformed before a match is found.
func (e ExtraField) Find(tag uint16) (ExtraRecord, bool, error) {
	for r, err := range e.Records() {
		if err != nil {
			return r, false, err
		}
		if r.Tag == tag {
			return r, true, nil
		}
	}

	return ExtraRecord{}, false, nil
}

// Append returns a new extra field with a sub-record of the given tag and data appended to e.
//
// e itself is not modified. Returns an error if data does not fit in the 16-bit length, or if the resulting extra
// field would exceed the 16-bit extra field length of a file header.
func (e ExtraField) Append(tag uint16, data []byte) (ExtraField, error) {
	if len(data) > math.MaxUint16 {
		return nil, formatErrorf("extra field", -1, "sub-record data of %d bytes exceeds %d", len(data), math.MaxUint16)
	}
	if n := len(e) + ExtraRecordHeaderLen + len(data); n > math.MaxUint16 {
		return nil, formatErrorf("extra field", -1, "extra field of %d bytes would exceed %d", n, math.MaxUint16)
	}

	out := make(ExtraField, 0, len(e)+ExtraRecordHeaderLen+len(data))
	out = append(out, e...)
	out = binary.LittleEndian.AppendUint16(out, tag)
	out = binary.LittleEndian.AppendUint16(out, uint16(len(data)))
	return append(out, data...), nil
}

// Remove returns a new extra field without the given sub-record, which must have been produced by walking e.
//
// e itself is not modified.
func (e ExtraField) Remove(r ExtraRecord) ExtraField {
	out := make(ExtraField, 0, len(e)-r.Len())
	out = append(out, e[:r.Offset]...)
	return append(out, e[r.Offset+r.Len():]...)
}
