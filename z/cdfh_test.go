package z

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadFirstHeader(t *testing.T) {
	data := newZip(t, "", "test/a.txt", "test/b.txt")

	eocd, err := Locate(bytes.NewReader(data), int64(len(data)))
	assert.NoErrorf(t, err, "Locate() error = %v", err)

	h, err := ReadFirstHeader(bytes.NewReader(data), eocd)
	assert.NoErrorf(t, err, "ReadFirstHeader() error = %v", err)
	assert.Equal(t, "test/a.txt", string(h.Name))
	assert.Empty(t, h.Extra)
	assert.Equal(t, int64(eocd.CDOffset), h.Offset)
	assert.Equal(t, uint32(0), h.LocalHeaderOffset)
	assert.Equal(t, uint32(len("contents of test/a.txt")), h.UncompressedSize)
	assert.Equal(t, zip.Store, h.Method)

	// the encoded header must be byte-identical to what archive/zip wrote.
	b, err := h.MarshalBinary()
	assert.NoErrorf(t, err, "MarshalBinary() error = %v", err)
	assert.Equal(t, data[h.Offset:h.End()], b)
}

func TestReadFirstHeader_WithExtra(t *testing.T) {
	extra := binary.LittleEndian.AppendUint16(nil, 0xcafe)
	extra = binary.LittleEndian.AppendUint16(extra, 3)
	extra = append(extra, "abc"...)

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	_, err := zw.CreateHeader(&zip.FileHeader{Name: "a.txt", Method: zip.Store, Extra: extra, Comment: "file comment"})
	assert.NoError(t, err)
	assert.NoError(t, zw.Close())
	data := buf.Bytes()

	eocd, err := Locate(bytes.NewReader(data), int64(len(data)))
	assert.NoErrorf(t, err, "Locate() error = %v", err)

	h, err := ReadFirstHeader(bytes.NewReader(data), eocd)
	assert.NoErrorf(t, err, "ReadFirstHeader() error = %v", err)
	assert.Equal(t, ExtraField(extra), h.Extra)
	assert.Equal(t, uint16(len("file comment")), h.FileCommentLength)
	assert.Equal(t, "file comment", string(data[h.End():h.End()+int64(h.FileCommentLength)]))
}

func TestReadFirstHeader_EmptyArchive(t *testing.T) {
	data := newZip(t, "")

	eocd, err := Locate(bytes.NewReader(data), int64(len(data)))
	assert.NoErrorf(t, err, "Locate() error = %v", err)
	assert.Equal(t, uint32(0), eocd.CDSize)

	_, err = ReadFirstHeader(bytes.NewReader(data), eocd)
	var fe *FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestReadFirstHeader_Inconsistent(t *testing.T) {
	data := newZip(t, "", "a.txt")

	eocd, err := Locate(bytes.NewReader(data), int64(len(data)))
	assert.NoErrorf(t, err, "Locate() error = %v", err)

	t.Run("extra length runs past central directory", func(t *testing.T) {
		corrupt := append([]byte(nil), data...)
		binary.LittleEndian.PutUint16(corrupt[eocd.CDOffset+30:], 0xffff)

		_, err := ReadFirstHeader(bytes.NewReader(corrupt), eocd)
		var fe *FormatError
		assert.ErrorAs(t, err, &fe)
	})

	t.Run("bad signature", func(t *testing.T) {
		corrupt := append([]byte(nil), data...)
		corrupt[eocd.CDOffset] = 'X'

		_, err := ReadFirstHeader(bytes.NewReader(corrupt), eocd)
		var fe *FormatError
		assert.ErrorAs(t, err, &fe)
	})

	t.Run("truncated", func(t *testing.T) {
		truncated := data[:eocd.CDOffset+10]

		_, err := ReadFirstHeader(bytes.NewReader(truncated), eocd)
		var fe *FormatError
		assert.ErrorAs(t, err, &fe)
	})
}
