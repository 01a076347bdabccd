package stego

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/nguyengg/zipsten/z"
	"github.com/stretchr/testify/assert"
)

// memFile implements region.File over an in-memory byte slice.
type memFile struct {
	b []byte
}

func (m *memFile) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.b)) {
		return 0, io.EOF
	}

	n := copy(p, m.b[off:])
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

func (m *memFile) WriteAt(p []byte, off int64) (int, error) {
	if end := off + int64(len(p)); end > int64(len(m.b)) {
		m.b = append(m.b, make([]byte, end-int64(len(m.b)))...)
	}

	return copy(m.b[off:], p), nil
}

func (m *memFile) Truncate(size int64) error {
	if size <= int64(len(m.b)) {
		m.b = m.b[:size]
		return nil
	}

	m.b = append(m.b, make([]byte, size-int64(len(m.b)))...)
	return nil
}

type entry struct {
	name, contents string
	extra          []byte
}

func newZip(t *testing.T, comment string, entries ...entry) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Store, Extra: e.extra})
		assert.NoErrorf(t, err, "CreateHeader(%s) error = %v", e.name, err)
		_, err = w.Write([]byte(e.contents))
		assert.NoErrorf(t, err, "Write(%s) error = %v", e.name, err)
	}

	assert.NoError(t, zw.SetComment(comment))
	assert.NoError(t, zw.Close())
	return buf.Bytes()
}

// apply reads the snapshot of f, runs fn, then applies the resulting plan to f.
func apply(t *testing.T, f *memFile, m Mode, fn func(s Snapshot) (Result, error)) (Result, error) {
	t.Helper()

	s, err := Read(f, int64(len(f.b)), m)
	if err != nil {
		return Result{}, err
	}

	res, err := fn(s)
	if err != nil {
		return res, err
	}

	assert.NoErrorf(t, res.Plan.Validate(int64(len(f.b))), "Validate() error")
	assert.NoError(t, res.Plan.Apply(context.Background(), f))

	// the archive must parse back into exactly what the codec predicted.
	got, err := Read(f, int64(len(f.b)), m)
	assert.NoErrorf(t, err, "Read() after apply error = %v", err)
	assert.Equal(t, res.After, got)

	return res, nil
}

// assertContents checks that a standard ZIP reader still lists and extracts every entry.
func assertContents(t *testing.T, data []byte, entries ...entry) {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if !assert.NoErrorf(t, err, "zip.NewReader() error = %v", err) {
		return
	}
	if !assert.Len(t, zr.File, len(entries)) {
		return
	}

	for i, e := range entries {
		assert.Equal(t, e.name, zr.File[i].Name)

		rc, err := zr.File[i].Open()
		assert.NoErrorf(t, err, "Open(%s) error = %v", e.name, err)
		got, err := io.ReadAll(rc)
		assert.NoErrorf(t, err, "ReadAll(%s) error = %v", e.name, err)
		assert.Equal(t, e.contents, string(got))
		_ = rc.Close()
	}
}

var entries = []entry{
	{name: "a.txt", contents: "hello"},
	{name: "dir/b.txt", contents: "the quick brown fox"},
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		mode    Mode
		comment string
		payload []byte
	}{
		{name: "trailer", mode: Trailer, payload: []byte("secret")},
		{name: "trailer with comment", mode: Trailer, comment: "archive comment", payload: []byte("secret")},
		{name: "trailer empty payload", mode: Trailer, payload: []byte{}},
		{name: "trailer binary payload", mode: Trailer, payload: bytes.Repeat([]byte{0, 0xff, 'P', 'K', 5, 6}, 4096)},
		{name: "extra", mode: Extra, payload: []byte("secret")},
		{name: "extra with comment", mode: Extra, comment: "archive comment", payload: []byte("secret")},
		{name: "extra empty payload", mode: Extra, payload: []byte{}},
		{name: "extra largest payload", mode: Extra, payload: bytes.Repeat([]byte("x"), math.MaxUint16-4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := newZip(t, tt.comment, entries...)
			f := &memFile{b: append([]byte(nil), original...)}

			_, err := apply(t, f, tt.mode, func(s Snapshot) (Result, error) {
				return tt.mode.Insert(s, tt.payload)
			})
			assert.NoErrorf(t, err, "Insert() error = %v", err)
			assert.Equal(t, len(original)+len(tt.payload)+4, len(f.b))
			assertContents(t, f.b, entries...)

			zr, err := zip.NewReader(bytes.NewReader(f.b), int64(len(f.b)))
			assert.NoError(t, err)
			assert.Equal(t, tt.comment, zr.Comment)

			res, err := apply(t, f, tt.mode, func(s Snapshot) (Result, error) {
				return tt.mode.Reveal(f, s)
			})
			assert.NoErrorf(t, err, "Reveal() error = %v", err)
			assert.NotNil(t, res.Payload)
			assert.Equal(t, tt.payload, res.Payload)

			// removal restores the original archive exactly.
			assert.Equal(t, original, f.b)
		})
	}
}

func TestInsertExtra_Layout(t *testing.T) {
	f := &memFile{b: newZip(t, "", entries...)}

	_, err := apply(t, f, Extra, func(s Snapshot) (Result, error) {
		return InsertExtra(s, []byte("secret"))
	})
	assert.NoErrorf(t, err, "InsertExtra() error = %v", err)

	eocd, err := z.Locate(f, int64(len(f.b)))
	assert.NoError(t, err)
	h, err := z.ReadFirstHeader(f, eocd)
	assert.NoError(t, err)
	assert.Equal(t, z.ExtraField("\x33\x33\x06\x00secret"), h.Extra)
}

func TestInsertTrailer_Layout(t *testing.T) {
	original := newZip(t, "", entries...)
	f := &memFile{b: append([]byte(nil), original...)}

	s, err := Read(f, int64(len(f.b)), Trailer)
	assert.NoError(t, err)
	cd := int64(s.EOCD.CDOffset)

	_, err = apply(t, f, Trailer, func(s Snapshot) (Result, error) {
		return InsertTrailer(s, []byte("secret"))
	})
	assert.NoErrorf(t, err, "InsertTrailer() error = %v", err)

	assert.Equal(t, original[:cd], f.b[:cd])
	assert.Equal(t, "secret\x06\x00\x00\x00", string(f.b[cd:cd+10]))
	assert.Equal(t, original[cd:s.EOCD.Offset], f.b[cd+10:s.EOCD.Offset+10])
}

func TestExtra_PreservesExistingRecords(t *testing.T) {
	existing := binary.LittleEndian.AppendUint16(nil, 0xcafe)
	existing = binary.LittleEndian.AppendUint16(existing, 3)
	existing = append(existing, "abc"...)

	withExtra := []entry{{name: "a.txt", contents: "hello", extra: existing}, entries[1]}
	original := newZip(t, "", withExtra...)
	f := &memFile{b: append([]byte(nil), original...)}

	_, err := apply(t, f, Extra, func(s Snapshot) (Result, error) {
		return InsertExtra(s, []byte("secret"))
	})
	assert.NoError(t, err)
	assertContents(t, f.b, withExtra...)

	s, err := Read(f, int64(len(f.b)), Extra)
	assert.NoError(t, err)
	r, ok, err := s.First.Extra.Find(0xcafe)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", string(r.Data))

	res, err := apply(t, f, Extra, func(s Snapshot) (Result, error) {
		return RevealExtra(s)
	})
	assert.NoError(t, err)
	assert.Equal(t, "secret", string(res.Payload))
	assert.Equal(t, original, f.b)
}

func TestReveal_NotFound(t *testing.T) {
	t.Run("trailer on empty archive", func(t *testing.T) {
		data := newZip(t, "")
		s, err := Read(bytes.NewReader(data), int64(len(data)), Trailer)
		assert.NoError(t, err)

		_, err = RevealTrailer(bytes.NewReader(data), s)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("trailer length larger than preceding data", func(t *testing.T) {
		data := newZip(t, "", entries...)
		s, err := Read(bytes.NewReader(data), int64(len(data)), Trailer)
		assert.NoError(t, err)
		binary.LittleEndian.PutUint32(data[s.EOCD.CDOffset-4:], math.MaxUint32)

		_, err = RevealTrailer(bytes.NewReader(data), s)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("extra without tagged record", func(t *testing.T) {
		data := newZip(t, "", entries...)
		s, err := Read(bytes.NewReader(data), int64(len(data)), Extra)
		assert.NoError(t, err)

		_, err = RevealExtra(s)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRevealExtra_Malformed(t *testing.T) {
	data := newZip(t, "", entries...)
	s, err := Read(bytes.NewReader(data), int64(len(data)), Extra)
	assert.NoError(t, err)

	s.First.Extra = z.ExtraField{0x33, 0x33, 0x10, 0x00, 'a'}
	_, err = RevealExtra(s)
	var fe *z.FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestRead_Errors(t *testing.T) {
	var fe *z.FormatError

	data := []byte("definitely not a zip file")
	_, err := Read(bytes.NewReader(data), int64(len(data)), Trailer)
	assert.ErrorAs(t, err, &fe)
	assert.ErrorIs(t, err, z.ErrNoEOCDFound)

	// extra mode needs at least one entry.
	data = newZip(t, "")
	_, err = Read(bytes.NewReader(data), int64(len(data)), Extra)
	assert.ErrorAs(t, err, &fe)
}

func TestPayloadTooLarge(t *testing.T) {
	data := newZip(t, "", entries...)

	s, err := Read(bytes.NewReader(data), int64(len(data)), Extra)
	assert.NoError(t, err)

	_, err = InsertExtra(s, make([]byte, math.MaxUint16))
	var pe *PayloadTooLargeError
	if assert.ErrorAs(t, err, &pe) {
		assert.Equal(t, Extra, pe.Mode)
		assert.Equal(t, math.MaxUint16, pe.Size)
		assert.Equal(t, math.MaxUint16-4, pe.Max)
	}

	// the directory offset must stay below the ZIP64 marker.
	s = Snapshot{EOCD: z.EOCDRecord{CDOffset: math.MaxUint32 - 10}}
	_, err = InsertTrailer(s, make([]byte, 6))
	if assert.ErrorAs(t, err, &pe) {
		assert.Equal(t, Trailer, pe.Mode)
		assert.Equal(t, 5, pe.Max)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "trailer", want: Trailer},
		{in: "t", want: Trailer},
		{in: "EXTRA", want: Extra},
		{in: "e", want: Extra},
		{in: "comment", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, must(ParseMode(got.String())))
		})
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
