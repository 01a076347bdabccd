package region

import (
	"context"
	"fmt"
	"io"
)

// File is the random-access handle a Plan is applied to. *os.File satisfies this interface.
type File interface {
	io.ReaderAt
	io.WriterAt
	Truncate(size int64) error
}

// Step is a single byte-range operation of a Plan.
//
// The only implementations are Move and Write.
type Step interface {
	fmt.Stringer

	// Len returns the number of bytes the step writes.
	Len() int64

	apply(f File, buf []byte, progress io.Writer) error
	validate(size int64) error
}

// Move relocates Length bytes starting at From so that they start at To instead.
//
// The source range may overlap the destination range. When To > From, the region is copied in chunks from the high
// end down so that no destination write lands on source bytes that have not been read yet; when To < From, a forward
// pass is safe because every destination byte precedes its source byte.
type Move struct {
	From, To, Length int64
}

// Write writes Data at offset At.
type Write struct {
	At   int64
	Data []byte
}

// Plan is an ordered list of steps followed by a truncation of the file to Size.
//
// A Plan is a pure description derived from a parsed archive; it has no side effect until Apply is called.
type Plan struct {
	Steps []Step
	Size  int64
}

// Options customises Plan.Apply.
type Options struct {
	// ChunkSize is the size of the buffer used to move regions.
	//
	// By default, DefaultChunkSize is used.
	ChunkSize int

	// Progress if given will receive every chunk that is written.
	Progress io.Writer
}

// Len returns the total number of bytes the plan writes.
func (p Plan) Len() (n int64) {
	for _, s := range p.Steps {
		n += s.Len()
	}
	return
}

// Validate checks that every step reads and writes within [0, max(size, p.Size)).
//
// size is the current size of the file the plan will be applied to.
func (p Plan) Validate(size int64) error {
	if p.Size < 0 {
		return fmt.Errorf("invalid plan: negative final size %d", p.Size)
	}

	limit := max(size, p.Size)
	for i, s := range p.Steps {
		if err := s.validate(limit); err != nil {
			return fmt.Errorf("invalid plan: step %d: %w", i, err)
		}
		if m, ok := s.(Move); ok && m.From+m.Length > size {
			return fmt.Errorf("invalid plan: step %d: move source [%d, %d) is past end of file (%d)", i, m.From, m.From+m.Length, size)
		}
	}

	return nil
}

// Apply executes every step in order then truncates f to p.Size.
//
// The context is checked only once, before the first write. An in-place apply is not atomic: an I/O error part way
// through can leave f in a partially shifted state.
func (p Plan) Apply(ctx context.Context, f File, optFns ...func(*Options)) error {
	opts := &Options{ChunkSize: DefaultChunkSize}
	for _, fn := range optFns {
		fn(opts)
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	var longest int64
	for _, s := range p.Steps {
		if m, ok := s.(Move); ok {
			longest = max(longest, m.Length)
		}
	}

	buf := make([]byte, min(int64(opts.ChunkSize), max(longest, 1)))

	for i, s := range p.Steps {
		if err := s.apply(f, buf, opts.Progress); err != nil {
			return fmt.Errorf("apply step %d (%s): %w", i, s, err)
		}
	}

	if err := f.Truncate(p.Size); err != nil {
		return fmt.Errorf("truncate to %d bytes error: %w", p.Size, err)
	}

	return nil
}

func (m Move) Len() int64 {
	return m.Length
}

func (m Move) String() string {
	return fmt.Sprintf("move [%d, %d) to %d", m.From, m.From+m.Length, m.To)
}

func (m Move) validate(size int64) error {
	switch {
	case m.From < 0 || m.To < 0 || m.Length < 0:
		return fmt.Errorf("negative offset or length in %s", m)
	case m.To+m.Length > size:
		return fmt.Errorf("%s would write past end of file (%d)", m, size)
	}

	return nil
}

func (m Move) apply(f File, buf []byte, progress io.Writer) (err error) {
	switch {
	case m.Length == 0 || m.From == m.To:
		return nil
	case m.To > m.From:
		return m.backward(f, buf, progress)
	default:
		w := io.Writer(io.NewOffsetWriter(f, m.To))
		if progress != nil {
			w = io.MultiWriter(w, progress)
		}

		// the source is never written ahead of its read position since To < From.
		written, err := Copy(context.Background(), w, io.NewSectionReader(f, m.From, m.Length), m.Length, buf)
		if err == nil && written != m.Length {
			err = fmt.Errorf("short move: expected %d bytes, moved %d", m.Length, written)
		}
		return err
	}
}

// backward copies the region from its high end down. Each chunk is fully read before it is written.
func (m Move) backward(f File, buf []byte, progress io.Writer) error {
	for remaining := m.Length; remaining > 0; {
		n := min(int64(len(buf)), remaining)
		remaining -= n

		chunk := buf[:n]
		if k, err := f.ReadAt(chunk, m.From+remaining); k != len(chunk) {
			if err == nil || err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return fmt.Errorf("read %d bytes at %d error: %w", n, m.From+remaining, err)
		}
		if _, err := f.WriteAt(chunk, m.To+remaining); err != nil {
			return fmt.Errorf("write %d bytes at %d error: %w", n, m.To+remaining, err)
		}
		if progress != nil {
			_, _ = progress.Write(chunk)
		}
	}

	return nil
}

func (w Write) Len() int64 {
	return int64(len(w.Data))
}

func (w Write) String() string {
	return fmt.Sprintf("write %d bytes at %d", len(w.Data), w.At)
}

func (w Write) validate(size int64) error {
	switch {
	case w.At < 0:
		return fmt.Errorf("negative offset in %s", w)
	case w.At+int64(len(w.Data)) > size:
		return fmt.Errorf("%s would write past end of file (%d)", w, size)
	}

	return nil
}

func (w Write) apply(f File, _ []byte, progress io.Writer) error {
	if _, err := f.WriteAt(w.Data, w.At); err != nil {
		return err
	}
	if progress != nil {
		_, _ = progress.Write(w.Data)
	}

	return nil
}
