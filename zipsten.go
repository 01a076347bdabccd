// Package zipsten hides a payload inside a ZIP archive so that the archive stays readable by standard ZIP tools.
//
// Two modes are supported. Trailer mode places the payload and its 4-byte length right before the central directory.
// Extra mode appends a sub-record tagged 0x3333 to the extra field of the first central directory file header.
//
// Mutations happen in place unless Options.Output is given. An in-place mutation is not atomic: an I/O error part way
// through can leave the archive unreadable.
package zipsten

import (
	"context"
	"io"

	"github.com/nguyengg/zipsten/stego"
)

// Mode selects where the payload is hidden.
type Mode = stego.Mode

const (
	Trailer = stego.Trailer
	Extra   = stego.Extra
)

// ExtraTag is the extra field sub-record tag used by Extra mode.
const ExtraTag = stego.ExtraTag

// Options customises the transform drivers.
type Options struct {
	// Output if given is the path of a copy of the archive that receives the changes, leaving the original untouched.
	//
	// The copy is staged next to Output and renamed to Output only once every change has been applied.
	Output string

	// Remove indicates that reveal operations must also excise the payload.
	Remove bool

	// ChunkSize is the size of the buffer used to copy and move regions.
	//
	// By default, region.DefaultChunkSize is used.
	ChunkSize int

	// Lock if true holds an advisory lock on "<archive>.lock" from before the archive is parsed until every change has
	// been applied. The lock is always taken on the source archive, even when Output is given, and the lock file is
	// left in place afterwards.
	Lock bool

	// Progress if given receives every byte that is copied, moved, or written.
	Progress io.Writer
}

// Hide hides payload in the named archive using the given mode.
func Hide(ctx context.Context, name string, mode Mode, payload []byte, optFns ...func(*Options)) error {
	_, err := transform(ctx, name, mode, newOptions(optFns), func(_ io.ReaderAt, s stego.Snapshot) (stego.Result, error) {
		return mode.Insert(s, payload)
	})
	return err
}

// InsertTrailer is Hide in Trailer mode.
func InsertTrailer(ctx context.Context, name string, payload []byte, optFns ...func(*Options)) error {
	return Hide(ctx, name, Trailer, payload, optFns...)
}

// InsertExtra is Hide in Extra mode.
func InsertExtra(ctx context.Context, name string, payload []byte, optFns ...func(*Options)) error {
	return Hide(ctx, name, Extra, payload, optFns...)
}

// Reveal returns the payload hidden in the named archive using the given mode.
//
// Returns ErrNotFound if the archive carries no payload for that mode. A zero-length payload is returned as an empty
// non-nil slice. If Options.Remove is true, the payload is also excised from the archive, or from its copy if
// Options.Output is given.
func Reveal(ctx context.Context, name string, mode Mode, optFns ...func(*Options)) ([]byte, error) {
	opts := newOptions(optFns)
	if !opts.Remove {
		f, size, err := openFile(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		return RevealFrom(ctx, f, size, mode)
	}

	res, err := transform(ctx, name, mode, opts, mode.Reveal)
	return res.Payload, err
}

// RevealTrailer is Reveal in Trailer mode.
func RevealTrailer(ctx context.Context, name string, optFns ...func(*Options)) ([]byte, error) {
	return Reveal(ctx, name, Trailer, optFns...)
}

// RevealExtra is Reveal in Extra mode.
func RevealExtra(ctx context.Context, name string, optFns ...func(*Options)) ([]byte, error) {
	return Reveal(ctx, name, Extra, optFns...)
}

// RevealFrom returns the payload hidden in the archive of the given size read from src.
//
// src is never modified, so it may be any io.ReaderAt such as an S3 object reader.
func RevealFrom(ctx context.Context, src io.ReaderAt, size int64, mode Mode) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s, err := stego.Read(src, size, mode)
	if err != nil {
		return nil, err
	}

	res, err := mode.Reveal(src, s)
	return res.Payload, err
}

func newOptions(optFns []func(*Options)) *Options {
	opts := &Options{}
	for _, fn := range optFns {
		fn(opts)
	}
	return opts
}
