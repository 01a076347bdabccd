package zipsten

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/nguyengg/zipsten/region"
	"github.com/nguyengg/zipsten/stego"
)

// codec computes the changes to make to the archive described by s.
type codec func(src io.ReaderAt, s stego.Snapshot) (stego.Result, error)

// transform parses the named archive, runs fn, then applies the resulting plan to the archive or to its copy.
//
// With Options.Lock, the lock on the archive is held from before the parse until the plan has been applied. Nothing is
// written until fn has succeeded and its plan has been validated against the archive's size.
func transform(ctx context.Context, name string, mode Mode, opts *Options, fn codec) (res stego.Result, err error) {
	if opts.Lock {
		// the lock file is left behind; removing it would let another process lock a new inode.
		fileLock := flock.New(name + ".lock")
		locked, err := fileLock.TryLock()
		if err != nil {
			return res, fmt.Errorf("acquire lock error: %w", err)
		}
		if !locked {
			return res, fmt.Errorf("%w: %s", ErrLocked, name)
		}

		defer fileLock.Unlock()
	}

	src, size, err := openFile(name)
	if err != nil {
		return res, err
	}
	defer src.Close()

	s, err := stego.Read(src, size, mode)
	if err != nil {
		return res, err
	}

	if res, err = fn(src, s); err != nil {
		return res, err
	}
	if err = res.Plan.Validate(size); err != nil {
		return res, err
	}

	target := name
	if opts.Output != "" {
		if target, err = stage(ctx, src, size, opts); err != nil {
			return res, err
		}
		defer func() {
			if err != nil {
				_ = os.Remove(target)
			}
		}()
	}

	if err = apply(ctx, target, res.Plan, opts); err != nil {
		return res, err
	}

	if target != name {
		if err = os.Rename(target, opts.Output); err != nil {
			return res, fmt.Errorf("rename output error: %w", err)
		}
	}

	return res, nil
}

// apply opens a second, read-write handle to the named file and applies p to it.
func apply(ctx context.Context, name string, p region.Plan, opts *Options) error {
	f, err := os.OpenFile(name, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("open file for writing error: %w", err)
	}

	if err = p.Apply(ctx, f, func(o *region.Options) {
		o.ChunkSize = opts.ChunkSize
		o.Progress = opts.Progress
	}); err != nil {
		_ = f.Close()
		return err
	}

	if err = f.Close(); err != nil {
		return fmt.Errorf("close file error: %w", err)
	}

	return nil
}

// stage duplicates src into a new file next to opts.Output and returns its name.
func stage(ctx context.Context, src io.ReaderAt, size int64, opts *Options) (name string, err error) {
	name = fmt.Sprintf("%s.%s", opts.Output, uuid.New().String()[:6])

	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
	if err != nil {
		return "", fmt.Errorf("create output error: %w", err)
	}

	chunkSize := int64(opts.ChunkSize)
	if chunkSize <= 0 {
		chunkSize = region.DefaultChunkSize
	}
	buf := make([]byte, min(chunkSize, max(size, 1)))

	w := io.Writer(f)
	if opts.Progress != nil {
		w = io.MultiWriter(f, opts.Progress)
	}

	written, err := region.Copy(ctx, w, io.NewSectionReader(src, 0, size), size, buf)
	if err == nil && written != size {
		err = fmt.Errorf("short copy: expected %d bytes, copied %d", size, written)
	}
	if err = errors.Join(err, f.Close()); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("copy to output error: %w", err)
	}

	return name, nil
}

// openFile opens the named file for reading and returns its size.
func openFile(name string) (*os.File, int64, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, 0, fmt.Errorf("open file error: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat file error: %w", err)
	}

	return f, fi.Size(), nil
}
