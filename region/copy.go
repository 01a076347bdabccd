package region

import (
	"context"
	"fmt"
	"io"
)

// DefaultChunkSize is the default size of the buffer used by Copy and by Plan.Apply.
const DefaultChunkSize = 16 * 1024 * 1024

// Copy copies from src to dst chunk by chunk until either src is exhausted or limit bytes have been copied.
//
// A negative limit means no limit. If buf is nil, a new buffer of DefaultChunkSize is created; each read asks for at
// most len(buf) bytes. Unlike io.CopyBuffer, it does not matter if src implements [io.WriterTo] or dst implements
// [io.ReaderFrom] because those interfaces do not support context.
//
// The context is checked for done status after every write. The only side effect besides the writes is advancing src
// and dst. Errors are returned as-is without retry.
func Copy(ctx context.Context, dst io.Writer, src io.Reader, limit int64, buf []byte) (written int64, err error) {
	if buf == nil {
		buf = make([]byte, DefaultChunkSize)
	}

	var (
		nr, nw int
		ew     error
	)
	for limit < 0 || written < limit {
		p := buf
		if limit >= 0 && int64(len(p)) > limit-written {
			p = p[:limit-written]
		}

		nr, err = src.Read(p)

		if nr > 0 {
			switch nw, ew = dst.Write(p[0:nr]); {
			case ew != nil:
				return written + int64(nw), ew
			case nw < nr:
				return written + int64(nw), io.ErrShortWrite
			case nw != nr:
				return written + int64(nw), fmt.Errorf("invalid write: expected to write %d bytes, wrote %d bytes instead", nr, nw)
			}

			written += int64(nr)

			select {
			case <-ctx.Done():
				return written, ctx.Err()
			default:
			}
		}

		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}

	return written, nil
}
