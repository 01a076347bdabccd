package payload

import (
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Codec compresses payloads before they are hidden and decompresses them after they are revealed.
type Codec interface {
	// NewDecoder creates a decoder to decompress contents from the given io.Reader.
	NewDecoder(src io.Reader) (io.ReadCloser, error)
	// NewEncoder creates an encoder to compress contents into the given io.Writer.
	NewEncoder(dst io.Writer) (io.WriteCloser, error)
	// Name is the name that ParseCodec accepts for this codec.
	Name() string
}

// ParseCodec returns a Codec from the given algorithm name.
//
// Empty string and "none" return a nil Codec meaning the payload is used as-is.
func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return nil, nil
	case "xz":
		return xzCodec{}, nil
	case "zstd":
		return zstdCodec{}, nil
	case "gzip", "gz":
		return gzipCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown compression algorithm: %q", name)
	}
}

type xzCodec struct{}

func (xzCodec) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	r, err := xz.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("create xz reader error: %w", err)
	}

	return io.NopCloser(r), nil
}

func (xzCodec) NewEncoder(dst io.Writer) (io.WriteCloser, error) {
	return xz.NewWriter(dst)
}

func (xzCodec) Name() string {
	return "xz"
}

type zstdCodec struct{}

func (zstdCodec) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("create zstd reader error: %w", err)
	}

	return &zstdDecoder{dec}, nil
}

type zstdDecoder struct {
	*zstd.Decoder
}

func (d *zstdDecoder) Close() error {
	d.Decoder.Close()
	return nil
}

func (zstdCodec) NewEncoder(dst io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
}

func (zstdCodec) Name() string {
	return "zstd"
}

type gzipCodec struct{}

func (gzipCodec) NewDecoder(src io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(src)
}

func (gzipCodec) NewEncoder(dst io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(dst, gzip.BestCompression)
}

func (gzipCodec) Name() string {
	return "gzip"
}
