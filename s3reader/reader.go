// Package s3reader implements io.ReaderAt over an S3 object using ranged GetObject.
package s3reader

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client abstracts the APIs that are needed to implement Reader.
type Client interface {
	GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Options customises New.
type Options struct {
	// ModifyGetObjectInput can be used to modify the GetObject input parameters such as adding ExpectedBucketOwner.
	//
	// Its return value will be used to make the GetObject call.
	ModifyGetObjectInput func(*s3.GetObjectInput) *s3.GetObjectInput

	// ModifyHeadObjectInput can be used to modify the HeadObject input parameters such as adding
	// ExpectedBucketOwner.
	//
	// Its return value will be used to make the HeadObject call.
	ModifyHeadObjectInput func(*s3.HeadObjectInput) *s3.HeadObjectInput
}

// Reader is a read-only view of an S3 object.
//
// Every ReadAt is a single ranged GetObject call made with the context given to New, so Reader is best used for the
// handful of small reads needed to locate and read a payload.
type Reader struct {
	ctx                  context.Context
	client               Client
	bucket, key          string
	size                 int64
	modifyGetObjectInput func(*s3.GetObjectInput) *s3.GetObjectInput
}

var _ io.ReaderAt = (*Reader)(nil)

// New returns a Reader for the given bucket and key.
//
// The client is used to determine the size of the object.
func New(ctx context.Context, client Client, bucket, key string, optFns ...func(*Options)) (*Reader, error) {
	opts := &Options{
		ModifyGetObjectInput: func(input *s3.GetObjectInput) *s3.GetObjectInput {
			return input
		},
		ModifyHeadObjectInput: func(input *s3.HeadObjectInput) *s3.HeadObjectInput {
			return input
		},
	}
	for _, fn := range optFns {
		fn(opts)
	}

	headObjectOutput, err := client.HeadObject(ctx, opts.ModifyHeadObjectInput(&s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}))
	if err != nil {
		return nil, fmt.Errorf("determine file size error: %w", err)
	}

	return &Reader{
		ctx:                  ctx,
		client:               client,
		bucket:               bucket,
		key:                  key,
		size:                 aws.ToInt64(headObjectOutput.ContentLength),
		modifyGetObjectInput: opts.ModifyGetObjectInput,
	}, nil
}

// Size returns the size of the object as reported by HeadObject.
func (r *Reader) Size() int64 {
	return r.size
}

// ReadAt reads len(p) bytes at offset off.
//
// The range is clamped to the size of the object; a read that is cut short returns io.EOF.
func (r *Reader) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset: %d", off)
	}
	if off >= r.size {
		return 0, io.EOF
	}

	m := min(int64(len(p)), r.size-off)
	if m == 0 {
		return 0, nil
	}

	getObjectOutput, err := r.client.GetObject(r.ctx, r.modifyGetObjectInput(&s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, off+m-1)),
	}))
	if err != nil {
		return 0, err
	}

	n, err = io.ReadFull(getObjectOutput.Body, p[:m])
	_ = getObjectOutput.Body.Close()
	switch {
	case err == io.ErrUnexpectedEOF:
		return n, io.EOF
	case err != nil:
		return n, err
	case int64(len(p)) > m:
		return n, io.EOF
	}

	return n, nil
}
