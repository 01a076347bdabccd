package config

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewS3Client returns an S3 client using the profile from AWSProfile.
//
// The client is cached so subsequent calls return the same instance.
func (l *Loader) NewS3Client(ctx context.Context, optFns ...func(*s3.Options)) (*s3.Client, error) {
	if c, ok := l.s3clientCache.Load("s3"); ok {
		return c.(*s3.Client), nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, func(opts *config.LoadOptions) error {
		opts.SharedConfigProfile = l.AWSProfile()
		return nil
	})
	if err != nil {
		return nil, err
	}

	c := s3.NewFromConfig(cfg, optFns...)
	l.s3clientCache.Store("s3", c)
	return c, nil
}
