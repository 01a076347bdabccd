package s3reader

import (
	"fmt"
	"strings"
)

// ParseURI parses S3 URIs in format s3://bucket/key.
//
// Both bucket and key must be non-empty.
func ParseURI(text string) (bucket, key string, err error) {
	if !strings.HasPrefix(text, "s3://") {
		return "", "", fmt.Errorf("text does not start with s3://")
	}

	bucket, key, _ = strings.Cut(strings.TrimPrefix(text, "s3://"), "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("text is not in format s3://bucket/key: %s", text)
	}

	return
}

// IsURI returns true if text looks like an S3 URI.
func IsURI(text string) bool {
	return strings.HasPrefix(text, "s3://")
}
