package photos

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

// GCSBlobStore implements BlobStore on a Cloud Storage bucket.
type GCSBlobStore struct {
	bucket *storage.BucketHandle
	name   string
}

// NewGCSBlobStore wraps a bucket handle. name is the bucket name used to
// build public object URLs.
func NewGCSBlobStore(bucket *storage.BucketHandle, name string) (*GCSBlobStore, error) {
	if bucket == nil {
		return nil, fmt.Errorf("photos: bucket handle required")
	}
	if name == "" {
		return nil, fmt.Errorf("photos: bucket name required")
	}
	return &GCSBlobStore{bucket: bucket, name: name}, nil
}

func (s *GCSBlobStore) Upload(ctx context.Context, path, contentType string, data []byte) (string, error) {
	writer := s.bucket.Object(path).NewWriter(ctx)
	writer.ContentType = contentType
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("photos: upload %q: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("photos: upload %q: %w", path, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.name, path), nil
}

func (s *GCSBlobStore) Delete(ctx context.Context, path string) error {
	if err := s.bucket.Object(path).Delete(ctx); err != nil {
		return fmt.Errorf("photos: delete %q: %w", path, err)
	}
	return nil
}
