package storage

import "context"

// ObjectStorage captures the minimal S3-compatible operations the export
// archive needs.
type ObjectStorage interface {
	UploadObject(ctx context.Context, key string, data []byte, contentType string) error
}
