package storage

import (
	"context"
	"io"
)

// ObjectStore is the archive backend for submitted report payloads. Archival
// is best-effort; callers must tolerate a nil store.
type ObjectStore interface {
	CreateBucket(ctx context.Context, bucket string) error

	PutObject(ctx context.Context, bucket, key string, data io.Reader) error

	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}
