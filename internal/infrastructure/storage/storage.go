// Package storage holds the byte stores behind medical file uploads: a
// local directory and an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ------------------------------------------------------------------
// Sentinel errors
// ------------------------------------------------------------------

var (
	ErrObjectNotFound   = errors.New("stored object not found")
	ErrStoreUnavailable = errors.New("storage backend unavailable")
)

// ObjectStore is a remote bucket addressed by object key.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// PresignGet returns a URL valid for expiry that downloads key under
	// downloadName.
	PresignGet(ctx context.Context, key, downloadName string, expiry time.Duration) (string, error)
}
