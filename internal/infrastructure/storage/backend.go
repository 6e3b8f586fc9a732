// Package storage provides object storage backends for payload archival.
package storage

import (
	"context"
	"time"
)

// Backend is the object storage surface the service uses. Implementations
// must be safe for concurrent use.
type Backend interface {
	// EnsureBucket creates the bucket if it does not exist.
	// Call this during application startup.
	EnsureBucket(ctx context.Context) error

	// Upload writes an object
	Upload(ctx context.Context, key string, data []byte, contentType string) error

	// GenerateDownloadURL returns a presigned GET URL and its expiry
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)

	// ObjectExists reports whether an object is present
	ObjectExists(ctx context.Context, key string) (bool, error)

	// DeleteObject removes an object
	DeleteObject(ctx context.Context, key string) error
}
