// Package storage provides the object storage sinks that hold snapshot images
// between process lifetimes.
package storage

import (
	"context"
	"errors"
)

// Common errors for storage operations.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrUploadFailed   = errors.New("upload failed")
	ErrDownloadFailed = errors.New("download failed")
	ErrDeleteFailed   = errors.New("delete failed")
)

// ObjectStorage abstracts the sink a snapshot image is written to.
// Implementations include the local filesystem, S3, and a SQLite blob table.
type ObjectStorage interface {
	// Put stores data under key, replacing any existing object atomically.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the object stored under key.
	// Returns ErrObjectNotFound if no object exists.
	Get(ctx context.Context, key string) ([]byte, error)

	// Exists checks if an object exists.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// ListObjects returns all keys under the given prefix in ascending order.
	ListObjects(ctx context.Context, prefix string) ([]string, error)

	// Close releases any resources held by the sink.
	Close() error
}
