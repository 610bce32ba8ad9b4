// Package storage wraps the S3-compatible object store behind an interface
// so every component receives an injected client instead of a shared global.
package storage

import (
	"context"
	"time"
)

// Object describes one stored object as returned by List.
type Object struct {
	Key          string
	LastModified time.Time
	Size         int64
}

// ObjectStore is the set of object storage operations the service needs.
type ObjectStore interface {
	// List returns every object under prefix, paginating until exhaustion.
	List(ctx context.Context, prefix string) ([]Object, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// PresignGet issues a time-limited GET URL for one object.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}
