// Package store defines the object-store boundary the rest of s4 talks to.
package store

import (
	"context"
	"time"
)

// Object is one remote object as returned by a listing.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Store is a flat key-value object store scoped to a single bucket.
// Every call blocks until the backend answers; errors are opaque messages.
type Store interface {
	// List returns every object whose key starts with prefix, recursively.
	List(ctx context.Context, prefix string) ([]Object, error)

	// Put uploads the local file at localPath under key.
	Put(ctx context.Context, localPath, key string) error

	// Get downloads key into localPath, replacing any existing file.
	Get(ctx context.Context, key, localPath string) error

	// Delete removes key.
	Delete(ctx context.Context, key string) error

	// Copy duplicates srcKey to dstKey inside the bucket.
	Copy(ctx context.Context, srcKey, dstKey string) error

	// Check verifies the bucket exists and is reachable.
	Check(ctx context.Context) error

	// Bucket returns the bucket (or container) name.
	Bucket() string
}
