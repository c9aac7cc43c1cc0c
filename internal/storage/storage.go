package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("object not found")

type Storage interface {
	// Put stores data with the given key and returns the storage URL
	Put(ctx context.Context, key string, data []byte) (string, error)
	// Get retrieves data from the given storage URL
	Get(ctx context.Context, url string) ([]byte, error)
	// Delete removes the object at the given storage URL
	Delete(ctx context.Context, url string) error
	// Locate returns the storage URL of the object stored under key
	Locate(key string) string
}

// Pruner is implemented by backends that can expire old objects themselves.
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int, error)
}
