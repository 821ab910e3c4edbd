// Package persist defines the storage port used by the client-state stores
// and the versioned envelope every persisted snapshot is wrapped in.
package persist

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by Storage.Get when no value is stored under a key.
var ErrNotFound = errors.New("key not found")

// Storage is a durable key-value blob store.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Reader reads snapshots by key.
type Reader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// Sink receives a store snapshot after every mutation. Implementations must
// return immediately and must not report failures to the caller.
type Sink interface {
	Persist(key string, data []byte)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(key string, data []byte)

// Persist implements Sink.
func (f SinkFunc) Persist(key string, data []byte) { f(key, data) }

// Discard is a Sink that drops every snapshot.
var Discard Sink = SinkFunc(func(string, []byte) {})
