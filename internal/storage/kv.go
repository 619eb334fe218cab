// Package storage is the only code that touches durable state. It exposes a
// small key/value contract; callers own serialization.
package storage

import (
	"context"
	"errors"
)

// ErrClosed is returned by a KV used after Close.
var ErrClosed = errors.New("storage closed")

// KV is a durable byte store. Save is a full overwrite: the last write wins.
type KV interface {
	// Load returns ok == false when key has never been saved (or was deleted).
	Load(ctx context.Context, key string) (value []byte, ok bool, err error)
	Save(ctx context.Context, key string, value []byte) error
	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
