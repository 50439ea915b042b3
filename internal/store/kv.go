package store

import "context"

// KV is the durable key/value medium behind the record store. Get returns
// (nil, nil) for an absent key and Delete of an absent key is not an error.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
