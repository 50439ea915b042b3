package store

import (
	"context"

	"github.com/patrickmn/go-cache"
)

// MemoryKV keeps values in process memory only. Values are copied in and out.
type MemoryKV struct {
	cache *cache.Cache
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{cache: cache.New(cache.NoExpiration, 0)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	if x, found := m.cache.Get(key); found {
		return append([]byte(nil), x.([]byte)...), nil
	}
	return nil, nil
}

func (m *MemoryKV) Put(_ context.Context, key string, value []byte) error {
	m.cache.Set(key, append([]byte(nil), value...), cache.NoExpiration)
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}

func (m *MemoryKV) Close() error {
	m.cache.Flush()
	return nil
}
