package store

import (
	"context"
	"fmt"
)

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// ValidBackend reports whether OpenKV knows the backend name.
func ValidBackend(name string) bool {
	switch name {
	case BackendSQLite, BackendMemory, BackendRedis:
		return true
	}
	return false
}

type Options struct {
	Backend       string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// OpenKV builds the backend named by opts.Backend.
func OpenKV(ctx context.Context, opts Options) (KV, error) {
	switch opts.Backend {
	case BackendSQLite, "":
		return NewSQLiteKV(opts.DatabaseURL)
	case BackendMemory:
		return NewMemoryKV(), nil
	case BackendRedis:
		return NewRedisKV(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB, opts.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", opts.Backend)
	}
}
