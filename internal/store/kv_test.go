package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()
	sqliteKV, err := NewSQLiteKV(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteKV.Close() })

	out := map[string]KV{
		"sqlite": sqliteKV,
		"memory": NewMemoryKV(),
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisKV, err := NewRedisKV(context.Background(), addr, "", 0, "test:"+uuid.NewString()+":")
		require.NoError(t, err)
		t.Cleanup(func() { _ = redisKV.Close() })
		out["redis"] = redisKV
	}
	return out
}

func TestKV_GetAbsentReturnsNilNil(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			v, err := kv.Get(context.Background(), "absent")
			require.NoError(t, err)
			assert.Nil(t, v)
		})
	}
}

func TestKV_PutOverwrites(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Put(ctx, "k", []byte("old")))
			require.NoError(t, kv.Put(ctx, "k", []byte("new")))

			v, err := kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("new"), v)
		})
	}
}

func TestKV_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Put(ctx, "k", []byte{0x01}))
			require.NoError(t, kv.Delete(ctx, "k"))
			require.NoError(t, kv.Delete(ctx, "k"))

			v, err := kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.Nil(t, v)
		})
	}
}

func TestMemoryKV_CopiesValues(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	in := []byte("abc")
	require.NoError(t, kv.Put(ctx, "k", in))
	in[0] = 'z'

	out, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), out)

	out[1] = 'z'
	again, _ := kv.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
}

func TestValidBackend(t *testing.T) {
	for _, name := range []string{BackendSQLite, BackendMemory, BackendRedis} {
		assert.True(t, ValidBackend(name), name)
	}
	assert.False(t, ValidBackend("etcd"))
	assert.False(t, ValidBackend(""))
}

func TestOpenKV_UnknownBackend(t *testing.T) {
	_, err := OpenKV(context.Background(), Options{Backend: "etcd"})
	require.Error(t, err)
}

func TestOpenKV_Memory(t *testing.T) {
	kv, err := OpenKV(context.Background(), Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryKV{}, kv)
}
