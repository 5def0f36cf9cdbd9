package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions("localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)

	opts, err = ParseOptions("redis://:secret@cache.internal:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)

	_, err = ParseOptions("  ")
	assert.Error(t, err)

	_, err = ParseOptions("redis://host:6379/notadb")
	assert.Error(t, err)
}

func TestInitRedis_Connects(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Cleanup(func() { SetClient(nil) })

	require.NoError(t, InitRedis(context.Background(), "redis://"+mr.Addr()))
	require.NotNil(t, GetClient())

	require.NoError(t, GetClient().Set(context.Background(), "ping", "pong", 0).Err())
	assert.True(t, mr.Exists("ping"))
}

func TestInitRedis_FailureDisablesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	t.Cleanup(func() { SetClient(nil) })

	assert.Error(t, InitRedis(context.Background(), addr))
	assert.Nil(t, GetClient())

	assert.Error(t, InitRedis(context.Background(), ""))
	assert.Nil(t, GetClient())
}
