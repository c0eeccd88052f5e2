package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpires(t *testing.T) {
	cache, err := NewTTLCache(4)
	require.NoError(t, err)

	cache.Set("key", "value", 50*time.Millisecond)
	assert.Equal(t, "value", cache.Get("key"))

	time.Sleep(80 * time.Millisecond)
	assert.Nil(t, cache.Get("key"))
}

func TestTTLCacheSetUntil(t *testing.T) {
	cache, err := NewTTLCache(4)
	require.NoError(t, err)

	cache.SetUntil("past", "value", time.Now().Add(-time.Second))
	assert.Nil(t, cache.Get("past"))

	cache.SetUntil("future", "value", time.Now().Add(time.Hour))
	assert.Equal(t, "value", cache.Get("future"))
}

func TestTTLCacheDelete(t *testing.T) {
	cache, err := NewTTLCache(4)
	require.NoError(t, err)

	cache.Set("key", "value", time.Hour)
	cache.Delete("key")
	assert.Nil(t, cache.Get("key"))
}

func TestRandomCode(t *testing.T) {
	code, err := RandomCode(8)
	require.NoError(t, err)
	assert.Len(t, code, 8)

	for _, r := range code {
		assert.Contains(t, codeAlphabet, string(r))
	}

	// 衝突しないことの簡易確認
	other, err := RandomCode(8)
	require.NoError(t, err)
	assert.NotEqual(t, code, other)
}
