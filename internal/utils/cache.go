package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheItem はキャッシュデータと有効期限のラッパー
type cacheItem struct {
	data      interface{}
	expiresAt time.Time
}

// TTLCache は TTL 付きの小さな LRU キャッシュ
type TTLCache struct {
	lruCache *lru.Cache[string, cacheItem]
}

// NewTTLCache は指定容量の TTL キャッシュを作成する
func NewTTLCache(size int) (*TTLCache, error) {
	l, err := lru.New[string, cacheItem](size)
	if err != nil {
		return nil, err
	}
	return &TTLCache{lruCache: l}, nil
}

// SetUntil は期限を指定してキャッシュする
func (c *TTLCache) SetUntil(key string, data interface{}, expiresAt time.Time) {
	c.lruCache.Add(key, cacheItem{data: data, expiresAt: expiresAt})
}

// Set は TTL を指定してキャッシュする
func (c *TTLCache) Set(key string, data interface{}, ttl time.Duration) {
	c.SetUntil(key, data, time.Now().Add(ttl))
}

// Get は存在しない・期限切れの場合 nil を返す
func (c *TTLCache) Get(key string) interface{} {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil
	}
	if time.Now().After(val.expiresAt) {
		c.lruCache.Remove(key)
		return nil
	}
	return val.data
}

// Delete は指定キーを削除する
func (c *TTLCache) Delete(key string) {
	c.lruCache.Remove(key)
}
