package utils

import (
	"sync"
	"time"
)

// cacheItem 内部结构，包含值和过期时间
type cacheItem[V any] struct {
	value      V
	expiration time.Time
}

// TTLCache 进程内缓存，TTL 由构造方注入
// ttl <= 0 表示永不过期
type TTLCache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]cacheItem[V]
	ttl   time.Duration
	now   func() time.Time
}

// NewTTLCache 创建缓存
func NewTTLCache[K comparable, V any](ttl time.Duration) *TTLCache[K, V] {
	return &TTLCache[K, V]{
		items: make(map[K]cacheItem[V]),
		ttl:   ttl,
		now:   time.Now,
	}
}

// SetClock 替换时钟（测试用）
func (c *TTLCache[K, V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Set 写入缓存
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL 按指定 TTL 写入
func (c *TTLCache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := cacheItem[V]{value: value}
	if ttl > 0 {
		item.expiration = c.now().Add(ttl)
	}
	c.items[key] = item
}

// Get 获取缓存并验证是否过期
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	item, ok := c.items[key]
	now := c.now()
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if !item.expiration.IsZero() && now.After(item.expiration) {
		c.deleteExpired(key)
		return zero, false
	}
	return item.value, true
}

// deleteExpired 懒删除；持写锁后重新检查，读锁释放后写入的新值不受影响
func (c *TTLCache[K, V]) deleteExpired(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if item, ok := c.items[key]; ok && !item.expiration.IsZero() && c.now().After(item.expiration) {
		delete(c.items, key)
	}
}

// Delete 删除缓存
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Clear 清空
func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	c.items = make(map[K]cacheItem[V])
	c.mu.Unlock()
}

// Len 当前条目数（含未清理的过期项）
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
