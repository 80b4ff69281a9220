// Package kvstore 字符串键 -> JSON 值 的持久化存储。
// Put 必须是原子的：读方要么看到旧值，要么看到完整的新值。
// 不做跨进程加锁，同一个键并发写入时后写入者覆盖前者。
package kvstore

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound 键不存在
var ErrNotFound = errors.New("kvstore: key not found")

// Store 键值存储接口
type Store interface {
	// Get 读取并反序列化到 v，键不存在返回 ErrNotFound
	Get(ctx context.Context, key string, v interface{}) error
	// Put 序列化并原子写入
	Put(ctx context.Context, key string, v interface{}) error
	Delete(ctx context.Context, key string) error
	// Keys 按前缀列出键
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Key 用冒号拼接键
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

func validKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("kvstore: empty key")
	}
	return nil
}
