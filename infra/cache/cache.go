package cache

import (
	"context"
	"time"
)

// Cache 接入去重使用的键值缓存。
type Cache interface {
	// SetNX 键不存在时写入并返回 true，已存在返回 false。expiration 为 0 表示永不过期
	SetNX(ctx context.Context, key string, value string, expiration time.Duration) (bool, error)

	Del(ctx context.Context, keys ...string) error

	Close() error
}
