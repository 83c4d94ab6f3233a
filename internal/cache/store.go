package cache

import (
	"context"
	"time"
)

// Store описывает key/value хранилище с TTL и удалением по префиксу.
// Get возвращает e.ErrCacheMiss, если ключ отсутствует.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}
