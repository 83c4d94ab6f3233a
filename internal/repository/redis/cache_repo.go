package redis

import (
	"context"
	"errors"
	"time"

	"github.com/DRSN-tech/storefront-backend/pkg/clients"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// размер страницы SCAN при удалении по префиксу
const scanBatch = 100

// CacheRepo реализует cache.Store поверх Redis.
type CacheRepo struct {
	client *clients.RedisClient
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		logger: logger,
	}
}

// Get возвращает значение ключа или e.ErrCacheMiss, если ключа нет
func (c *CacheRepo) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, e.ErrCacheMiss
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return data, nil
}

// Set записывает значение с TTL. Нулевой TTL означает ключ без срока жизни.
func (c *CacheRepo) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Client.Set(ctx, key, value, ttl).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Delete удаляет ключи одной командой DEL. Отсутствующие ключи не считаются ошибкой.
func (c *CacheRepo) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Client.Del(ctx, keys...).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// DeleteByPrefix удаляет все ключи с префиксом, обходя пространство через SCAN, чтобы не блокировать Redis.
func (c *CacheRepo) DeleteByPrefix(ctx context.Context, prefix string) error {
	var (
		cursor  uint64
		deleted int
	)

	for {
		keys, next, err := c.client.Client.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}

		if len(keys) > 0 {
			if err := c.client.Client.Unlink(ctx, keys...).Err(); err != nil {
				return e.Wrap(whereami.WhereAmI(), err)
			}
			deleted += len(keys)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	c.logger.Debugf("Deleted %d cache keys with prefix %s", deleted, prefix)

	return nil
}
