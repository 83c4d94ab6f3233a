package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
)

// ReadThrough реализует cache-aside для всех читающих операций.
// Конкурентные промахи по одному ключу не сериализуются: чтения из БД идемпотентны.
type ReadThrough struct {
	store      Store
	logger     logger.Logger
	defaultTTL time.Duration
}

func NewReadThrough(store Store, logger logger.Logger, defaultTTL time.Duration) *ReadThrough {
	return &ReadThrough{
		store:      store,
		logger:     logger,
		defaultTTL: defaultTTL,
	}
}

// DefaultTTL возвращает TTL по умолчанию для фиксированных ключей.
func (r *ReadThrough) DefaultTTL() time.Duration {
	return r.defaultTTL
}

// GetOrCompute возвращает значение из кэша, а при промахе вычисляет его через compute и кладёт в кэш.
// Ошибка чтения кэша считается промахом, ошибка записи логируется. Ошибки compute не кэшируются.
func GetOrCompute[T any](ctx context.Context, r *ReadThrough, key string, ttl time.Duration,
	compute func(ctx context.Context) (T, error)) (T, error) {
	const op = "cache.GetOrCompute"

	if value, ok := lookup[T](ctx, r, key); ok {
		return value, nil
	}

	value, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warnf("Failed to marshal value for cache (key: %s): %v", key, e.Wrap(op, err))
		return value, nil
	}

	if err := r.store.Set(ctx, key, data, ttl); err != nil {
		r.logger.Warnf("Failed to cache value (key: %s): %v", key, e.Wrap(op, err))
	}

	return value, nil
}

func lookup[T any](ctx context.Context, r *ReadThrough, key string) (T, bool) {
	const op = "cache.lookup"
	var value T

	data, err := r.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, e.ErrCacheMiss) {
			r.logger.Warnf("Cache GET failed, falling back to store (key: %s): %v", key, e.Wrap(op, err))
		}
		return value, false
	}

	if err := json.Unmarshal(data, &value); err != nil {
		r.logger.Warnf("Cache unmarshal failed (key: %s): %v", key, e.Wrap(op, err))
		return value, false
	}

	return value, true
}
