package cache

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
)

// Coordinator удаляет ключи, которые стали устаревшими после мутации.
// Ошибки удаления логируются и поглощаются: устаревание ограничено TTL.
type Coordinator struct {
	store  Store
	logger logger.Logger
}

func NewCoordinator(store Store, logger logger.Logger) *Coordinator {
	return &Coordinator{
		store:  store,
		logger: logger,
	}
}

// Invalidate синхронно удаляет ключи Scope. Вызывается после успешной записи в БД.
func (c *Coordinator) Invalidate(ctx context.Context, scope Scope) {
	const op = "Coordinator.Invalidate"

	// запись уже зафиксирована, отмена запроса не должна оставлять кэш устаревшим
	ctx = context.WithoutCancel(ctx)

	if keys := scope.Keys(); len(keys) > 0 {
		if err := c.store.Delete(ctx, keys...); err != nil {
			c.logger.Warnf("Failed to delete cache keys %v: %v", keys, e.Wrap(op, err))
		}
	}

	for _, prefix := range scope.Prefixes() {
		if err := c.store.DeleteByPrefix(ctx, prefix); err != nil {
			c.logger.Warnf("Failed to delete cache prefix %s: %v", prefix, e.Wrap(op, err))
		}
	}
}
