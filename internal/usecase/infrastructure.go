package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/cache"
	"github.com/DRSN-tech/storefront-backend/internal/domain"
)

// PhotoStorage загружает и удаляет фотографии товаров.
type PhotoStorage interface {
	UploadPhotos(ctx context.Context, req *UploadPhotosReq) ([]domain.Photo, error)
	DeletePhotos(ctx context.Context, storageIDs []string) error
	// CleanupPhotos удаляет фото в фоне, с повторами.
	CleanupPhotos(storageIDs []string)
}

// MessageProducer публикует пачку сообщений. При частичном отказе ошибка
// может содержать результат по каждому сообщению (kafka.WriteErrors).
type MessageProducer interface {
	WriteRawMessages(ctx context.Context, reqs []*WriteRawMessageReq) error
}

// Invalidator удаляет устаревшие ключи кэша после мутации.
type Invalidator interface {
	Invalidate(ctx context.Context, scope cache.Scope)
}
