package minio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/cfg"
	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/infrastructure"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/jitter"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/google/uuid"
)

const (
	cleanupAttempts = 3
	cleanupTimeout  = 30 * time.Second
)

// PhotoStorage управляет загрузкой и удалением фотографий товаров в MinIO.
type PhotoStorage struct {
	imageRepo   usecase.ImageRepository
	logger      logger.Logger
	shutdownCtx context.Context
	wg          sync.WaitGroup
	publicURL   string
	bucket      string
	uploadLimit int
	backoff     jitter.Backoff
}

func NewPhotoStorage(imageRepo usecase.ImageRepository, cfg *cfg.MinIOCfg, logger logger.Logger, shutdownCtx context.Context) *PhotoStorage {
	uploadLimit := cfg.UploadImagesLimit
	if uploadLimit <= 0 {
		uploadLimit = 1
	}

	return &PhotoStorage{
		imageRepo:   imageRepo,
		logger:      logger,
		shutdownCtx: shutdownCtx,
		publicURL:   strings.TrimRight(cfg.PublicURL, "/"),
		bucket:      cfg.BucketName,
		uploadLimit: uploadLimit,
		backoff:     jitter.Backoff{Base: time.Second, Max: 8 * time.Second, Factor: jitter.DefaultFactor},
	}
}

// UploadPhotos загружает фотографии параллельно с ограничением одновременных загрузок.
// Порядок результата совпадает с порядком изображений в запросе.
// При первой ошибке остальные загрузки отменяются, уже загруженные файлы удаляются в фоне.
func (p *PhotoStorage) UploadPhotos(ctx context.Context, req *usecase.UploadPhotosReq) ([]domain.Photo, error) {
	const op = "PhotoStorage.UploadPhotos"

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		firstErr error
		wg       sync.WaitGroup
	)
	keys := make([]string, len(req.Images))
	sem := make(chan struct{}, p.uploadLimit)

	for i, image := range req.Images {
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			key, err := p.upload(ctx, req.Folder, image)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			keys[i] = key
		}()
	}
	wg.Wait()

	if firstErr == nil && ctx.Err() != nil {
		firstErr = ctx.Err()
	}

	if firstErr != nil {
		uploaded := make([]string, 0, len(keys))
		for _, key := range keys {
			if key != "" {
				uploaded = append(uploaded, key)
			}
		}
		p.CleanupPhotos(uploaded)

		return nil, e.Wrap(op, firstErr)
	}

	photos := make([]domain.Photo, 0, len(keys))
	for _, key := range keys {
		photos = append(photos, domain.Photo{StorageID: key, URL: p.url(key)})
	}

	return photos, nil
}

// DeletePhotos синхронно удаляет фотографии и возвращает объединённую ошибку по неудачным ключам.
func (p *PhotoStorage) DeletePhotos(ctx context.Context, storageIDs []string) error {
	const op = "PhotoStorage.DeletePhotos"

	var errs []error
	for _, id := range storageIDs {
		if err := p.imageRepo.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", id, err))
		}
	}

	if len(errs) > 0 {
		return e.Wrap(op, errors.Join(errs...))
	}

	return nil
}

// CleanupPhotos запускает фоновое удаление фотографий с повторами.
func (p *PhotoStorage) CleanupPhotos(storageIDs []string) {
	if len(storageIDs) == 0 {
		return
	}

	p.wg.Add(1)
	go p.cleanup(storageIDs)
}

// WaitForCleanup ожидает завершения всех фоновых удалений с учётом таймаута завершения приложения.
func (p *PhotoStorage) WaitForCleanup(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("photo cleanup timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}

func (p *PhotoStorage) upload(ctx context.Context, folder string, image usecase.ProductImage) (string, error) {
	ext, err := infrastructure.ExtensionFromMIME(image.MimeType)
	if err != nil {
		return "", fmt.Errorf("photo %s: %w", image.Name, err)
	}

	id := uuid.NewString()
	objectKey := fmt.Sprintf("%s/%s.%s", folderName(folder), id, ext)

	key, err := p.imageRepo.Upload(ctx, domain.NewImage(id, objectKey, image.Data, image.Size, image.MimeType))
	if err != nil {
		return "", fmt.Errorf("upload %s failed: %w", image.Name, err)
	}

	return key, nil
}

// cleanup удаляет объекты с экспоненциальной задержкой и джиттером между попытками.
func (p *PhotoStorage) cleanup(keys []string) {
	defer p.wg.Done()
	const op = "PhotoStorage.cleanup"

	ctx, cancel := context.WithTimeout(p.shutdownCtx, cleanupTimeout)
	defer cancel()

	p.logger.Infof("%s: cleaning up %d photos", op, len(keys))

	for _, key := range keys {
		for attempt := 0; attempt < cleanupAttempts; attempt++ {
			err := p.imageRepo.Delete(ctx, key)
			if err == nil {
				break
			}

			if attempt == cleanupAttempts-1 {
				p.logger.Errorf(err, "%s: giving up on photo %s", op, key)
				break
			}

			select {
			case <-time.After(p.backoff.Delay(attempt)):
			case <-ctx.Done():
				p.logger.Warnf("%s: interrupted by shutdown, key=%s", op, key)
				return
			}
		}
	}
}

func (p *PhotoStorage) url(key string) string {
	return fmt.Sprintf("%s/%s/%s", p.publicURL, p.bucket, key)
}

// folderName превращает категорию в безопасный префикс ключа.
func folderName(folder string) string {
	folder = strings.Trim(strings.ToLower(strings.TrimSpace(folder)), "/")
	if folder == "" {
		return "misc"
	}

	return strings.ReplaceAll(folder, " ", "-")
}
