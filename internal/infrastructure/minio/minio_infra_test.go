package minio

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/cfg"
	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/jitter"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImageRepo struct {
	mu         sync.Mutex
	objects    map[string]bool
	failUpload string
	failDelete int
	deletes    int
}

func newFakeImageRepo() *fakeImageRepo {
	return &fakeImageRepo{objects: map[string]bool{}}
}

func (f *fakeImageRepo) Upload(_ context.Context, image *domain.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpload != "" && strings.HasPrefix(string(image.Bytes), f.failUpload) {
		return "", errors.New("s3 unavailable")
	}
	f.objects[image.ObjectKey] = true
	return image.ObjectKey, nil
}

func (f *fakeImageRepo) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.failDelete > 0 {
		f.failDelete--
		return errors.New("s3 unavailable")
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeImageRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

func newTestStorage(repo usecase.ImageRepository) *PhotoStorage {
	s := NewPhotoStorage(repo, &cfg.MinIOCfg{
		BucketName:        "product-photos",
		PublicURL:         "http://localhost:9000/",
		UploadImagesLimit: 2,
	}, logger.Nop(), context.Background())
	s.backoff = jitter.Backoff{Base: time.Millisecond, Max: 5 * time.Millisecond}
	return s
}

func photo(data, mime string) usecase.ProductImage {
	return usecase.ProductImage{Data: []byte(data), MimeType: mime, Size: int64(len(data)), Name: data}
}

func TestUploadPhotosKeepsOrderAndBuildsURLs(t *testing.T) {
	repo := newFakeImageRepo()
	storage := newTestStorage(repo)

	photos, err := storage.UploadPhotos(context.Background(), &usecase.UploadPhotosReq{
		Folder: "Home Decor",
		Images: []usecase.ProductImage{photo("a", "image/jpeg"), photo("b", "image/png"), photo("c", "image/webp")},
	})
	require.NoError(t, err)
	require.Len(t, photos, 3)

	for i, ext := range []string{".jpg", ".png", ".webp"} {
		assert.True(t, strings.HasPrefix(photos[i].StorageID, "home-decor/"))
		assert.True(t, strings.HasSuffix(photos[i].StorageID, ext))
		assert.Equal(t, "http://localhost:9000/product-photos/"+photos[i].StorageID, photos[i].URL)
	}
	assert.Equal(t, 3, repo.count())
}

func TestUploadPhotosFailureCleansUp(t *testing.T) {
	repo := newFakeImageRepo()
	repo.failUpload = "bad"
	storage := newTestStorage(repo)

	_, err := storage.UploadPhotos(context.Background(), &usecase.UploadPhotosReq{
		Folder: "books",
		Images: []usecase.ProductImage{photo("a", "image/jpeg"), photo("bad", "image/jpeg"), photo("c", "image/jpeg")},
	})
	require.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, storage.WaitForCleanup(ctx))
	assert.Zero(t, repo.count())
}

func TestUploadPhotosUnsupportedMime(t *testing.T) {
	storage := newTestStorage(newFakeImageRepo())

	_, err := storage.UploadPhotos(context.Background(), &usecase.UploadPhotosReq{
		Folder: "books",
		Images: []usecase.ProductImage{photo("a", "application/pdf")},
	})
	assert.ErrorIs(t, err, e.ErrUnsupportedMediaType)
}

func TestCleanupPhotosRetries(t *testing.T) {
	repo := newFakeImageRepo()
	repo.objects["books/1.jpg"] = true
	repo.failDelete = 2
	storage := newTestStorage(repo)

	storage.CleanupPhotos([]string{"books/1.jpg"})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, storage.WaitForCleanup(ctx))

	assert.Zero(t, repo.count())
	assert.Equal(t, 3, repo.deletes)
}

func TestDeletePhotosJoinsErrors(t *testing.T) {
	repo := newFakeImageRepo()
	repo.objects["a"] = true
	repo.objects["b"] = true
	repo.failDelete = 1
	storage := newTestStorage(repo)

	err := storage.DeletePhotos(context.Background(), []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete a")
	assert.Equal(t, 1, repo.count())
}
