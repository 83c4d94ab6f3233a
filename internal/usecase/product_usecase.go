package usecase

import (
	"context"
	"math"
	"strings"

	"github.com/DRSN-tech/storefront-backend/internal/cache"
	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
)

const (
	latestProductsLimit = 5
	minPhotos           = 1
	maxPhotos           = 5
)

// ProductUseCase реализует чтение каталога через кэш и мутации товаров с инвалидацией.
type ProductUseCase struct {
	productRepo    ProductRepository
	photos         PhotoStorage
	txManager      TxManager
	readThrough    *cache.ReadThrough
	invalidator    Invalidator
	logger         logger.Logger
	productPerPage int
}

func NewProductUC(
	productRepo ProductRepository,
	photos PhotoStorage,
	txManager TxManager,
	readThrough *cache.ReadThrough,
	invalidator Invalidator,
	logger logger.Logger,
	productPerPage int,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo:    productRepo,
		photos:         photos,
		txManager:      txManager,
		readThrough:    readThrough,
		invalidator:    invalidator,
		logger:         logger,
		productPerPage: productPerPage,
	}
}

// GetLatestProducts возвращает 5 последних созданных товаров.
func (p *ProductUseCase) GetLatestProducts(ctx context.Context) ([]domain.Product, error) {
	return cache.GetOrCompute(ctx, p.readThrough, cache.KeyLatestProducts, p.readThrough.DefaultTTL(),
		func(ctx context.Context) ([]domain.Product, error) {
			return p.productRepo.Latest(ctx, latestProductsLimit)
		})
}

// GetCategories возвращает уникальные категории товаров.
func (p *ProductUseCase) GetCategories(ctx context.Context) ([]string, error) {
	return cache.GetOrCompute(ctx, p.readThrough, cache.KeyCategories, p.readThrough.DefaultTTL(), p.productRepo.Categories)
}

// GetAdminProducts возвращает все товары.
func (p *ProductUseCase) GetAdminProducts(ctx context.Context) ([]domain.Product, error) {
	return cache.GetOrCompute(ctx, p.readThrough, cache.KeyAllProducts, p.readThrough.DefaultTTL(), p.productRepo.All)
}

func (p *ProductUseCase) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	const op = "ProductUseCase.GetProduct"

	if strings.TrimSpace(id) == "" {
		return nil, e.Wrap(op, e.ErrInvalidID)
	}

	product, err := cache.GetOrCompute(ctx, p.readThrough, cache.ProductKey(id), p.readThrough.DefaultTTL(),
		func(ctx context.Context) (*domain.Product, error) {
			return p.productRepo.GetByID(ctx, id)
		})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return product, nil
}

// SearchProducts выполняет поиск с фильтрами и пагинацией. Выдача кэшируется на короткий фиксированный TTL.
func (p *ProductUseCase) SearchProducts(ctx context.Context, req *SearchProductsReq) (*SearchProductsRes, error) {
	const op = "ProductUseCase.SearchProducts"

	page := req.Page
	if page == 0 {
		page = 1
	}
	if page < 0 {
		return nil, e.Wrap(op, e.ErrInvalidPage)
	}

	sort := domain.SortOrder(req.Sort)
	if sort != domain.SortNone && sort != domain.SortPriceAsc && sort != domain.SortPriceDesc {
		return nil, e.Wrap(op, e.ErrInvalidSort)
	}

	price := ""
	if req.Price != nil {
		price = req.Price.String()
	}
	key := cache.SearchKey(req.Search, req.Sort, req.Category, price, page)

	filter := domain.NewProductFilter().
		WithNameContains(req.Search).
		WithCategory(req.Category).
		WithMaxPrice(req.Price).
		SortedBy(sort).
		Paginate(page, p.productPerPage)

	res, err := cache.GetOrCompute(ctx, p.readThrough, key, cache.SearchTTL,
		func(ctx context.Context) (*SearchProductsRes, error) {
			products, err := p.productRepo.Search(ctx, filter)
			if err != nil {
				return nil, err
			}

			total, err := p.productRepo.Count(ctx, filter)
			if err != nil {
				return nil, err
			}

			return &SearchProductsRes{
				Products:  products,
				TotalPage: int(math.Ceil(float64(total) / float64(p.productPerPage))),
			}, nil
		})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return res, nil
}

// CreateProduct загружает фотографии, сохраняет товар и инвалидирует списки товаров.
func (p *ProductUseCase) CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.CreateProduct"

	if err := p.validateCreate(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	photos, err := p.photos.UploadPhotos(ctx, NewUploadPhotosReq(domain.NormalizeCategory(req.Category), req.Photos))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	product := domain.NewProduct(req.Name, req.Price, req.Stock, req.Category, req.Description, photos)
	created, err := p.productRepo.Create(ctx, product)
	if err != nil {
		p.logger.Warnf("Cleaning up orphaned photos after failed product insert. product_name: %s, error: %v",
			req.Name, e.Wrap(op, err))
		p.photos.CleanupPhotos(product.PhotoIDs())
		return nil, e.Wrap(op, err)
	}

	p.invalidator.Invalidate(ctx, cache.ProductCreated())

	return created, nil
}

// UpdateProduct частично обновляет товар. При замене фото старые удаляются из хранилища после сохранения.
// Новые фото загружаются до транзакции, а изменения накладываются на строку под блокировкой,
// поэтому параллельное списание остатка не теряется.
func (p *ProductUseCase) UpdateProduct(ctx context.Context, req *UpdateProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.UpdateProduct"

	if err := validateStruct(req); err != nil {
		return nil, e.Wrap(op, err)
	}
	if len(req.Photos) > maxPhotos {
		return nil, e.Wrap(op, e.ErrTooManyPhotos)
	}
	if req.Price != nil && req.Price.IsNegative() {
		return nil, e.Wrap(op, e.ErrInvalidPrice)
	}
	if req.Stock != nil && *req.Stock < 0 {
		return nil, e.Wrap(op, e.ErrInvalidStock)
	}

	current, err := p.productRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var newPhotos []domain.Photo
	if len(req.Photos) > 0 {
		applyProductChanges(current, req)
		newPhotos, err = p.photos.UploadPhotos(ctx, NewUploadPhotosReq(current.Category, req.Photos))
		if err != nil {
			return nil, e.Wrap(op, err)
		}
	}

	var (
		updated     *domain.Product
		oldPhotoIDs []string
	)
	err = p.txManager.WithinTx(ctx, func(ctx context.Context) error {
		product, err := p.productRepo.GetForUpdate(ctx, req.ID)
		if err != nil {
			return err
		}

		applyProductChanges(product, req)
		if len(newPhotos) > 0 {
			oldPhotoIDs = product.PhotoIDs()
			product.Photos = newPhotos
		}

		updated, err = p.productRepo.Update(ctx, product)
		return err
	})
	if err != nil {
		if len(newPhotos) > 0 {
			p.photos.CleanupPhotos(domain.PhotoIDs(newPhotos))
		}
		return nil, e.Wrap(op, err)
	}

	if len(oldPhotoIDs) > 0 {
		p.deletePhotos(ctx, oldPhotoIDs)
	}

	p.invalidator.Invalidate(ctx, cache.ProductUpdated(updated.ID))

	return updated, nil
}

// DeleteProduct удаляет товар (отзывы удаляются каскадно) и его фотографии.
func (p *ProductUseCase) DeleteProduct(ctx context.Context, id string) error {
	const op = "ProductUseCase.DeleteProduct"

	product, err := p.productRepo.GetByID(ctx, id)
	if err != nil {
		return e.Wrap(op, err)
	}

	if err := p.productRepo.Delete(ctx, product.ID); err != nil {
		return e.Wrap(op, err)
	}

	p.deletePhotos(ctx, product.PhotoIDs())
	p.invalidator.Invalidate(ctx, cache.ProductDeleted(product.ID))

	return nil
}

// deletePhotos удаляет фото синхронно, а при ошибке передаёт их фоновой очистке.
func (p *ProductUseCase) deletePhotos(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}

	if err := p.photos.DeletePhotos(ctx, ids); err != nil {
		p.logger.Warnf("Failed to delete product photos, scheduling cleanup: %v", err)
		p.photos.CleanupPhotos(ids)
	}
}

// validateCreate проверяет корректность входных данных запроса на создание товара.
func (p *ProductUseCase) validateCreate(req *CreateProductReq) error {
	if len(req.Photos) < minPhotos {
		return e.ErrNoPhotos
	}

	if len(req.Photos) > maxPhotos {
		return e.ErrTooManyPhotos
	}

	if err := validateStruct(req); err != nil {
		return err
	}

	if req.Price.IsNegative() {
		return e.ErrInvalidPrice
	}

	if req.Stock < 0 {
		return e.ErrInvalidStock
	}

	return nil
}

func applyProductChanges(product *domain.Product, req *UpdateProductReq) {
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.Category != nil && strings.TrimSpace(*req.Category) != "" {
		product.Category = domain.NormalizeCategory(*req.Category)
	}
	if req.Description != nil && *req.Description != "" {
		product.Description = *req.Description
	}
}

