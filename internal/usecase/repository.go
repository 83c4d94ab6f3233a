package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
)

// ProductRepository — хранилище товаров. Методы поиска по ID возвращают e.ErrProductNotFound.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// GetForUpdate блокирует строку товара до конца транзакции. Через неё сериализуются
	// правки товара и пересчёт рейтинга.
	GetForUpdate(ctx context.Context, id string) (*domain.Product, error)
	Latest(ctx context.Context, limit int) ([]domain.Product, error)
	All(ctx context.Context) ([]domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Search(ctx context.Context, filter *domain.ProductFilter) ([]domain.Product, error)
	Count(ctx context.Context, filter *domain.ProductFilter) (int, error)
	// DecrementStock атомарно уменьшает остаток, только если stock >= quantity.
	// Возвращает e.ErrProductNotFound или *e.InsufficientStockError.
	DecrementStock(ctx context.Context, productID string, quantity int) error
	UpdateRatings(ctx context.Context, productID string, summary domain.RatingSummary) error
}

// OrderRepository — хранилище заказов. Методы чтения заполняют имя пользователя.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// GetForUpdate блокирует строку заказа до конца транзакции.
	GetForUpdate(ctx context.Context, id string) (*domain.Order, error)
	All(ctx context.Context) ([]domain.Order, error)
	ByUser(ctx context.Context, userID string) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	Delete(ctx context.Context, id string) error
}

type ReviewRepository interface {
	// Upsert создаёт отзыв или обновляет существующий для пары (user, product).
	Upsert(ctx context.Context, review *domain.Review) (created bool, err error)
	GetByID(ctx context.Context, id string) (*domain.Review, error)
	Delete(ctx context.Context, id string) error
	// ByProduct возвращает отзывы с данными автора, сначала недавно изменённые.
	ByProduct(ctx context.Context, productID string) ([]domain.Review, error)
	RatingStats(ctx context.Context, productID string) (sum int64, count int64, err error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	// MarkAsPending возвращает неотправленное событие в очередь.
	MarkAsPending(ctx context.Context, id int64) error
}

// TxManager выполняет функцию в одной транзакции хранилища.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ImageRepository сохраняет изображения в объектное хранилище.
type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Delete(ctx context.Context, key string) error
}
