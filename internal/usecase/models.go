package usecase

import (
	"encoding/json"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// PRODUCT USECASE

// ProductImage представляет изображение, загруженное через multipart/form-data.
type ProductImage struct {
	Data     []byte // байты изображения
	MimeType string // Content-Type из multipart (image/jpeg)
	Size     int64  // фактический размер в байтах
	Name     string // оригинальное имя файла (для логов)
}

// CreateProductReq описывает создание товара. Нужны от 1 до 5 фотографий.
type CreateProductReq struct {
	Name        string `validate:"required"`
	Category    string `validate:"required"`
	Description string `validate:"required"`
	Price       decimal.Decimal
	Stock       int
	Photos      []ProductImage
}

// UpdateProductReq описывает частичное обновление товара. Nil-поля не меняются,
// новые фотографии полностью заменяют старые.
type UpdateProductReq struct {
	ID          string `validate:"required"`
	Name        *string
	Category    *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	Photos      []ProductImage
}

// SearchProductsReq — параметры поиска. Все фильтры опциональны, Page начинается с 1.
type SearchProductsReq struct {
	Search   string
	Sort     string
	Category string
	Price    *decimal.Decimal
	Page     int
}

type SearchProductsRes struct {
	Products  []domain.Product `json:"products"`
	TotalPage int              `json:"totalPage"`
}

// ORDER USECASE

type OrderItemReq struct {
	ProductID string `validate:"required"`
	Name      string
	Quantity  int
	Price     decimal.Decimal
}

type PlaceOrderReq struct {
	UserID          string              `validate:"required"`
	ShippingInfo    domain.ShippingInfo
	Items           []OrderItemReq      `validate:"required,min=1,dive"`
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	ShippingCharges decimal.Decimal
	Discount        decimal.Decimal
	Total           decimal.Decimal
}

// REVIEW USECASE

type AddReviewReq struct {
	UserID    string `validate:"required"`
	ProductID string `validate:"required"`
	Rating    int
	Comment   string
}

type AddReviewRes struct {
	Created bool
	Summary domain.RatingSummary
}

type DeleteReviewReq struct {
	UserID   string `validate:"required"`
	ReviewID string `validate:"required"`
}

// INFRASTRUCTURE

// UploadPhotosReq запрос на загрузку фотографий товара.
type UploadPhotosReq struct {
	Folder string
	Images []ProductImage
}

type WriteRawMessageReq struct {
	Key     string
	Payload []byte
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

// OutboxEvent — событие, записанное в той же транзакции, что и изменение заказа.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   domain.OrderEventType
	OrderID     string
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// MAPPERS

func NewOutboxEvent(event *domain.OrderEvent) (*OutboxEvent, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		EventID:   event.EventID,
		EventType: event.Type,
		OrderID:   event.OrderID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: event.OccurredAt,
	}, nil
}

func NewUploadPhotosReq(folder string, images []ProductImage) *UploadPhotosReq {
	return &UploadPhotosReq{
		Folder: folder,
		Images: images,
	}
}

func NewWriteRawMessageReq(key string, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		Key:     key,
		Payload: payload,
	}
}

func NewProductImage(data []byte, mimeType string, size int64, name string) *ProductImage {
	return &ProductImage{
		Data:     data,
		MimeType: mimeType,
		Size:     size,
		Name:     name,
	}
}

func toOrderItems(items []OrderItemReq) []domain.OrderItem {
	res := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		res = append(res, domain.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	return res
}
