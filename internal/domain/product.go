package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Photo описывает фотографию товара в файловом хранилище
type Photo struct {
	StorageID string `json:"public_id"`
	URL       string `json:"url"`
}

// Product описывает товар каталога.
// Ratings и NumOfReviews производные поля, пересчитываются после каждого изменения отзывов.
type Product struct {
	ID           string          `json:"_id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Stock        int             `json:"stock"`
	Category     string          `json:"category"`
	Description  string          `json:"description"`
	Photos       []Photo         `json:"photos"`
	Ratings      float64         `json:"ratings"`
	NumOfReviews int             `json:"numOfReviews"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func NewProduct(name string, price decimal.Decimal, stock int, category, description string, photos []Photo) *Product {
	return &Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Price:       price,
		Stock:       stock,
		Category:    NormalizeCategory(category),
		Description: description,
		Photos:      photos,
	}
}

// NormalizeCategory приводит категорию к каноничному виду (нижний регистр).
func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// PhotoIDs возвращает идентификаторы фотографий в хранилище.
func (p *Product) PhotoIDs() []string {
	return PhotoIDs(p.Photos)
}

// PhotoIDs возвращает идентификаторы фото в хранилище.
func PhotoIDs(photos []Photo) []string {
	ids := make([]string, 0, len(photos))
	for _, photo := range photos {
		ids = append(ids, photo.StorageID)
	}

	return ids
}
