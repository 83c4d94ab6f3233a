package converter

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductModel представляет запись таблицы products в PostgreSQL.
type ProductModel struct {
	ID           string          `db:"id"`
	Name         string          `db:"name"`
	Price        decimal.Decimal `db:"price"`
	Stock        int             `db:"stock"`
	Category     string          `db:"category"`
	Description  string          `db:"description"`
	Photos       []byte          `db:"photos"` // jsonb
	Ratings      float64         `db:"ratings"`
	NumOfReviews int             `db:"num_of_reviews"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// OrderModel представляет запись таблицы orders вместе с именем пользователя.
type OrderModel struct {
	ID              string          `db:"id"`
	UserID          string          `db:"user_id"`
	UserName        string          `db:"user_name"`
	ShippingInfo    []byte          `db:"shipping_info"` // jsonb
	OrderItems      []byte          `db:"order_items"`   // jsonb
	Subtotal        decimal.Decimal `db:"subtotal"`
	Tax             decimal.Decimal `db:"tax"`
	ShippingCharges decimal.Decimal `db:"shipping_charges"`
	Discount        decimal.Decimal `db:"discount"`
	Total           decimal.Decimal `db:"total"`
	Status          string          `db:"status"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// ReviewModel представляет запись таблицы reviews вместе с данными автора.
type ReviewModel struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	UserName  string    `db:"user_name"`
	UserPhoto string    `db:"user_photo"`
	ProductID string    `db:"product_id"`
	Rating    int       `db:"rating"`
	Comment   string    `db:"comment"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// OutboxEventModel представляет запись таблицы outbox_events.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	OrderID     string     `db:"order_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
