package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ShippingInfo struct {
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Country string `json:"country" validate:"required"`
	PinCode string `json:"pinCode" validate:"required"`
}

// OrderItem — позиция заказа. Price фиксируется на момент оформления.
type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Order описывает заказ пользователя
type Order struct {
	ID              string          `json:"_id"`
	UserID          string          `json:"user"`
	UserName        string          `json:"userName,omitempty"`
	ShippingInfo    ShippingInfo    `json:"shippingInfo"`
	OrderItems      []OrderItem     `json:"orderItems"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	Tax             decimal.Decimal `json:"tax"`
	ShippingCharges decimal.Decimal `json:"shippingCharges"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
	Status          OrderStatus     `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func NewOrder(userID string, shipping ShippingInfo, items []OrderItem,
	subtotal, tax, shippingCharges, discount, total decimal.Decimal) *Order {
	return &Order{
		ID:              uuid.NewString(),
		UserID:          userID,
		ShippingInfo:    shipping,
		OrderItems:      items,
		Subtotal:        subtotal,
		Tax:             tax,
		ShippingCharges: shippingCharges,
		Discount:        discount,
		Total:           total,
		Status:          OrderStatusProcessing,
	}
}

// ProductIDs возвращает уникальные идентификаторы товаров заказа в порядке появления.
func (o *Order) ProductIDs() []string {
	seen := make(map[string]struct{}, len(o.OrderItems))
	ids := make([]string, 0, len(o.OrderItems))
	for _, item := range o.OrderItems {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	return ids
}
