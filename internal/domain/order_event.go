package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderEventType string

const (
	OrderPlaced        OrderEventType = "order.placed"
	OrderStatusChanged OrderEventType = "order.status_changed"
	OrderDeleted       OrderEventType = "order.deleted"
)

// OrderEvent — событие жизненного цикла заказа, публикуемое через outbox
type OrderEvent struct {
	EventID    string         `json:"event_id"`
	Type       OrderEventType `json:"event_type"`
	OrderID    string         `json:"order_id"`
	UserID     string         `json:"user_id"`
	Status     OrderStatus    `json:"status,omitempty"`
	ProductIDs []string       `json:"product_ids,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func NewOrderEvent(eventType OrderEventType, order *Order) *OrderEvent {
	event := &OrderEvent{
		EventID:    uuid.NewString(),
		Type:       eventType,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		OccurredAt: time.Now().UTC(),
	}
	if eventType == OrderPlaced {
		event.ProductIDs = order.ProductIDs()
	}

	return event
}
