package converter

import (
	"encoding/json"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
)

// ProductToModel преобразует товар в модель PostgreSQL, сериализуя фотографии в jsonb.
func ProductToModel(entity *domain.Product) (*ProductModel, error) {
	photos := entity.Photos
	if photos == nil {
		photos = []domain.Photo{}
	}

	data, err := json.Marshal(photos)
	if err != nil {
		return nil, err
	}

	return &ProductModel{
		ID:           entity.ID,
		Name:         entity.Name,
		Price:        entity.Price,
		Stock:        entity.Stock,
		Category:     entity.Category,
		Description:  entity.Description,
		Photos:       data,
		Ratings:      entity.Ratings,
		NumOfReviews: entity.NumOfReviews,
		CreatedAt:    entity.CreatedAt,
		UpdatedAt:    entity.UpdatedAt,
	}, nil
}

func ProductToEntity(model *ProductModel) (*domain.Product, error) {
	photos := []domain.Photo{}
	if len(model.Photos) > 0 {
		if err := json.Unmarshal(model.Photos, &photos); err != nil {
			return nil, err
		}
	}

	return &domain.Product{
		ID:           model.ID,
		Name:         model.Name,
		Price:        model.Price,
		Stock:        model.Stock,
		Category:     model.Category,
		Description:  model.Description,
		Photos:       photos,
		Ratings:      model.Ratings,
		NumOfReviews: model.NumOfReviews,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}, nil
}

// OrderToModel преобразует заказ в модель PostgreSQL. Адрес и позиции хранятся в jsonb.
func OrderToModel(entity *domain.Order) (*OrderModel, error) {
	shipping, err := json.Marshal(entity.ShippingInfo)
	if err != nil {
		return nil, err
	}

	items, err := json.Marshal(entity.OrderItems)
	if err != nil {
		return nil, err
	}

	return &OrderModel{
		ID:              entity.ID,
		UserID:          entity.UserID,
		UserName:        entity.UserName,
		ShippingInfo:    shipping,
		OrderItems:      items,
		Subtotal:        entity.Subtotal,
		Tax:             entity.Tax,
		ShippingCharges: entity.ShippingCharges,
		Discount:        entity.Discount,
		Total:           entity.Total,
		Status:          string(entity.Status),
		CreatedAt:       entity.CreatedAt,
		UpdatedAt:       entity.UpdatedAt,
	}, nil
}

func OrderToEntity(model *OrderModel) (*domain.Order, error) {
	var shipping domain.ShippingInfo
	if err := json.Unmarshal(model.ShippingInfo, &shipping); err != nil {
		return nil, err
	}

	items := []domain.OrderItem{}
	if err := json.Unmarshal(model.OrderItems, &items); err != nil {
		return nil, err
	}

	return &domain.Order{
		ID:              model.ID,
		UserID:          model.UserID,
		UserName:        model.UserName,
		ShippingInfo:    shipping,
		OrderItems:      items,
		Subtotal:        model.Subtotal,
		Tax:             model.Tax,
		ShippingCharges: model.ShippingCharges,
		Discount:        model.Discount,
		Total:           model.Total,
		Status:          domain.OrderStatus(model.Status),
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}, nil
}

func ReviewToEntity(model *ReviewModel) *domain.Review {
	return &domain.Review{
		ID:     model.ID,
		UserID: model.UserID,
		User: domain.Reviewer{
			ID:    model.UserID,
			Name:  model.UserName,
			Photo: model.UserPhoto,
		},
		ProductID: model.ProductID,
		Rating:    model.Rating,
		Comment:   model.Comment,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

func OutboxEventToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   string(entity.EventType),
		OrderID:     entity.OrderID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func OutboxEventToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   domain.OrderEventType(model.EventType),
		OrderID:     model.OrderID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func OutboxEventsToEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	res := make([]*usecase.OutboxEvent, 0, len(models))
	for _, model := range models {
		res = append(res, OutboxEventToEntity(model))
	}

	return res
}
