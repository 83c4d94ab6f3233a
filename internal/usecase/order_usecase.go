package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/cache"
	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// OrderUseCase реализует оформление заказов, их жизненный цикл и чтение через кэш.
type OrderUseCase struct {
	orderRepo   OrderRepository
	userRepo    UserRepository
	outboxRepo  OutboxRepository
	stock       *StockEngine
	txManager   TxManager
	readThrough *cache.ReadThrough
	invalidator Invalidator
	logger      logger.Logger
}

func NewOrderUC(
	orderRepo OrderRepository,
	userRepo UserRepository,
	outboxRepo OutboxRepository,
	stock *StockEngine,
	txManager TxManager,
	readThrough *cache.ReadThrough,
	invalidator Invalidator,
	logger logger.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		outboxRepo:  outboxRepo,
		stock:       stock,
		txManager:   txManager,
		readThrough: readThrough,
		invalidator: invalidator,
		logger:      logger,
	}
}

// MyOrders возвращает заказы пользователя.
func (o *OrderUseCase) MyOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	const op = "OrderUseCase.MyOrders"

	if userID == "" {
		return nil, e.Wrap(op, e.ErrUserNotFound)
	}

	orders, err := cache.GetOrCompute(ctx, o.readThrough, cache.MyOrdersKey(userID), o.readThrough.DefaultTTL(),
		func(ctx context.Context) ([]domain.Order, error) {
			return o.orderRepo.ByUser(ctx, userID)
		})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return orders, nil
}

// AllOrders возвращает все заказы с именами пользователей.
func (o *OrderUseCase) AllOrders(ctx context.Context) ([]domain.Order, error) {
	const op = "OrderUseCase.AllOrders"

	orders, err := cache.GetOrCompute(ctx, o.readThrough, cache.KeyAllOrders, o.readThrough.DefaultTTL(), o.orderRepo.All)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return orders, nil
}

func (o *OrderUseCase) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	const op = "OrderUseCase.GetOrder"

	if id == "" {
		return nil, e.Wrap(op, e.ErrInvalidID)
	}

	order, err := cache.GetOrCompute(ctx, o.readThrough, cache.OrderKey(id), o.readThrough.DefaultTTL(),
		func(ctx context.Context) (*domain.Order, error) {
			return o.orderRepo.GetByID(ctx, id)
		})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return order, nil
}

// PlaceOrder создаёт заказ и списывает остатки в одной транзакции.
// Если хотя бы одной позиции не хватает остатка, заказ не создаётся и остатки не меняются.
func (o *OrderUseCase) PlaceOrder(ctx context.Context, req *PlaceOrderReq) (*domain.Order, error) {
	const op = "OrderUseCase.PlaceOrder"

	if err := validateStruct(req); err != nil {
		return nil, e.Wrap(op, err)
	}
	if err := validateAmounts(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	if _, err := o.userRepo.GetByID(ctx, req.UserID); err != nil {
		return nil, e.Wrap(op, err)
	}

	order := domain.NewOrder(req.UserID, req.ShippingInfo, toOrderItems(req.Items),
		req.Subtotal, req.Tax, req.ShippingCharges, req.Discount, req.Total)

	var created *domain.Order
	err := o.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = o.orderRepo.Create(ctx, order)
		if err != nil {
			return err
		}

		if err := o.stock.ReduceStock(ctx, created.OrderItems); err != nil {
			return err
		}

		return o.writeEvent(ctx, domain.OrderPlaced, created)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	o.invalidator.Invalidate(ctx, cache.OrderPlaced(created.UserID, created.ProductIDs()))
	o.logger.Infof("Order placed: order_id: %s, items: %d", created.ID, len(created.OrderItems))

	return created, nil
}

// ProcessOrder переводит заказ на следующий шаг: Processing -> Shipped -> Delivered.
func (o *OrderUseCase) ProcessOrder(ctx context.Context, id string) (*domain.Order, error) {
	const op = "OrderUseCase.ProcessOrder"

	var order *domain.Order
	err := o.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = o.orderRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		order.Status = order.Status.Next()
		if err := o.orderRepo.UpdateStatus(ctx, order.ID, order.Status); err != nil {
			return err
		}

		return o.writeEvent(ctx, domain.OrderStatusChanged, order)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	o.invalidator.Invalidate(ctx, cache.OrderChanged(order.ID, order.UserID))
	o.logger.Debugf("Order %s moved to status %s", order.ID, order.Status)

	return order, nil
}

// DeleteOrder удаляет заказ. Остатки товаров не восстанавливаются.
func (o *OrderUseCase) DeleteOrder(ctx context.Context, id string) error {
	const op = "OrderUseCase.DeleteOrder"

	var order *domain.Order
	err := o.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = o.orderRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if err := o.orderRepo.Delete(ctx, order.ID); err != nil {
			return err
		}

		return o.writeEvent(ctx, domain.OrderDeleted, order)
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	o.invalidator.Invalidate(ctx, cache.OrderChanged(order.ID, order.UserID))

	return nil
}

// writeEvent сохраняет событие заказа в outbox текущей транзакции.
func (o *OrderUseCase) writeEvent(ctx context.Context, eventType domain.OrderEventType, order *domain.Order) error {
	event, err := NewOutboxEvent(domain.NewOrderEvent(eventType, order))
	if err != nil {
		return err
	}

	_, err = o.outboxRepo.Create(ctx, event)
	return err
}

// validateAmounts требует ненулевые subtotal и total; ни одна сумма заказа не может быть отрицательной.
func validateAmounts(req *PlaceOrderReq) error {
	if req.Subtotal.IsZero() || req.Total.IsZero() {
		return e.ErrMissingFields
	}

	for _, amount := range []decimal.Decimal{req.Subtotal, req.Tax, req.ShippingCharges, req.Discount, req.Total} {
		if amount.IsNegative() {
			return e.ErrInvalidAmount
		}
	}

	return nil
}
