package usecase

import (
	"cmp"
	"context"
	"slices"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
)

// StockEngine списывает остатки товаров по позициям заказа.
type StockEngine struct {
	productRepo ProductRepository
}

func NewStockEngine(productRepo ProductRepository) *StockEngine {
	return &StockEngine{productRepo: productRepo}
}

// ReduceStock последовательно списывает остатки по каждой позиции в порядке ID товара:
// единый порядок блокировок строк исключает взаимоблокировку встречных заказов.
// Каждое списание выполняется условным атомарным декрементом (stock >= quantity), поэтому параллельные заказы не уводят остаток в минус.
// Откат уже списанных позиций обеспечивает транзакция вызывающего.
func (s *StockEngine) ReduceStock(ctx context.Context, items []domain.OrderItem) error {
	const op = "StockEngine.ReduceStock"

	ordered := slices.Clone(items)
	slices.SortStableFunc(ordered, func(a, b domain.OrderItem) int { return cmp.Compare(a.ProductID, b.ProductID) })

	for _, item := range ordered {
		if item.Quantity <= 0 {
			return e.Wrap(op, e.Wrap(item.ProductID, e.ErrInvalidQuantity))
		}

		if err := s.productRepo.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			return e.Wrap(op, err)
		}
	}

	return nil
}
