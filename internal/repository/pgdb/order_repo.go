package pgdb

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const orderSelect = `
	SELECT o.id, o.user_id, u.name, o.shipping_info, o.order_items, o.subtotal, o.tax,
		o.shipping_charges, o.discount, o.total, o.status, o.created_at, o.updated_at
	FROM orders o
	JOIN users u ON u.id = o.user_id
`

// OrderRepo реализует репозиторий заказов поверх PostgreSQL.
type OrderRepo struct {
	pool *pgxpool.Pool
}

func NewOrderRepo(pool *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

func (o *OrderRepo) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	model, err := converter.OrderToModel(order)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		WITH ins AS (
			INSERT INTO orders (id, user_id, shipping_info, order_items, subtotal, tax,
				shipping_charges, discount, total, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING *
		)
		SELECT ins.id, ins.user_id, u.name, ins.shipping_info, ins.order_items, ins.subtotal, ins.tax,
			ins.shipping_charges, ins.discount, ins.total, ins.status, ins.created_at, ins.updated_at
		FROM ins
		JOIN users u ON u.id = ins.user_id
	`

	row := tr.QuerierFromCtx(ctx, o.pool).QueryRow(ctx, query,
		model.ID, model.UserID, model.ShippingInfo, model.OrderItems, model.Subtotal, model.Tax,
		model.ShippingCharges, model.Discount, model.Total, model.Status,
	)

	created, err := scanOrder(row)
	if err != nil {
		if noRows(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrUserNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return created, nil
}

func (o *OrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return o.getOne(ctx, orderSelect+` WHERE o.id = $1`, id)
}

// GetForUpdate читает заказ с блокировкой строки до конца транзакции.
func (o *OrderRepo) GetForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return o.getOne(ctx, orderSelect+` WHERE o.id = $1 FOR UPDATE OF o`, id)
}

func (o *OrderRepo) All(ctx context.Context) ([]domain.Order, error) {
	return o.queryOrders(ctx, orderSelect+` ORDER BY o.created_at DESC`)
}

func (o *OrderRepo) ByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return o.queryOrders(ctx, orderSelect+` WHERE o.user_id = $1 ORDER BY o.created_at DESC`, userID)
}

func (o *OrderRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	tag, err := tr.QuerierFromCtx(ctx, o.pool).Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrOrderNotFound)
	}

	return nil
}

func (o *OrderRepo) Delete(ctx context.Context, id string) error {
	tag, err := tr.QuerierFromCtx(ctx, o.pool).Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrOrderNotFound)
	}

	return nil
}

func (o *OrderRepo) getOne(ctx context.Context, query string, args ...any) (*domain.Order, error) {
	order, err := scanOrder(tr.QuerierFromCtx(ctx, o.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if noRows(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrOrderNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return order, nil
}

func (o *OrderRepo) queryOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := tr.QuerierFromCtx(ctx, o.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var model converter.OrderModel
	if err := row.Scan(
		&model.ID, &model.UserID, &model.UserName, &model.ShippingInfo, &model.OrderItems,
		&model.Subtotal, &model.Tax, &model.ShippingCharges, &model.Discount, &model.Total,
		&model.Status, &model.CreatedAt, &model.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return converter.OrderToEntity(&model)
}
