package pgdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const productColumns = `id, name, price, stock, category, description, photos, ratings, num_of_reviews, created_at, updated_at`

// ProductRepo реализует репозиторий товаров поверх PostgreSQL.
type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	model, err := converter.ProductToModel(product)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO products (id, name, price, stock, category, description, photos)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + productColumns

	row := tr.QuerierFromCtx(ctx, p.pool).QueryRow(ctx, query,
		model.ID, model.Name, model.Price, model.Stock, model.Category, model.Description, model.Photos,
	)

	created, err := scanProduct(row)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return created, nil
}

// Update перезаписывает изменяемые поля товара. Рейтинг меняется только через UpdateRatings.
func (p *ProductRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	model, err := converter.ProductToModel(product)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		UPDATE products
		SET name = $2, price = $3, stock = $4, category = $5, description = $6, photos = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	row := tr.QuerierFromCtx(ctx, p.pool).QueryRow(ctx, query,
		model.ID, model.Name, model.Price, model.Stock, model.Category, model.Description, model.Photos,
	)

	updated, err := scanProduct(row)
	if err != nil {
		if noRows(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return updated, nil
}

// Delete удаляет товар. Отзывы удаляются каскадом (ON DELETE CASCADE).
func (p *ProductRepo) Delete(ctx context.Context, id string) error {
	tag, err := tr.QuerierFromCtx(ctx, p.pool).Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}

func (p *ProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return p.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetForUpdate читает товар с блокировкой строки. Вне транзакции блокировка снимается сразу.
func (p *ProductRepo) GetForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	return p.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (p *ProductRepo) getOne(ctx context.Context, query string, id string) (*domain.Product, error) {
	product, err := scanProduct(tr.QuerierFromCtx(ctx, p.pool).QueryRow(ctx, query, id))
	if err != nil {
		if noRows(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return product, nil
}

// Latest возвращает limit последних созданных товаров.
func (p *ProductRepo) Latest(ctx context.Context, limit int) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC LIMIT $1`

	return p.queryProducts(ctx, query, limit)
}

func (p *ProductRepo) All(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC`

	return p.queryProducts(ctx, query)
}

func (p *ProductRepo) Categories(ctx context.Context) ([]string, error) {
	rows, err := tr.QuerierFromCtx(ctx, p.pool).Query(ctx, `SELECT DISTINCT category FROM products ORDER BY category`)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	categories, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return categories, nil
}

func (p *ProductRepo) Search(ctx context.Context, filter *domain.ProductFilter) ([]domain.Product, error) {
	query, args := buildSearchQuery(filter)

	return p.queryProducts(ctx, query, args...)
}

func (p *ProductRepo) Count(ctx context.Context, filter *domain.ProductFilter) (int, error) {
	where, args := buildSearchWhere(filter)

	var count int
	err := tr.QuerierFromCtx(ctx, p.pool).QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&count)
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return count, nil
}

// DecrementStock списывает остаток одним условным UPDATE: строка меняется, только если stock >= quantity.
func (p *ProductRepo) DecrementStock(ctx context.Context, productID string, quantity int) error {
	q := tr.QuerierFromCtx(ctx, p.pool)

	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
		RETURNING stock
	`

	var left int
	err := q.QueryRow(ctx, query, productID, quantity).Scan(&left)
	if err == nil {
		return nil
	}
	if !noRows(err) {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	var available int
	if err := q.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&available); err != nil {
		if noRows(err) {
			return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
		}
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return &e.InsufficientStockError{ProductID: productID, Requested: quantity, Available: available}
}

func (p *ProductRepo) UpdateRatings(ctx context.Context, productID string, summary domain.RatingSummary) error {
	query := `
		UPDATE products
		SET ratings = $2, num_of_reviews = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := tr.QuerierFromCtx(ctx, p.pool).Exec(ctx, query, productID, summary.Ratings, summary.NumOfReviews)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}

func (p *ProductRepo) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := tr.QuerierFromCtx(ctx, p.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var model converter.ProductModel
	if err := row.Scan(
		&model.ID, &model.Name, &model.Price, &model.Stock, &model.Category, &model.Description,
		&model.Photos, &model.Ratings, &model.NumOfReviews, &model.CreatedAt, &model.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return converter.ProductToEntity(&model)
}

// buildSearchWhere собирает WHERE из заданных предикатов фильтра.
func buildSearchWhere(filter *domain.ProductFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if filter.NameContains != nil {
		args = append(args, escapeLike(*filter.NameContains))
		conds = append(conds, fmt.Sprintf(`name ILIKE '%%' || $%d || '%%'`, len(args)))
	}

	if filter.Category != nil {
		args = append(args, *filter.Category)
		conds = append(conds, fmt.Sprintf(`category = $%d`, len(args)))
	}

	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		conds = append(conds, fmt.Sprintf(`price <= $%d`, len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func buildSearchQuery(filter *domain.ProductFilter) (string, []any) {
	where, args := buildSearchWhere(filter)

	var order string
	switch filter.Sort {
	case domain.SortPriceAsc:
		order = " ORDER BY price ASC, created_at DESC"
	case domain.SortPriceDesc:
		order = " ORDER BY price DESC, created_at DESC"
	default:
		order = " ORDER BY created_at DESC"
	}

	query := `SELECT ` + productColumns + ` FROM products` + where + order

	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	return query, args
}
