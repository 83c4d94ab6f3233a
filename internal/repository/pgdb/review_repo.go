package pgdb

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const reviewSelect = `
	SELECT r.id, r.user_id, u.name, u.photo, r.product_id, r.rating, r.comment, r.created_at, r.updated_at
	FROM reviews r
	JOIN users u ON u.id = r.user_id
`

// ReviewRepo реализует репозиторий отзывов поверх PostgreSQL.
type ReviewRepo struct {
	pool *pgxpool.Pool
}

func NewReviewRepo(pool *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{pool: pool}
}

// Upsert идемпотентно создаёт отзыв по паре (user_id, product_id) или обновляет оценку и комментарий.
// created = true, если строка была вставлена.
func (r *ReviewRepo) Upsert(ctx context.Context, review *domain.Review) (bool, error) {
	query := `
		INSERT INTO reviews (id, user_id, product_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET
			rating = EXCLUDED.rating,
			comment = EXCLUDED.comment,
			updated_at = NOW()
		RETURNING (xmax = 0) AS created
	`

	var created bool
	err := tr.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, query,
		review.ID, review.UserID, review.ProductID, review.Rating, review.Comment,
	).Scan(&created)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return created, nil
}

func (r *ReviewRepo) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	var model converter.ReviewModel
	err := tr.QuerierFromCtx(ctx, r.pool).QueryRow(ctx, reviewSelect+` WHERE r.id = $1`, id).Scan(
		&model.ID, &model.UserID, &model.UserName, &model.UserPhoto, &model.ProductID,
		&model.Rating, &model.Comment, &model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		if noRows(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrReviewNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return converter.ReviewToEntity(&model), nil
}

func (r *ReviewRepo) Delete(ctx context.Context, id string) error {
	tag, err := tr.QuerierFromCtx(ctx, r.pool).Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if tag.RowsAffected() == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrReviewNotFound)
	}

	return nil
}

// ByProduct возвращает отзывы товара, сначала недавно изменённые.
func (r *ReviewRepo) ByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	rows, err := tr.QuerierFromCtx(ctx, r.pool).Query(ctx,
		reviewSelect+` WHERE r.product_id = $1 ORDER BY r.updated_at DESC`, productID)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	result := make([]domain.Review, 0)
	for rows.Next() {
		var model converter.ReviewModel
		if err := rows.Scan(
			&model.ID, &model.UserID, &model.UserName, &model.UserPhoto, &model.ProductID,
			&model.Rating, &model.Comment, &model.CreatedAt, &model.UpdatedAt,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		result = append(result, *converter.ReviewToEntity(&model))
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return result, nil
}

// RatingStats возвращает сумму и количество оценок товара.
func (r *ReviewRepo) RatingStats(ctx context.Context, productID string) (int64, int64, error) {
	var sum, count int64
	err := tr.QuerierFromCtx(ctx, r.pool).QueryRow(ctx,
		`SELECT COALESCE(SUM(rating), 0), COUNT(*) FROM reviews WHERE product_id = $1`, productID,
	).Scan(&sum, &count)
	if err != nil {
		return 0, 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return sum, count, nil
}
