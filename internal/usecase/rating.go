package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
)

// RatingAggregator пересчитывает сводку рейтинга товара по всем его отзывам.
type RatingAggregator struct {
	reviewRepo ReviewRepository
}

func NewRatingAggregator(reviewRepo ReviewRepository) *RatingAggregator {
	return &RatingAggregator{reviewRepo: reviewRepo}
}

// Recompute возвращает среднее и количество отзывов товара; без отзывов возвращает нули.
func (r *RatingAggregator) Recompute(ctx context.Context, productID string) (domain.RatingSummary, error) {
	const op = "RatingAggregator.Recompute"

	sum, count, err := r.reviewRepo.RatingStats(ctx, productID)
	if err != nil {
		return domain.RatingSummary{}, e.Wrap(op, err)
	}

	return domain.NewRatingSummary(sum, count), nil
}
