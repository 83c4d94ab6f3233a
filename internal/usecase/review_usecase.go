package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/cache"
	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
)

const (
	minRating = 1
	maxRating = 5
)

// ReviewUseCase управляет отзывами и поддерживает сводку рейтинга товара в актуальном состоянии.
type ReviewUseCase struct {
	reviewRepo  ReviewRepository
	productRepo ProductRepository
	userRepo    UserRepository
	aggregator  *RatingAggregator
	txManager   TxManager
	readThrough *cache.ReadThrough
	invalidator Invalidator
	logger      logger.Logger
}

func NewReviewUC(
	reviewRepo ReviewRepository,
	productRepo ProductRepository,
	userRepo UserRepository,
	aggregator *RatingAggregator,
	txManager TxManager,
	readThrough *cache.ReadThrough,
	invalidator Invalidator,
	logger logger.Logger,
) *ReviewUseCase {
	return &ReviewUseCase{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		aggregator:  aggregator,
		txManager:   txManager,
		readThrough: readThrough,
		invalidator: invalidator,
		logger:      logger,
	}
}

// ProductReviews возвращает отзывы товара с данными авторов.
func (r *ReviewUseCase) ProductReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	const op = "ReviewUseCase.ProductReviews"

	if productID == "" {
		return nil, e.Wrap(op, e.ErrInvalidID)
	}

	reviews, err := cache.GetOrCompute(ctx, r.readThrough, cache.ReviewsKey(productID), r.readThrough.DefaultTTL(),
		func(ctx context.Context) ([]domain.Review, error) {
			return r.reviewRepo.ByProduct(ctx, productID)
		})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return reviews, nil
}

// AddReview создаёт отзыв или обновляет существующий отзыв пользователя на товар и пересчитывает рейтинг.
func (r *ReviewUseCase) AddReview(ctx context.Context, req *AddReviewReq) (*AddReviewRes, error) {
	const op = "ReviewUseCase.AddReview"

	if err := validateStruct(req); err != nil {
		return nil, e.Wrap(op, err)
	}
	if req.Rating < minRating || req.Rating > maxRating {
		return nil, e.Wrap(op, e.ErrInvalidRating)
	}

	if _, err := r.userRepo.GetByID(ctx, req.UserID); err != nil {
		return nil, e.Wrap(op, err)
	}

	res := &AddReviewRes{}
	err := r.txManager.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := r.productRepo.GetForUpdate(ctx, req.ProductID); err != nil {
			return err
		}

		created, err := r.reviewRepo.Upsert(ctx, domain.NewReview(req.UserID, req.ProductID, req.Rating, req.Comment))
		if err != nil {
			return err
		}
		res.Created = created

		res.Summary, err = r.refreshRatings(ctx, req.ProductID)
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	r.invalidator.Invalidate(ctx, cache.ReviewsChanged(req.ProductID))
	r.logger.Debugf("Review saved: product_id: %s, created: %t, ratings: %.2f", req.ProductID, res.Created, res.Summary.Ratings)

	return res, nil
}

// DeleteReview удаляет отзыв. Удалить отзыв может только его автор.
func (r *ReviewUseCase) DeleteReview(ctx context.Context, req *DeleteReviewReq) (*domain.RatingSummary, error) {
	const op = "ReviewUseCase.DeleteReview"

	if err := validateStruct(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	if _, err := r.userRepo.GetByID(ctx, req.UserID); err != nil {
		return nil, e.Wrap(op, err)
	}

	review, err := r.reviewRepo.GetByID(ctx, req.ReviewID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if review.UserID != req.UserID {
		return nil, e.Wrap(op, e.ErrNotReviewAuthor)
	}

	var summary domain.RatingSummary
	err = r.txManager.WithinTx(ctx, func(ctx context.Context) error {
		// блокировка строки товара сериализует пересчёт рейтинга с другими изменениями отзывов
		if _, err := r.productRepo.GetForUpdate(ctx, review.ProductID); err != nil {
			return err
		}

		if err := r.reviewRepo.Delete(ctx, review.ID); err != nil {
			return err
		}

		var err error
		summary, err = r.refreshRatings(ctx, review.ProductID)
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	r.invalidator.Invalidate(ctx, cache.ReviewsChanged(review.ProductID))

	return &summary, nil
}

// refreshRatings пересчитывает сводку по всем отзывам товара и сохраняет её.
func (r *ReviewUseCase) refreshRatings(ctx context.Context, productID string) (domain.RatingSummary, error) {
	summary, err := r.aggregator.Recompute(ctx, productID)
	if err != nil {
		return domain.RatingSummary{}, err
	}

	if err := r.productRepo.UpdateRatings(ctx, productID, summary); err != nil {
		return domain.RatingSummary{}, err
	}

	return summary, nil
}
