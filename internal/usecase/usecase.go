package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
)

type ProductUC interface {
	GetLatestProducts(ctx context.Context) ([]domain.Product, error)
	GetCategories(ctx context.Context) ([]string, error)
	GetAdminProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	SearchProducts(ctx context.Context, req *SearchProductsReq) (*SearchProductsRes, error)
	CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error)
	UpdateProduct(ctx context.Context, req *UpdateProductReq) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type OrderUC interface {
	MyOrders(ctx context.Context, userID string) ([]domain.Order, error)
	AllOrders(ctx context.Context) ([]domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	PlaceOrder(ctx context.Context, req *PlaceOrderReq) (*domain.Order, error)
	ProcessOrder(ctx context.Context, id string) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

type ReviewUC interface {
	ProductReviews(ctx context.Context, productID string) ([]domain.Review, error)
	AddReview(ctx context.Context, req *AddReviewReq) (*AddReviewRes, error)
	DeleteReview(ctx context.Context, req *DeleteReviewReq) (*domain.RatingSummary, error)
}
