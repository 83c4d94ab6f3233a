package cache

import (
	"context"
	"testing"

	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeKeys(t *testing.T) {
	tests := []struct {
		name     string
		scope    Scope
		keys     []string
		prefixes []string
	}{
		{
			name:     "product created",
			scope:    ProductCreated(),
			keys:     []string{"all-products", "categories", "latest-products"},
			prefixes: []string{"products-"},
		},
		{
			name:     "product updated",
			scope:    ProductUpdated("P1"),
			keys:     []string{"all-products", "categories", "latest-products", "product-P1"},
			prefixes: []string{"products-"},
		},
		{
			name:     "product deleted",
			scope:    ProductDeleted("P1"),
			keys:     []string{"all-products", "categories", "latest-products", "product-P1", "reviews-P1"},
			prefixes: []string{"products-"},
		},
		{
			name:  "order placed",
			scope: OrderPlaced("U1", []string{"P1", "P2"}),
			keys: []string{
				"all-orders", "all-products", "categories", "latest-products",
				"my-orders-U1", "product-P1", "product-P2",
			},
			prefixes: []string{"products-"},
		},
		{
			name:  "order changed",
			scope: OrderChanged("O1", "U1"),
			keys:  []string{"all-orders", "my-orders-U1", "order-O1"},
		},
		{
			name:     "reviews changed",
			scope:    ReviewsChanged("P1"),
			keys:     []string{"all-products", "categories", "latest-products", "product-P1", "reviews-P1"},
			prefixes: []string{"products-"},
		},
		{
			name:  "review flag without product id",
			scope: Scope{Review: true},
			keys:  []string{},
		},
		{
			name:  "admin marker only",
			scope: Scope{Admin: true},
			keys:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.keys, tt.scope.Keys())
			assert.Equal(t, tt.prefixes, tt.scope.Prefixes())
		})
	}
}

func TestScopeIsEmpty(t *testing.T) {
	assert.True(t, Scope{Admin: true}.IsEmpty())
	assert.False(t, OrderChanged("O1", "U1").IsEmpty())
}

func TestInvalidatePrecision(t *testing.T) {
	store := newMemStore()
	for _, key := range []string{
		"latest-products", "categories", "all-products", "product-P1", "product-P2",
		SearchKey("", "", "", "", 1), SearchKey("phone", "asc", "electronics", "500", 2),
		"order-O1", "my-orders-U1", "all-orders", "reviews-P1",
	} {
		require.NoError(t, store.Set(context.Background(), key, []byte("{}"), 0))
	}

	c := NewCoordinator(store, logger.Nop())
	c.Invalidate(context.Background(), Scope{Product: true, ProductIDs: []string{"P1"}})

	for _, gone := range []string{
		"latest-products", "categories", "all-products", "product-P1",
		SearchKey("", "", "", "", 1), SearchKey("phone", "asc", "electronics", "500", 2),
	} {
		assert.False(t, store.has(gone), gone)
	}
	for _, kept := range []string{"product-P2", "order-O1", "my-orders-U1", "all-orders", "reviews-P1"} {
		assert.True(t, store.has(kept), kept)
	}
}

func TestInvalidateOrderDoesNotTouchProducts(t *testing.T) {
	store := newMemStore()
	for _, key := range []string{"all-orders", "order-O1", "my-orders-U1", "my-orders-U2", "product-P1", "latest-products"} {
		require.NoError(t, store.Set(context.Background(), key, []byte("{}"), 0))
	}

	NewCoordinator(store, logger.Nop()).Invalidate(context.Background(), OrderChanged("O1", "U1"))

	assert.False(t, store.has("all-orders"))
	assert.False(t, store.has("order-O1"))
	assert.False(t, store.has("my-orders-U1"))
	assert.True(t, store.has("my-orders-U2"))
	assert.True(t, store.has("product-P1"))
	assert.True(t, store.has("latest-products"))
}

func TestInvalidateSwallowsStoreFailures(t *testing.T) {
	store := newMemStore()
	store.failDel = true

	assert.NotPanics(t, func() {
		NewCoordinator(store, logger.Nop()).Invalidate(context.Background(), ProductDeleted("P1"))
	})
}

func TestSearchKeyUniqueness(t *testing.T) {
	page1 := SearchKey("phone", "asc", "electronics", "500", 1)
	page2 := SearchKey("phone", "asc", "electronics", "500", 2)

	assert.NotEqual(t, page1, page2)
	assert.Equal(t, "products-phone-asc-electronics-500-1", page1)
	assert.Equal(t, "products-----1", SearchKey("", "", "", "", 1))
}
