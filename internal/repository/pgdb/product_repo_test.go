package pgdb

import (
	"strings"
	"testing"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBuildSearchQuery(t *testing.T) {
	price := decimal.NewFromInt(500)

	tests := []struct {
		name     string
		filter   *domain.ProductFilter
		contains []string
		args     []any
	}{
		{
			name:     "no predicates",
			filter:   domain.NewProductFilter().Paginate(1, 8),
			contains: []string{"FROM products ORDER BY created_at DESC LIMIT $1 OFFSET $2"},
			args:     []any{8, 0},
		},
		{
			name: "all predicates sorted desc",
			filter: domain.NewProductFilter().
				WithNameContains("50%_off").
				WithCategory(" Shoes ").
				WithMaxPrice(&price).
				SortedBy(domain.SortPriceDesc).
				Paginate(3, 8),
			contains: []string{
				`WHERE name ILIKE '%' || $1 || '%' AND category = $2 AND price <= $3`,
				"ORDER BY price DESC, created_at DESC LIMIT $4 OFFSET $5",
			},
			args: []any{`50\%\_off`, "shoes", price, 8, 16},
		},
		{
			name:     "category only ascending",
			filter:   domain.NewProductFilter().WithCategory("books").SortedBy(domain.SortPriceAsc).Paginate(1, 4),
			contains: []string{"WHERE category = $1 ORDER BY price ASC"},
			args:     []any{"books", 4, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildSearchQuery(tt.filter)
			for _, part := range tt.contains {
				assert.Contains(t, query, part)
			}
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestBuildSearchWhereSharesArgsWithCount(t *testing.T) {
	filter := domain.NewProductFilter().WithNameContains("lap").Paginate(2, 8)

	where, args := buildSearchWhere(filter)
	query, queryArgs := buildSearchQuery(filter)

	assert.True(t, strings.Contains(query, where))
	assert.Equal(t, args, queryArgs[:len(args)])
	assert.Len(t, queryArgs, len(args)+2)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\\b\%c\_d`, escapeLike(`a\b%c_d`))
	assert.Equal(t, "shirt", escapeLike("shirt"))
}
