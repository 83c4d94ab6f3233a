package domain

import "github.com/shopspring/decimal"

type SortOrder string

const (
	SortNone      SortOrder = ""
	SortPriceAsc  SortOrder = "asc"
	SortPriceDesc SortOrder = "desc"
)

// ProductFilter задаёт фильтр поиска товаров. Каждый предикат опционален и задаётся отдельно.
type ProductFilter struct {
	NameContains *string
	Category     *string
	MaxPrice     *decimal.Decimal
	Sort         SortOrder
	Limit        int
	Offset       int
}

func NewProductFilter() *ProductFilter {
	return &ProductFilter{}
}

// WithNameContains добавляет регистронезависимый поиск по подстроке в названии.
func (f *ProductFilter) WithNameContains(search string) *ProductFilter {
	if search != "" {
		f.NameContains = &search
	}
	return f
}

func (f *ProductFilter) WithCategory(category string) *ProductFilter {
	if category = NormalizeCategory(category); category != "" {
		f.Category = &category
	}
	return f
}

// WithMaxPrice оставляет товары с ценой не выше price.
func (f *ProductFilter) WithMaxPrice(price *decimal.Decimal) *ProductFilter {
	if price != nil {
		p := *price
		f.MaxPrice = &p
	}
	return f
}

func (f *ProductFilter) SortedBy(sort SortOrder) *ProductFilter {
	f.Sort = sort
	return f
}

// Paginate задаёт страницу (с единицы) и размер страницы.
func (f *ProductFilter) Paginate(page, perPage int) *ProductFilter {
	f.Limit = perPage
	f.Offset = (page - 1) * perPage
	return f
}
