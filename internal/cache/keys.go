package cache

import (
	"fmt"
	"time"
)

// Фиксированная схема ключей. Пространство ключей общее и плоское,
// поэтому коллизии исключаются только именованием.
const (
	KeyLatestProducts = "latest-products"
	KeyCategories     = "categories"
	KeyAllProducts    = "all-products"
	KeyAllOrders      = "all-orders"

	// ключи поисковой выдачи удаляются целиком по префиксу
	PrefixSearch = "products-"

	// SearchTTL не настраивается: пространство комбинаций фильтров не ограничено.
	SearchTTL = 30 * time.Second
)

func ProductKey(productID string) string {
	return "product-" + productID
}

func OrderKey(orderID string) string {
	return "order-" + orderID
}

func MyOrdersKey(userID string) string {
	return "my-orders-" + userID
}

func ReviewsKey(productID string) string {
	return "reviews-" + productID
}

// SearchKey строит ключ products-{search}-{sort}-{category}-{price}-{page}.
// Дефисы внутри значений не экранируются, поэтому разные фильтры могут дать один ключ
// (search "a-" + category "b" и search "a" + category "-b"); такая коллизия живёт не дольше SearchTTL.
func SearchKey(search, sort, category, price string, page int) string {
	return fmt.Sprintf("%s%s-%s-%s-%s-%d", PrefixSearch, search, sort, category, price, page)
}
