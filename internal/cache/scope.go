package cache

import "sort"

// Scope описывает, какие закэшированные проекции устарели после мутации.
// Поля независимы; конструкторы ниже перечисляют все комбинации, которые порождают мутации.
type Scope struct {
	Product bool
	Order   bool
	// Admin зарезервирован под кэши админ-панели и сейчас ничего не удаляет.
	Admin  bool
	Review bool

	ProductIDs []string
	OrderID    string
	UserID     string
}

// ProductCreated — новый товар: меняются все списки товаров и категории.
func ProductCreated() Scope {
	return Scope{Product: true, Admin: true}
}

// ProductUpdated: изменение полей товара (в т.ч. рейтинга и фото).
func ProductUpdated(productID string) Scope {
	return Scope{Product: true, Admin: true, ProductIDs: []string{productID}}
}

// ProductDeleted: удаление товара вместе с его отзывами.
func ProductDeleted(productID string) Scope {
	return Scope{Product: true, Admin: true, Review: true, ProductIDs: []string{productID}}
}

// OrderPlaced — новый заказ: меняются остатки всех товаров заказа и списки заказов.
func OrderPlaced(userID string, productIDs []string) Scope {
	return Scope{Product: true, Order: true, Admin: true, UserID: userID, ProductIDs: productIDs}
}

// OrderChanged: смена статуса или удаление заказа. Кэши товаров не затрагиваются.
func OrderChanged(orderID, userID string) Scope {
	return Scope{Order: true, Admin: true, OrderID: orderID, UserID: userID}
}

// ReviewsChanged — создание, изменение или удаление отзыва: меняются сводка рейтинга и список отзывов.
func ReviewsChanged(productID string) Scope {
	return Scope{Product: true, Admin: true, Review: true, ProductIDs: []string{productID}}
}

// Keys возвращает отсортированный набор точных ключей для удаления.
func (s Scope) Keys() []string {
	set := make(map[string]struct{})
	add := func(key string) { set[key] = struct{}{} }

	if s.Product {
		add(KeyLatestProducts)
		add(KeyCategories)
		add(KeyAllProducts)
	}

	for _, id := range s.ProductIDs {
		if id == "" {
			continue
		}
		add(ProductKey(id))
		if s.Review {
			add(ReviewsKey(id))
		}
	}

	if s.Order {
		add(KeyAllOrders)
	}

	if s.OrderID != "" {
		add(OrderKey(s.OrderID))
	}

	if s.UserID != "" {
		add(MyOrdersKey(s.UserID))
	}

	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}

// Prefixes возвращает префиксы ключей с переменным суффиксом, которые нужно удалить.
func (s Scope) Prefixes() []string {
	if s.Product {
		return []string{PrefixSearch}
	}

	return nil
}

// IsEmpty сообщает, что мутация не затрагивает ни одного ключа.
func (s Scope) IsEmpty() bool {
	return len(s.Keys()) == 0 && len(s.Prefixes()) == 0
}
