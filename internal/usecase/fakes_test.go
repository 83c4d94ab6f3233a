package usecase_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/cache"
	"github.com/DRSN-tech/storefront-backend/internal/domain"
	redisrepo "github.com/DRSN-tech/storefront-backend/internal/repository/redis"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/clients"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/alicebob/miniredis/v2"
	r "github.com/redis/go-redis/v9"
)

type txKey struct{}

// memTx копит изменения транзакции: до фиксации их видит только она сама.
// Блокировки строк держатся до конца транзакции, как в PostgreSQL.
type memTx struct {
	held     map[string]*sync.Mutex
	products map[string]*domain.Product // nil: строка удалена
	orders   map[string]*domain.Order
	reviews  map[string]*domain.Review
	outbox   []usecase.OutboxEvent
}

func newMemTx() *memTx {
	return &memTx{
		held:     map[string]*sync.Mutex{},
		products: map[string]*domain.Product{},
		orders:   map[string]*domain.Order{},
		reviews:  map[string]*domain.Review{},
	}
}

func txFrom(ctx context.Context) *memTx {
	tx, _ := ctx.Value(txKey{}).(*memTx)
	return tx
}

// memDB хранит зафиксированные записи в памяти. Транзакции изолированы на уровне
// read committed и блокируют только те строки, которые меняют или читают FOR UPDATE.
type memDB struct {
	mu       sync.Mutex
	rowLocks map[string]*sync.Mutex
	products map[string]domain.Product
	orders   map[string]domain.Order
	reviews  map[string]domain.Review
	users    map[string]domain.User
	outbox   []usecase.OutboxEvent
	seq      int
}

func newMemDB() *memDB {
	return &memDB{
		rowLocks: map[string]*sync.Mutex{},
		products: map[string]domain.Product{},
		orders:   map[string]domain.Order{},
		reviews:  map[string]domain.Review{},
		users:    map[string]domain.User{},
	}
}

func (db *memDB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}

	tx := newMemTx()
	defer db.release(tx)

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	db.commit(tx)

	return nil
}

// exec выполняет fn в транзакции из ctx, а без неё в отдельной автокоммитной транзакции.
func (db *memDB) exec(ctx context.Context, fn func(tx *memTx) error) error {
	if tx := txFrom(ctx); tx != nil {
		return fn(tx)
	}

	tx := newMemTx()
	defer db.release(tx)

	if err := fn(tx); err != nil {
		return err
	}
	db.commit(tx)

	return nil
}

func (db *memDB) lock(tx *memTx, key string) {
	if _, ok := tx.held[key]; ok {
		return
	}

	db.mu.Lock()
	m, ok := db.rowLocks[key]
	if !ok {
		m = &sync.Mutex{}
		db.rowLocks[key] = m
	}
	db.mu.Unlock()

	m.Lock()
	tx.held[key] = m
}

func (db *memDB) release(tx *memTx) {
	for key, m := range tx.held {
		delete(tx.held, key)
		m.Unlock()
	}
}

func (db *memDB) commit(tx *memTx) {
	db.mu.Lock()
	defer db.mu.Unlock()

	apply(db.products, tx.products)
	apply(db.orders, tx.orders)
	apply(db.reviews, tx.reviews)
	for _, event := range tx.outbox {
		event.ID = int64(len(db.outbox) + 1)
		db.outbox = append(db.outbox, event)
	}
}

func apply[T any](committed map[string]T, staged map[string]*T) {
	for id, v := range staged {
		if v == nil {
			delete(committed, id)
			continue
		}
		committed[id] = *v
	}
}

// view возвращает зафиксированные строки поверх которых наложены изменения транзакции.
func view[T any](db *memDB, committed map[string]T, staged map[string]*T) map[string]T {
	db.mu.Lock()
	res := make(map[string]T, len(committed))
	for id, v := range committed {
		res[id] = v
	}
	db.mu.Unlock()

	for id, v := range staged {
		if v == nil {
			delete(res, id)
			continue
		}
		res[id] = *v
	}

	return res
}

func get[T any](db *memDB, committed map[string]T, staged map[string]*T, id string) (T, bool) {
	if v, ok := staged[id]; ok {
		if v == nil {
			var zero T
			return zero, false
		}
		return *v, true
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	v, ok := committed[id]
	return v, ok
}

// stagedProducts и остальные возвращают nil вне транзакции: чтение идёт только по зафиксированным данным.
func stagedProducts(tx *memTx) map[string]*domain.Product {
	if tx == nil {
		return nil
	}
	return tx.products
}

func stagedOrders(tx *memTx) map[string]*domain.Order {
	if tx == nil {
		return nil
	}
	return tx.orders
}

func stagedReviews(tx *memTx) map[string]*domain.Review {
	if tx == nil {
		return nil
	}
	return tx.reviews
}

func (db *memDB) addUser(id, name string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[id] = domain.User{ID: id, Name: name, Photo: "https://photos/" + id}
}

func (db *memDB) user(id string) domain.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.users[id]
}

func (db *memDB) nextCreatedAt() time.Time {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.seq++
	return time.Unix(int64(db.seq), 0)
}

func (db *memDB) addProduct(p domain.Product) {
	p.CreatedAt = db.nextCreatedAt()
	db.mu.Lock()
	defer db.mu.Unlock()
	db.products[p.ID] = p
}

func (db *memDB) product(id string) domain.Product {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.products[id]
}

func (db *memDB) outboxEvents() []usecase.OutboxEvent {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]usecase.OutboxEvent(nil), db.outbox...)
}

// PRODUCTS

type productRepo struct{ db *memDB }

func productLock(id string) string { return "product:" + id }

func (p productRepo) read(tx *memTx, id string) (domain.Product, bool) {
	return get(p.db, p.db.products, stagedProducts(tx), id)
}

func (p productRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	created := *product
	created.CreatedAt = p.db.nextCreatedAt()
	err := p.db.exec(ctx, func(tx *memTx) error {
		p.db.lock(tx, productLock(created.ID))
		tx.products[created.ID] = &created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (p productRepo) Update(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	updated := *product
	err := p.db.exec(ctx, func(tx *memTx) error {
		p.db.lock(tx, productLock(updated.ID))
		if _, ok := p.read(tx, updated.ID); !ok {
			return e.ErrProductNotFound
		}
		tx.products[updated.ID] = &updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (p productRepo) Delete(ctx context.Context, id string) error {
	return p.db.exec(ctx, func(tx *memTx) error {
		p.db.lock(tx, productLock(id))
		if _, ok := p.read(tx, id); !ok {
			return e.ErrProductNotFound
		}
		tx.products[id] = nil
		for rid, review := range view(p.db, p.db.reviews, tx.reviews) {
			if review.ProductID == id {
				tx.reviews[rid] = nil
			}
		}
		return nil
	})
}

func (p productRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	product, ok := p.read(txFrom(ctx), id)
	if !ok {
		return nil, e.ErrProductNotFound
	}
	return &product, nil
}

func (p productRepo) GetForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	err := p.db.exec(ctx, func(tx *memTx) error {
		p.db.lock(tx, productLock(id))
		var ok bool
		if product, ok = p.read(tx, id); !ok {
			return e.ErrProductNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (p productRepo) sorted(ctx context.Context) []domain.Product {
	rows := view(p.db, p.db.products, stagedProducts(txFrom(ctx)))
	res := make([]domain.Product, 0, len(rows))
	for _, product := range rows {
		res = append(res, product)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res
}

func (p productRepo) Latest(ctx context.Context, limit int) ([]domain.Product, error) {
	res := p.sorted(ctx)
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (p productRepo) All(ctx context.Context) ([]domain.Product, error) {
	return p.sorted(ctx), nil
}

func (p productRepo) Categories(ctx context.Context) ([]string, error) {
	set := map[string]struct{}{}
	for _, product := range p.sorted(ctx) {
		set[product.Category] = struct{}{}
	}
	res := make([]string, 0, len(set))
	for c := range set {
		res = append(res, c)
	}
	sort.Strings(res)
	return res, nil
}

func (p productRepo) filter(ctx context.Context, f *domain.ProductFilter) []domain.Product {
	var res []domain.Product
	for _, product := range p.sorted(ctx) {
		if f.NameContains != nil && !strings.Contains(strings.ToLower(product.Name), strings.ToLower(*f.NameContains)) {
			continue
		}
		if f.Category != nil && product.Category != *f.Category {
			continue
		}
		if f.MaxPrice != nil && product.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		res = append(res, product)
	}
	switch f.Sort {
	case domain.SortPriceAsc:
		sort.SliceStable(res, func(i, j int) bool { return res[i].Price.LessThan(res[j].Price) })
	case domain.SortPriceDesc:
		sort.SliceStable(res, func(i, j int) bool { return res[i].Price.GreaterThan(res[j].Price) })
	}
	return res
}

func (p productRepo) Search(ctx context.Context, f *domain.ProductFilter) ([]domain.Product, error) {
	res := p.filter(ctx, f)
	if f.Offset >= len(res) {
		return []domain.Product{}, nil
	}
	res = res[f.Offset:]
	if len(res) > f.Limit {
		res = res[:f.Limit]
	}
	return res, nil
}

func (p productRepo) Count(ctx context.Context, f *domain.ProductFilter) (int, error) {
	return len(p.filter(ctx, f)), nil
}

// DecrementStock повторяет условный UPDATE: ждёт блокировку строки и проверяет уже актуальный остаток.
func (p productRepo) DecrementStock(ctx context.Context, id string, quantity int) error {
	return p.db.exec(ctx, func(tx *memTx) error {
		p.db.lock(tx, productLock(id))
		product, ok := p.read(tx, id)
		if !ok {
			return e.ErrProductNotFound
		}
		if product.Stock < quantity {
			return &e.InsufficientStockError{ProductID: id, Requested: quantity, Available: product.Stock}
		}
		product.Stock -= quantity
		tx.products[id] = &product
		return nil
	})
}

func (p productRepo) UpdateRatings(ctx context.Context, id string, summary domain.RatingSummary) error {
	return p.db.exec(ctx, func(tx *memTx) error {
		p.db.lock(tx, productLock(id))
		product, ok := p.read(tx, id)
		if !ok {
			return e.ErrProductNotFound
		}
		product.Ratings = summary.Ratings
		product.NumOfReviews = summary.NumOfReviews
		tx.products[id] = &product
		return nil
	})
}

// ORDERS

type orderRepo struct{ db *memDB }

func orderLock(id string) string { return "order:" + id }

func (o orderRepo) withName(order domain.Order) domain.Order {
	order.UserName = o.db.user(order.UserID).Name
	return order
}

func (o orderRepo) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	stored := *order
	err := o.db.exec(ctx, func(tx *memTx) error {
		o.db.lock(tx, orderLock(stored.ID))
		tx.orders[stored.ID] = &stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	created := o.withName(stored)
	return &created, nil
}

func (o orderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order, ok := get(o.db, o.db.orders, stagedOrders(txFrom(ctx)), id)
	if !ok {
		return nil, e.ErrOrderNotFound
	}
	order = o.withName(order)
	return &order, nil
}

func (o orderRepo) GetForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := o.db.exec(ctx, func(tx *memTx) error {
		o.db.lock(tx, orderLock(id))
		var ok bool
		if order, ok = get(o.db, o.db.orders, tx.orders, id); !ok {
			return e.ErrOrderNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	order = o.withName(order)
	return &order, nil
}

func (o orderRepo) list(ctx context.Context, match func(domain.Order) bool) []domain.Order {
	res := []domain.Order{}
	for _, order := range view(o.db, o.db.orders, stagedOrders(txFrom(ctx))) {
		if match(order) {
			res = append(res, o.withName(order))
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (o orderRepo) All(ctx context.Context) ([]domain.Order, error) {
	return o.list(ctx, func(domain.Order) bool { return true }), nil
}

func (o orderRepo) ByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return o.list(ctx, func(order domain.Order) bool { return order.UserID == userID }), nil
}

func (o orderRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	return o.db.exec(ctx, func(tx *memTx) error {
		o.db.lock(tx, orderLock(id))
		order, ok := get(o.db, o.db.orders, tx.orders, id)
		if !ok {
			return e.ErrOrderNotFound
		}
		order.Status = status
		tx.orders[id] = &order
		return nil
	})
}

func (o orderRepo) Delete(ctx context.Context, id string) error {
	return o.db.exec(ctx, func(tx *memTx) error {
		o.db.lock(tx, orderLock(id))
		if _, ok := get(o.db, o.db.orders, tx.orders, id); !ok {
			return e.ErrOrderNotFound
		}
		tx.orders[id] = nil
		return nil
	})
}

// REVIEWS

type reviewRepo struct{ db *memDB }

// reviewLock имитирует уникальный индекс (user_id, product_id).
func reviewLock(userID, productID string) string { return "review:" + userID + ":" + productID }

func (rr reviewRepo) Upsert(ctx context.Context, review *domain.Review) (bool, error) {
	var created bool
	err := rr.db.exec(ctx, func(tx *memTx) error {
		rr.db.lock(tx, reviewLock(review.UserID, review.ProductID))
		for id, existing := range view(rr.db, rr.db.reviews, tx.reviews) {
			if existing.UserID == review.UserID && existing.ProductID == review.ProductID {
				existing.Rating = review.Rating
				existing.Comment = review.Comment
				tx.reviews[id] = &existing
				return nil
			}
		}
		stored := *review
		tx.reviews[stored.ID] = &stored
		created = true
		return nil
	})
	return created, err
}

func (rr reviewRepo) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	review, ok := get(rr.db, rr.db.reviews, stagedReviews(txFrom(ctx)), id)
	if !ok {
		return nil, e.ErrReviewNotFound
	}
	return &review, nil
}

func (rr reviewRepo) Delete(ctx context.Context, id string) error {
	return rr.db.exec(ctx, func(tx *memTx) error {
		review, ok := get(rr.db, rr.db.reviews, tx.reviews, id)
		if !ok {
			return e.ErrReviewNotFound
		}
		rr.db.lock(tx, reviewLock(review.UserID, review.ProductID))
		tx.reviews[id] = nil
		return nil
	})
}

func (rr reviewRepo) forProduct(ctx context.Context, productID string) []domain.Review {
	res := []domain.Review{}
	for _, review := range view(rr.db, rr.db.reviews, stagedReviews(txFrom(ctx))) {
		if review.ProductID == productID {
			res = append(res, review)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (rr reviewRepo) ByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	res := rr.forProduct(ctx, productID)
	for i := range res {
		user := rr.db.user(res[i].UserID)
		res[i].User = domain.Reviewer{ID: user.ID, Name: user.Name, Photo: user.Photo}
	}
	return res, nil
}

func (rr reviewRepo) RatingStats(ctx context.Context, productID string) (int64, int64, error) {
	var sum, count int64
	for _, review := range rr.forProduct(ctx, productID) {
		sum += int64(review.Rating)
		count++
	}
	return sum, count, nil
}

// USERS, OUTBOX

type userRepo struct{ db *memDB }

func (u userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	user, ok := u.db.users[id]
	if !ok {
		return nil, e.ErrUserNotFound
	}
	return &user, nil
}

type outboxRepo struct{ db *memDB }

func (o outboxRepo) Create(ctx context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	err := o.db.exec(ctx, func(tx *memTx) error {
		tx.outbox = append(tx.outbox, *event)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (o outboxRepo) GetAndMarkAsProcessing(context.Context, int) ([]*usecase.OutboxEvent, error) {
	return nil, nil
}

func (o outboxRepo) MarkAsProcessed(context.Context, int64) error {
	return nil
}

func (o outboxRepo) MarkAsPending(context.Context, int64) error {
	return nil
}

// PHOTOS

type fakePhotos struct {
	mu        sync.Mutex
	stored    map[string]bool
	uploadErr error
	cleaned   []string
	// onUpload вызывается в начале загрузки, пока запрос ещё не сохранён
	onUpload func()
}

func newFakePhotos() *fakePhotos {
	return &fakePhotos{stored: map[string]bool{}}
}

func (f *fakePhotos) UploadPhotos(_ context.Context, req *usecase.UploadPhotosReq) ([]domain.Photo, error) {
	f.mu.Lock()
	hook := f.onUpload
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	photos := make([]domain.Photo, 0, len(req.Images))
	for _, img := range req.Images {
		id := req.Folder + "/" + img.Name
		f.stored[id] = true
		photos = append(photos, domain.Photo{StorageID: id, URL: "http://minio/" + id})
	}
	return photos, nil
}

func (f *fakePhotos) DeletePhotos(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.stored, id)
	}
	return nil
}

func (f *fakePhotos) CleanupPhotos(ids []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.stored, id)
	}
	f.cleaned = append(f.cleaned, ids...)
}

func (f *fakePhotos) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored[id]
}

// ENV

// env собирает use case'ы поверх памяти и Redis (miniredis), как в приложении.
type env struct {
	db      *memDB
	mr      *miniredis.Miniredis
	photos  *fakePhotos
	product *usecase.ProductUseCase
	order   *usecase.OrderUseCase
	review  *usecase.ReviewUseCase
}

const testPerPage = 2

func newEnv(t *testing.T) *env {
	t.Helper()

	mr := miniredis.RunT(t)
	client := &clients.RedisClient{Client: r.NewClient(&r.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { _ = client.Client.Close() })

	log := logger.Nop()
	store := redisrepo.NewCacheRepo(client, log)
	readThrough := cache.NewReadThrough(store, log, 4*time.Hour)
	coordinator := cache.NewCoordinator(store, log)

	db := newMemDB()
	products := productRepo{db: db}
	reviews := reviewRepo{db: db}
	users := userRepo{db: db}
	photos := newFakePhotos()

	return &env{
		db:      db,
		mr:      mr,
		photos:  photos,
		product: usecase.NewProductUC(products, photos, db, readThrough, coordinator, log, testPerPage),
		order: usecase.NewOrderUC(orderRepo{db: db}, users, outboxRepo{db: db},
			usecase.NewStockEngine(products), db, readThrough, coordinator, log),
		review: usecase.NewReviewUC(reviews, products, users,
			usecase.NewRatingAggregator(reviews), db, readThrough, coordinator, log),
	}
}
