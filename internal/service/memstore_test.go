package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"shoply/internal/domain"
	"shoply/internal/repository"

	"github.com/google/uuid"
)

// memData is the shared state behind the in-memory store.
type memData struct {
	products map[uuid.UUID]*domain.Product
	carts    map[uuid.UUID][]domain.CartItem
	orders   map[uuid.UUID]*domain.Order
	reviews  map[uuid.UUID]*domain.Review
}

func newMemData() *memData {
	return &memData{
		products: make(map[uuid.UUID]*domain.Product),
		carts:    make(map[uuid.UUID][]domain.CartItem),
		orders:   make(map[uuid.UUID]*domain.Order),
		reviews:  make(map[uuid.UUID]*domain.Review),
	}
}

func (d *memData) clone() *memData {
	c := newMemData()
	for id, p := range d.products {
		cp := *p
		c.products[id] = &cp
	}
	for id, items := range d.carts {
		c.carts[id] = append([]domain.CartItem(nil), items...)
	}
	for id, o := range d.orders {
		co := *o
		co.Items = append([]domain.OrderItem(nil), o.Items...)
		c.orders[id] = &co
	}
	for id, r := range d.reviews {
		cr := *r
		c.reviews[id] = &cr
	}
	return c
}

// memStore is an in-memory repository.Store. A single mutex serializes
// transactions, and ExecTx snapshots the state up front and restores it when
// fn fails, mirroring the rollback semantics of the SQL store.
type memStore struct {
	mu   sync.Mutex
	data *memData

	failOrderCreate bool
	failCartClear   bool
}

func newMemStore() *memStore {
	return &memStore{data: newMemData()}
}

func (s *memStore) addProduct(name string, sellPrice float64, stock int) *domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &domain.Product{
		ID:    uuid.New(),
		Name:  name,
		Slug:  name,
		Price: domain.Price{OriginPrice: sellPrice, SellPrice: sellPrice},
		Stock: stock,
	}
	s.data.products[p.ID] = p
	return p
}

func (s *memStore) setCart(userID uuid.UUID, items []domain.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.carts[userID] = append([]domain.CartItem(nil), items...)
}

func (s *memStore) productStock(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.products[id].Stock
}

func (s *memStore) cartLen(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.carts[userID])
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.orders)
}

func (s *memStore) Products() repository.ProductRepository { return &memProductRepo{s: s} }
func (s *memStore) Carts() repository.CartRepository       { return &memCartRepo{s: s} }
func (s *memStore) Orders() repository.OrderRepository     { return &memOrderRepo{s: s} }
func (s *memStore) Reviews() repository.ReviewRepository   { return &memReviewRepo{s: s} }

func (s *memStore) ExecTx(ctx context.Context, fn func(repository.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(&memTxStore{s}); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// memTxStore operates on the already-locked store; nested ExecTx runs fn
// directly like the SQL tx-bound store does.
type memTxStore struct {
	s *memStore
}

func (t *memTxStore) Products() repository.ProductRepository {
	return &memProductRepo{s: t.s, locked: true}
}
func (t *memTxStore) Carts() repository.CartRepository {
	return &memCartRepo{s: t.s, locked: true}
}
func (t *memTxStore) Orders() repository.OrderRepository {
	return &memOrderRepo{s: t.s, locked: true}
}
func (t *memTxStore) Reviews() repository.ReviewRepository {
	return &memReviewRepo{s: t.s, locked: true}
}
func (t *memTxStore) ExecTx(ctx context.Context, fn func(repository.Store) error) error {
	return fn(t)
}

type memProductRepo struct {
	s      *memStore
	locked bool
}

func (r *memProductRepo) lock() func() {
	if r.locked {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *memProductRepo) Create(ctx context.Context, p *domain.Product) error {
	defer r.lock()()
	r.s.data.products[p.ID] = p
	return nil
}

func (r *memProductRepo) Update(ctx context.Context, p *domain.Product) error {
	defer r.lock()()
	if _, ok := r.s.data.products[p.ID]; !ok {
		return repository.ErrProductNotFound
	}
	r.s.data.products[p.ID] = p
	return nil
}

func (r *memProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.lock()()
	if _, ok := r.s.data.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(r.s.data.products, id)
	return nil
}

func (r *memProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	defer r.lock()()
	p, ok := r.s.data.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memProductRepo) List(ctx context.Context, filter repository.ProductFilter, page, pageSize int, sortBy string, sortOrder repository.SortOrder) ([]*domain.Product, int, error) {
	return nil, 0, errors.New("not implemented")
}

func (r *memProductRepo) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Product, int, error) {
	return nil, 0, errors.New("not implemented")
}

func (r *memProductRepo) Reserve(ctx context.Context, id uuid.UUID, quantity int) error {
	defer r.lock()()
	p, ok := r.s.data.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	if p.Stock < quantity {
		return &repository.InsufficientStockError{
			ProductID: p.ID,
			Name:      p.Name,
			Requested: quantity,
			Available: p.Stock,
		}
	}
	p.Stock -= quantity
	return nil
}

func (r *memProductRepo) Release(ctx context.Context, id uuid.UUID, quantity int) error {
	defer r.lock()()
	p, ok := r.s.data.products[id]
	if !ok {
		// Deleted products swallow the release, same as the SQL repo.
		return nil
	}
	p.Stock += quantity
	return nil
}

func (r *memProductRepo) SetRating(ctx context.Context, id uuid.UUID, avgRating float64, numReviews int) error {
	defer r.lock()()
	p, ok := r.s.data.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.AvgRating = avgRating
	p.NumReviews = numReviews
	return nil
}

type memCartRepo struct {
	s      *memStore
	locked bool
}

func (r *memCartRepo) lock() func() {
	if r.locked {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *memCartRepo) GetItems(ctx context.Context, userID uuid.UUID) ([]domain.CartItem, error) {
	defer r.lock()()
	return append([]domain.CartItem(nil), r.s.data.carts[userID]...), nil
}

func (r *memCartRepo) UpsertItem(ctx context.Context, userID uuid.UUID, item domain.CartItem) error {
	defer r.lock()()
	items := r.s.data.carts[userID]
	for i := range items {
		if items[i].ProductID == item.ProductID {
			items[i] = item
			return nil
		}
	}
	r.s.data.carts[userID] = append(items, item)
	return nil
}

func (r *memCartRepo) ReplaceItems(ctx context.Context, userID uuid.UUID, items []domain.CartItem) error {
	defer r.lock()()
	if len(items) == 0 {
		delete(r.s.data.carts, userID)
		return nil
	}
	r.s.data.carts[userID] = append([]domain.CartItem(nil), items...)
	return nil
}

func (r *memCartRepo) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	defer r.lock()()
	items := r.s.data.carts[userID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (r *memCartRepo) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	defer r.lock()()
	items := r.s.data.carts[userID]
	for i := range items {
		if items[i].ProductID == productID {
			r.s.data.carts[userID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return repository.ErrCartItemNotFound
}

func (r *memCartRepo) Clear(ctx context.Context, userID uuid.UUID) error {
	defer r.lock()()
	if r.s.failCartClear {
		return errors.New("forced cart clear failure")
	}
	delete(r.s.data.carts, userID)
	return nil
}

type memOrderRepo struct {
	s      *memStore
	locked bool
}

func (r *memOrderRepo) lock() func() {
	if r.locked {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *memOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	defer r.lock()()
	if r.s.failOrderCreate {
		return errors.New("forced order create failure")
	}
	co := *order
	co.Items = append([]domain.OrderItem(nil), order.Items...)
	r.s.data.orders[order.ID] = &co
	return nil
}

func (r *memOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	defer r.lock()()
	o, ok := r.s.data.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	co := *o
	co.Items = append([]domain.OrderItem(nil), o.Items...)
	return &co, nil
}

func (r *memOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	defer r.lock()()
	var orders []*domain.Order
	for _, o := range r.s.data.orders {
		if o.UserID == userID {
			co := *o
			orders = append(orders, &co)
		}
	}
	// Newest first, matching the SQL repository.
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].OrderDate.After(orders[j].OrderDate)
	})
	return orders, nil
}

func (r *memOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	defer r.lock()()
	o, ok := r.s.data.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	o.Status = status
	now := time.Now()
	if status == domain.OrderStatusPaid && o.PaidAt == nil {
		o.PaidAt = &now
	}
	if status == domain.OrderStatusDelivered && o.DeliveredAt == nil {
		o.DeliveredAt = &now
	}
	co := *o
	return &co, nil
}

func (r *memOrderRepo) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	defer r.lock()()
	o, ok := r.s.data.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if o.Status != domain.OrderStatusPending {
		return repository.ErrOrderNotPending
	}
	o.Status = domain.OrderStatusCancelled
	return nil
}

type memReviewRepo struct {
	s      *memStore
	locked bool
}

func (r *memReviewRepo) lock() func() {
	if r.locked {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *memReviewRepo) Create(ctx context.Context, review *domain.Review) error {
	defer r.lock()()
	for _, existing := range r.s.data.reviews {
		if existing.UserID == review.UserID && existing.ProductID == review.ProductID {
			return repository.ErrReviewAlreadyExists
		}
	}
	cr := *review
	r.s.data.reviews[review.ID] = &cr
	return nil
}

func (r *memReviewRepo) Update(ctx context.Context, review *domain.Review) error {
	defer r.lock()()
	if _, ok := r.s.data.reviews[review.ID]; !ok {
		return repository.ErrReviewNotFound
	}
	cr := *review
	r.s.data.reviews[review.ID] = &cr
	return nil
}

func (r *memReviewRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.lock()()
	if _, ok := r.s.data.reviews[id]; !ok {
		return repository.ErrReviewNotFound
	}
	delete(r.s.data.reviews, id)
	return nil
}

func (r *memReviewRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	defer r.lock()()
	rv, ok := r.s.data.reviews[id]
	if !ok {
		return nil, repository.ErrReviewNotFound
	}
	cr := *rv
	return &cr, nil
}

func (r *memReviewRepo) ListByProduct(ctx context.Context, productID uuid.UUID, page, pageSize int) ([]*domain.Review, int, error) {
	defer r.lock()()
	var reviews []*domain.Review
	for _, rv := range r.s.data.reviews {
		if rv.ProductID == productID {
			cr := *rv
			reviews = append(reviews, &cr)
		}
	}
	return reviews, len(reviews), nil
}

func (r *memReviewRepo) AggregateForProduct(ctx context.Context, productID uuid.UUID) (float64, int, error) {
	defer r.lock()()
	var sum, count int
	for _, rv := range r.s.data.reviews {
		if rv.ProductID == productID {
			sum += rv.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}
