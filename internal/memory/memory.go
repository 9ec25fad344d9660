// Package memory holds the in-process backend used for local development and
// as the fallback when the configured live store cannot be reached.
//
// Every repository is safe for concurrent use and hands out copies, so callers
// never share slices with the store.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/repository"
)

var (
	_ repository.OrderRepository    = (*OrderRepository)(nil)
	_ repository.ProductRepository  = (*ProductRepository)(nil)
	_ repository.UserRepository     = (*UserRepository)(nil)
	_ repository.CartSlotRepository = (*CartSlots)(nil)
)

// =============================================================================
// ORDERS
// =============================================================================

// OrderRepository keeps orders in a map keyed by id.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order

	// CreateFunc overrides Create, letting tests inject write failures.
	CreateFunc func(ctx context.Context, order domain.Order) error
}

// NewOrderRepository creates an empty order store.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]domain.Order)}
}

// Create stores the order. Writing an id that already exists is a no-op.
func (r *OrderRepository) Create(ctx context.Context, order domain.Order) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, order)
	}
	if err := ctx.Err(); err != nil {
		return domain.Persistence(err, "order.create", "could not save order")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; ok {
		return nil
	}
	r.orders[order.ID] = order.Clone()
	return nil
}

// Get returns a copy of one order.
func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	c := o.Clone()
	return &c, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(func(o domain.Order) bool { return o.UserID == userID }), nil
}

// ListAll returns every order, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.list(func(domain.Order) bool { return true }), nil
}

func (r *OrderRepository) list(keep func(domain.Order) bool) []domain.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, o.Clone())
		}
	}
	domain.SortOrdersNewestFirst(out)
	return out
}

// UpdateStatus changes only the status of an order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	r.orders[id] = o
	return nil
}

// Delete removes an order.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.orders, id)
	return nil
}

// =============================================================================
// PRODUCTS
// =============================================================================

// ProductRepository is the in-memory catalog.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[int64]domain.Product
	nextID   int64
}

// NewProductRepository creates an empty catalog.
func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[int64]domain.Product), nextID: 1}
}

// List returns the catalog ordered by id.
func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b domain.Product) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// Get returns one product.
func (r *ProductRepository) Get(ctx context.Context, id int64) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

// Save inserts or replaces a product.
func (r *ProductRepository) Save(ctx context.Context, p *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == 0 {
		p.ID = r.nextID
	}
	if p.ID >= r.nextID {
		r.nextID = p.ID + 1
	}
	r.products[p.ID] = *p
	return nil
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

// Seed loads products into an empty catalog.
func (r *ProductRepository) Seed(ctx context.Context, products []domain.Product) (bool, error) {
	r.mu.Lock()
	empty := len(r.products) == 0
	r.mu.Unlock()
	if !empty {
		return false, nil
	}

	for i := range products {
		p := products[i]
		if err := r.Save(ctx, &p); err != nil {
			return false, err
		}
	}
	return true, nil
}

// =============================================================================
// USERS
// =============================================================================

// UserRepository keeps profiles keyed by id with an email index.
type UserRepository struct {
	mu      sync.RWMutex
	users   map[string]*domain.User
	byEmail map[string]string
}

// NewUserRepository creates an empty user store.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:   make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create adds a profile. Emails are unique case-insensitively.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := emailKey(u.Email)
	if _, taken := r.byEmail[key]; taken {
		return domain.ErrEmailTaken
	}
	r.users[u.ID] = u.Clone()
	r.byEmail[key] = u.ID
	return nil
}

// Get returns a copy of the profile.
func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u.Clone(), nil
}

// GetByEmail looks a profile up by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return r.users[id].Clone(), nil
}

// List returns all profiles ordered by creation time.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u.Clone())
	}
	slices.SortFunc(out, func(a, b domain.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Email, b.Email)
	})
	return out, nil
}

// Update replaces a stored profile.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.users[u.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byEmail, emailKey(old.Email))
	r.users[u.ID] = u.Clone()
	r.byEmail[emailKey(u.Email)] = u.ID
	return nil
}

// Modify applies fn to a copy of the profile under the write lock.
func (r *UserRepository) Modify(ctx context.Context, id string, fn func(*domain.User) error) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := old.Clone()
	if err := fn(u); err != nil {
		return nil, err
	}
	u.ID = id
	u.Email = old.Email
	r.users[id] = u.Clone()
	return u, nil
}

// Delete removes a profile.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byEmail, emailKey(u.Email))
	delete(r.users, id)
	return nil
}

// =============================================================================
// CART SLOTS
// =============================================================================

// CartSlots is a map-backed key-value slot store.
type CartSlots struct {
	mu    sync.Mutex
	slots map[string][]byte
}

// NewCartSlots creates an empty slot store.
func NewCartSlots() *CartSlots {
	return &CartSlots{slots: make(map[string][]byte)}
}

// Load returns the stored bytes, or nil when the key is absent.
func (s *CartSlots) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.slots[key]), nil
}

// Store overwrites the slot.
func (s *CartSlots) Store(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = slices.Clone(data)
	return nil
}

// Remove deletes the slot.
func (s *CartSlots) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, key)
	return nil
}
