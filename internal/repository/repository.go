// Package repository declares the storage contracts shared by the Firestore,
// PostgreSQL and in-memory backends.
package repository

//go:generate mockgen -destination=mock_order.go -package=repository . OrderRepository

import (
	"context"

	"github.com/dukerupert/campusshop/internal/domain"
)

// OrderRepository persists placed orders.
//
// Create is idempotent on Order.ID so a retried write after an ambiguous
// failure never produces a second order. List methods return orders newest
// first.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) error
	Get(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	Delete(ctx context.Context, id string) error
}

// ProductRepository is the catalog store.
type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (*domain.Product, error)
	// Save inserts when p.ID is zero (assigning the next id) and replaces otherwise.
	Save(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int64) error
	// Seed writes products only when the catalog is empty. It reports whether it wrote.
	Seed(ctx context.Context, products []domain.Product) (bool, error)
}

// UserRepository stores profiles and their address books.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	// Modify applies fn to the stored profile and writes the result as one
	// atomic read-modify-write. An error from fn aborts without writing and
	// is returned as-is. fn must not change the email.
	Modify(ctx context.Context, id string, fn func(*domain.User) error) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// CartSlotRepository is the durable key-value slot holding a serialized cart.
// Load returns nil data and no error when the key is absent.
type CartSlotRepository interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Store(ctx context.Context, key string, data []byte) error
	Remove(ctx context.Context, key string) error
}
