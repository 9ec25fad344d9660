package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/repository"
)

var (
	_ repository.OrderRepository    = (*OrderRepository)(nil)
	_ repository.ProductRepository  = (*ProductRepository)(nil)
	_ repository.UserRepository     = (*UserRepository)(nil)
	_ repository.CartSlotRepository = (*CartSlotRepository)(nil)
)

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// =============================================================================
// ORDERS
// =============================================================================

// OrderRepository stores orders in the "orders" collection keyed by order id.
type OrderRepository struct {
	coll collection[orderDocument]
}

// NewOrderRepository creates a Firestore-backed order repository.
func NewOrderRepository(p *Provider) *OrderRepository {
	return &OrderRepository{coll: newCollection[orderDocument](p, ordersCollection)}
}

// Create writes the order. An existing document with the same id counts as success.
func (r *OrderRepository) Create(ctx context.Context, order domain.Order) error {
	ref, err := r.coll.doc(ctx, order.ID)
	if err != nil {
		return domain.Persistence(err, "order.create", "could not reach storage")
	}
	if _, err := ref.Create(ctx, newOrderDocument(order)); err != nil {
		if isAlreadyExists(err) {
			return nil
		}
		return domain.Persistence(err, "order.create", "could not save order")
	}
	return nil
}

// Get loads one order.
func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	doc, err := r.coll.get(ctx, id)
	if err != nil {
		return nil, wrapError("order.get", err, domain.ErrOrderNotFound)
	}
	o := doc.toDomain()
	return &o, nil
}

// ListByUser returns the user's orders, newest first.
// Sorting happens in memory so no composite index is needed.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	docs, err := r.coll.query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("userId", "==", userID)
	})
	if err != nil {
		return nil, wrapError("order.list_by_user", err, nil)
	}
	return toOrders(docs), nil
}

// ListAll returns every order, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	docs, err := r.coll.query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("date", firestore.Desc)
	})
	if err != nil {
		return nil, wrapError("order.list_all", err, nil)
	}
	return toOrders(docs), nil
}

func toOrders(docs []orderDocument) []domain.Order {
	orders := make([]domain.Order, len(docs))
	for i, d := range docs {
		orders[i] = d.toDomain()
	}
	domain.SortOrdersNewestFirst(orders)
	return orders
}

// UpdateStatus patches the status field only.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	ref, err := r.coll.doc(ctx, id)
	if err != nil {
		return wrapError("order.update_status", err, nil)
	}
	_, err = ref.Update(ctx, []firestore.Update{{Path: "status", Value: string(status)}})
	return wrapError("order.update_status", err, domain.ErrOrderNotFound)
}

// Delete removes the order document.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	ref, err := r.coll.doc(ctx, id)
	if err != nil {
		return wrapError("order.delete", err, nil)
	}
	_, err = ref.Delete(ctx, firestore.Exists)
	return wrapError("order.delete", err, domain.ErrOrderNotFound)
}

// =============================================================================
// PRODUCTS
// =============================================================================

// ProductRepository stores the catalog in the "products" collection.
// Document ids are the decimal product id.
type ProductRepository struct {
	coll collection[productDocument]
}

// NewProductRepository creates a Firestore-backed catalog.
func NewProductRepository(p *Provider) *ProductRepository {
	return &ProductRepository{coll: newCollection[productDocument](p, productsCollection)}
}

func productDocID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// List returns the catalog ordered by id.
func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	docs, err := r.coll.query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("id", firestore.Asc)
	})
	if err != nil {
		return nil, wrapError("product.list", err, nil)
	}
	products := make([]domain.Product, len(docs))
	for i, d := range docs {
		products[i] = d.toDomain()
	}
	return products, nil
}

// Get loads one product.
func (r *ProductRepository) Get(ctx context.Context, id int64) (*domain.Product, error) {
	doc, err := r.coll.get(ctx, productDocID(id))
	if err != nil {
		return nil, wrapError("product.get", err, domain.ErrProductNotFound)
	}
	p := doc.toDomain()
	return &p, nil
}

// Save upserts a product, allocating the next id inside a transaction for new ones.
func (r *ProductRepository) Save(ctx context.Context, p *domain.Product) error {
	client, err := r.coll.provider.Client(ctx)
	if err != nil {
		return wrapError("product.save", err, nil)
	}
	coll := client.Collection(productsCollection)

	err = client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if p.ID == 0 {
			snaps, err := tx.Documents(coll.OrderBy("id", firestore.Desc).Limit(1)).GetAll()
			if err != nil {
				return err
			}
			next := int64(1)
			if len(snaps) > 0 {
				var last productDocument
				if err := snaps[0].DataTo(&last); err != nil {
					return err
				}
				next = last.ID + 1
			}
			p.ID = next
		}
		return tx.Set(coll.Doc(productDocID(p.ID)), newProductDocument(*p))
	})
	return wrapError("product.save", err, nil)
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	ref, err := r.coll.doc(ctx, productDocID(id))
	if err != nil {
		return wrapError("product.delete", err, nil)
	}
	_, err = ref.Delete(ctx, firestore.Exists)
	return wrapError("product.delete", err, domain.ErrProductNotFound)
}

// Seed writes the products atomically if the collection is empty.
func (r *ProductRepository) Seed(ctx context.Context, products []domain.Product) (bool, error) {
	client, err := r.coll.provider.Client(ctx)
	if err != nil {
		return false, wrapError("product.seed", err, nil)
	}
	coll := client.Collection(productsCollection)

	seeded := false
	err = client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		seeded = false
		existing, err := tx.Documents(coll.Limit(1)).GetAll()
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}
		for _, p := range products {
			if err := tx.Set(coll.Doc(productDocID(p.ID)), newProductDocument(p)); err != nil {
				return err
			}
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, wrapError("product.seed", err, nil)
	}
	return seeded, nil
}

// =============================================================================
// USERS
// =============================================================================

// UserRepository stores profiles in the "users" collection keyed by user id.
type UserRepository struct {
	coll collection[userDocument]
}

// NewUserRepository creates a Firestore-backed user repository.
func NewUserRepository(p *Provider) *UserRepository {
	return &UserRepository{coll: newCollection[userDocument](p, usersCollection)}
}

// Create adds a profile, rejecting a duplicate email inside a transaction.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	client, err := r.coll.provider.Client(ctx)
	if err != nil {
		return wrapError("user.create", err, nil)
	}
	coll := client.Collection(usersCollection)

	err = client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		dupes, err := tx.Documents(coll.Where("emailKey", "==", emailKey(u.Email)).Limit(1)).GetAll()
		if err != nil {
			return err
		}
		if len(dupes) > 0 {
			return domain.ErrEmailTaken
		}
		return tx.Create(coll.Doc(u.ID), newUserDocument(u))
	})
	if errors.Is(err, domain.ErrEmailTaken) {
		return err
	}
	if isAlreadyExists(err) {
		return domain.Conflict("user.create", "user already exists")
	}
	return wrapError("user.create", err, nil)
}

// Get loads one profile.
func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	doc, err := r.coll.get(ctx, id)
	if err != nil {
		return nil, wrapError("user.get", err, domain.ErrUserNotFound)
	}
	return doc.toDomain(), nil
}

// GetByEmail finds a profile by case-insensitive email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	docs, err := r.coll.query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("emailKey", "==", emailKey(email)).Limit(1)
	})
	if err != nil {
		return nil, wrapError("user.get_by_email", err, nil)
	}
	if len(docs) == 0 {
		return nil, domain.ErrUserNotFound
	}
	return docs[0].toDomain(), nil
}

// List returns all profiles ordered by creation time.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	docs, err := r.coll.query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("createdAt", firestore.Asc)
	})
	if err != nil {
		return nil, wrapError("user.list", err, nil)
	}
	users := make([]domain.User, len(docs))
	for i, d := range docs {
		users[i] = *d.toDomain()
	}
	return users, nil
}

// Update replaces a stored profile.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	ref, err := r.coll.doc(ctx, u.ID)
	if err != nil {
		return wrapError("user.update", err, nil)
	}
	if _, err := ref.Get(ctx); err != nil {
		return wrapError("user.update", err, domain.ErrUserNotFound)
	}
	_, err = ref.Set(ctx, newUserDocument(u))
	return wrapError("user.update", err, nil)
}

// Modify reads, changes and writes the profile inside a transaction.
// Firestore may rerun fn on contention; each run starts from a fresh read.
func (r *UserRepository) Modify(ctx context.Context, id string, fn func(*domain.User) error) (*domain.User, error) {
	const op = "user.modify"

	client, err := r.coll.provider.Client(ctx)
	if err != nil {
		return nil, wrapError(op, err, nil)
	}
	ref := client.Collection(usersCollection).Doc(id)

	var (
		out   *domain.User
		fnErr error
	)
	err = client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc userDocument
		if err := snap.DataTo(&doc); err != nil {
			return err
		}

		u := doc.toDomain()
		if fnErr = fn(u); fnErr != nil {
			return fnErr
		}
		u.ID, u.Email = id, doc.Email
		out = u
		return tx.Set(ref, newUserDocument(u))
	})
	if fnErr != nil {
		return nil, fnErr
	}
	if err != nil {
		return nil, wrapError(op, err, domain.ErrUserNotFound)
	}
	return out, nil
}

// Delete removes a profile.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ref, err := r.coll.doc(ctx, id)
	if err != nil {
		return wrapError("user.delete", err, nil)
	}
	_, err = ref.Delete(ctx, firestore.Exists)
	return wrapError("user.delete", err, domain.ErrUserNotFound)
}

// =============================================================================
// CART SLOTS
// =============================================================================

// CartSlotRepository keeps serialized carts in the "cartSlots" collection.
type CartSlotRepository struct {
	coll collection[cartSlotDocument]
	now  func() time.Time
}

// NewCartSlotRepository creates a Firestore-backed cart slot store.
func NewCartSlotRepository(p *Provider) *CartSlotRepository {
	return &CartSlotRepository{coll: newCollection[cartSlotDocument](p, cartSlotsCollection), now: time.Now}
}

// Load returns the slot bytes or nil when absent.
func (r *CartSlotRepository) Load(ctx context.Context, key string) ([]byte, error) {
	doc, err := r.coll.get(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, wrapError("cart_slot.load", err, nil)
	}
	if !json.Valid([]byte(doc.Data)) {
		return nil, nil
	}
	return []byte(doc.Data), nil
}

// Store overwrites the slot.
func (r *CartSlotRepository) Store(ctx context.Context, key string, data []byte) error {
	ref, err := r.coll.doc(ctx, key)
	if err != nil {
		return wrapError("cart_slot.store", err, nil)
	}
	_, err = ref.Set(ctx, cartSlotDocument{Data: string(data), UpdatedAt: r.now().UTC()})
	return wrapError("cart_slot.store", err, nil)
}

// Remove deletes the slot. Removing an absent slot is not an error.
func (r *CartSlotRepository) Remove(ctx context.Context, key string) error {
	ref, err := r.coll.doc(ctx, key)
	if err != nil {
		return wrapError("cart_slot.remove", err, nil)
	}
	_, err = ref.Delete(ctx)
	return wrapError("cart_slot.remove", err, nil)
}
