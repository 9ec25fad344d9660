package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ repository.OrderRepository = (*OrderRepository)(nil)

// OrderRepository stores orders with their item snapshot as JSONB.
type OrderRepository struct {
	pool *pgxpool.Pool
}

const orderColumns = `id, user_id, customer_name, total_amount, status, date, items_count, items, payment_method, tracking_number, shipping_address`

// Create inserts the order. A conflicting id is treated as an earlier
// successful attempt.
func (r *OrderRepository) Create(ctx context.Context, o domain.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return domain.Internal(err, "order.create", "failed to encode order items")
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING`,
		o.ID, o.UserID, o.CustomerName, o.TotalAmount, string(o.Status), o.Date,
		o.ItemsCount, items, o.PaymentMethod, o.TrackingNumber, o.ShippingAddress,
	)
	if err != nil {
		return domain.Persistence(err, "order.create", "could not save order")
	}
	return nil
}

// Get loads one order.
func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		return nil, wrapError("order.get", err, domain.ErrOrderNotFound)
	}
	return o, nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY date DESC, id`, userID)
	if err != nil {
		return nil, wrapError("order.list_by_user", err, nil)
	}
	orders, err := collectOrders(rows)
	return orders, wrapError("order.list_by_user", err, nil)
}

// ListAll returns every order, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY date DESC, id`)
	if err != nil {
		return nil, wrapError("order.list_all", err, nil)
	}
	orders, err := collectOrders(rows)
	return orders, wrapError("order.list_all", err, nil)
}

// UpdateStatus changes only the status column.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return wrapError("order.update_status", err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// Delete removes an order.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return wrapError("order.delete", err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o      domain.Order
		status string
		items  []byte
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.CustomerName, &o.TotalAmount, &status, &o.Date,
		&o.ItemsCount, &items, &o.PaymentMethod, &o.TrackingNumber, &o.ShippingAddress); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items of order %s: %w", o.ID, err)
	}
	return &o, nil
}

func collectOrders(rows pgx.Rows) ([]domain.Order, error) {
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}
