package postgres

import (
	"context"
	"errors"

	"github.com/dukerupert/campusshop/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ repository.CartSlotRepository = (*CartSlotRepository)(nil)

// CartSlotRepository keeps serialized carts in the cart_slots table.
type CartSlotRepository struct {
	pool *pgxpool.Pool
}

// Load returns the slot bytes or nil when absent.
func (r *CartSlotRepository) Load(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.pool.QueryRow(ctx, `SELECT data FROM cart_slots WHERE key = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapError("cart_slot.load", err, nil)
	}
	return data, nil
}

// Store upserts the slot.
func (r *CartSlotRepository) Store(ctx context.Context, key string, data []byte) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO cart_slots (key, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		key, data,
	)
	return wrapError("cart_slot.store", err, nil)
}

// Remove deletes the slot.
func (r *CartSlotRepository) Remove(ctx context.Context, key string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_slots WHERE key = $1`, key)
	return wrapError("cart_slot.remove", err, nil)
}
