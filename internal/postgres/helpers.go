// Package postgres implements the repositories on PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Store bundles the repositories sharing one pool.
type Store struct {
	pool *pgxpool.Pool

	Orders    *OrderRepository
	Products  *ProductRepository
	Users     *UserRepository
	CartSlots *CartSlotRepository
}

// NewStore wires every repository to the pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:      pool,
		Orders:    &OrderRepository{pool: pool},
		Products:  &ProductRepository{pool: pool},
		Users:     &UserRepository{pool: pool},
		CartSlots: &CartSlotRepository{pool: pool},
	}
}

// Probe checks that the database answers.
func (s *Store) Probe(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// wrapError maps pgx failures onto domain codes. Connection-level and timeout
// failures are retryable persistence errors.
func wrapError(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) && notFound != nil {
		return notFound
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return domain.Persistence(err, op, "storage is temporarily unavailable")
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return domain.Persistence(err, op, "storage is temporarily unavailable")
	}
	return domain.Internal(err, op, "storage request failed")
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
