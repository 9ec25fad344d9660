package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ repository.UserRepository = (*UserRepository)(nil)

// UserRepository stores profiles; the address book lives in a JSONB column.
type UserRepository struct {
	pool *pgxpool.Pool
}

const userColumns = `id, name, email, role, avatar, saved_addresses, password_hash, created_at`

// Create inserts a profile. A duplicate email maps to domain.ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	addrs, err := encodeAddresses(u.SavedAddresses)
	if err != nil {
		return domain.Internal(err, "user.create", "failed to encode addresses")
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, email_key, role, avatar, saved_addresses, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Name, u.Email, emailKey(u.Email), string(u.Role), u.Avatar, addrs, u.PasswordHash, u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	return wrapError("user.create", err, nil)
}

// Get loads one profile.
func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, wrapError("user.get", err, domain.ErrUserNotFound)
	}
	return u, nil
}

// GetByEmail finds a profile by case-insensitive email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email_key = $1`, emailKey(email)))
	if err != nil {
		return nil, wrapError("user.get_by_email", err, domain.ErrUserNotFound)
	}
	return u, nil
}

// List returns all profiles ordered by creation time.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, email`)
	if err != nil {
		return nil, wrapError("user.list", err, nil)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrapError("user.list", err, nil)
		}
		users = append(users, *u)
	}
	return users, wrapError("user.list", rows.Err(), nil)
}

// Update replaces the mutable columns of a profile.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	return updateUser(ctx, r.pool, "user.update", u)
}

// Modify locks the row, applies fn and writes the result in one transaction.
func (r *UserRepository) Modify(ctx context.Context, id string, fn func(*domain.User) error) (*domain.User, error) {
	const op = "user.modify"

	var out *domain.User
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		u, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return wrapError(op, err, domain.ErrUserNotFound)
		}
		email := u.Email
		if err := fn(u); err != nil {
			return err
		}
		u.ID, u.Email = id, email
		if err := updateUser(ctx, tx, op, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func updateUser(ctx context.Context, db execer, op string, u *domain.User) error {
	addrs, err := encodeAddresses(u.SavedAddresses)
	if err != nil {
		return domain.Internal(err, op, "failed to encode addresses")
	}

	tag, err := db.Exec(ctx, `
		UPDATE users
		SET name = $2, email = $3, email_key = $4, role = $5, avatar = $6, saved_addresses = $7, password_hash = $8
		WHERE id = $1`,
		u.ID, u.Name, u.Email, emailKey(u.Email), string(u.Role), u.Avatar, addrs, u.PasswordHash,
	)
	if isUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return wrapError(op, err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete removes a profile.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return wrapError("user.delete", err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func encodeAddresses(addrs []domain.Address) ([]byte, error) {
	if addrs == nil {
		addrs = []domain.Address{}
	}
	return json.Marshal(addrs)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u     domain.User
		role  string
		addrs []byte
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &u.Avatar, &addrs, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	if err := json.Unmarshal(addrs, &u.SavedAddresses); err != nil {
		return nil, fmt.Errorf("decode addresses of user %s: %w", u.ID, err)
	}
	if len(u.SavedAddresses) == 0 {
		u.SavedAddresses = nil
	}
	return &u, nil
}
