package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/dukerupert/campusshop/internal/auth"
	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	auth.BcryptCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("skips without a password", func(t *testing.T) {
		users := memory.NewUserRepository()
		require.NoError(t, EnsureAdmin(ctx, users, &AdminConfig{Email: "admin@shop.com"}, quietLogger()))

		all, err := users.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("rejects a short password", func(t *testing.T) {
		err := EnsureAdmin(ctx, memory.NewUserRepository(), &AdminConfig{Email: "admin@shop.com", Password: "short"}, quietLogger())
		assert.ErrorContains(t, err, "at least 12 characters")
	})

	t.Run("creates once", func(t *testing.T) {
		users := memory.NewUserRepository()
		cfg := &AdminConfig{Email: "Admin@Shop.com", Password: "a-long-admin-password"}

		require.NoError(t, EnsureAdmin(ctx, users, cfg, quietLogger()))
		require.NoError(t, EnsureAdmin(ctx, users, cfg, quietLogger()))

		all, err := users.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "admin@shop.com", all[0].Email)
		assert.Equal(t, domain.RoleAdmin, all[0].Role)
		assert.NoError(t, auth.VerifyPassword("a-long-admin-password", all[0].PasswordHash))
	})

	t.Run("promotes an existing account", func(t *testing.T) {
		users := memory.NewUserRepository()
		require.NoError(t, users.Create(ctx, &domain.User{ID: "u1", Email: "admin@shop.com", Role: domain.RoleUser}))

		require.NoError(t, EnsureAdmin(ctx, users, &AdminConfig{Email: "admin@shop.com", Password: "a-long-admin-password"}, quietLogger()))

		u, err := users.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, u.Role)
	})
}

func TestSeedCatalog(t *testing.T) {
	ctx := context.Background()
	products := memory.NewProductRepository()

	require.NoError(t, SeedCatalog(ctx, products, quietLogger()))
	require.NoError(t, SeedCatalog(ctx, products, quietLogger()))

	all, err := products.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 8)
	assert.Equal(t, "Laptop Gaming ASUS ROG", all[0].Name)
}

func TestSeedDemo(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	orders := memory.NewOrderRepository()

	require.NoError(t, SeedDemo(ctx, users, orders, quietLogger()))

	student, err := users.GetByEmail(ctx, DemoUserEmail)
	require.NoError(t, err)
	assert.NoError(t, auth.VerifyPassword(DemoUserPassword, student.PasswordHash))

	history, err := orders.ListByUser(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "ORD-005", history[0].ID)
	for _, o := range history {
		count, total := domain.SumLines(o.Items)
		assert.Equal(t, count, o.ItemsCount)
		assert.Equal(t, total, o.TotalAmount)
		assert.Regexp(t, `^VN[A-Z0-9]{10}$`, o.TrackingNumber)
	}
}
