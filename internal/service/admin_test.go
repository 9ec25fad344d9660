package service

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/events"
	"github.com/dukerupert/campusshop/internal/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type adminFixture struct {
	admin    *Admin
	orders   *memory.OrderRepository
	users    *memory.UserRepository
	sessions *SessionStore
	events   *events.Recorder
	actor    *domain.User
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()
	ctx := context.Background()

	f := &adminFixture{
		orders:   memory.NewOrderRepository(),
		users:    memory.NewUserRepository(),
		sessions: NewSessionStore(time.Hour),
		events:   &events.Recorder{},
		actor:    &domain.User{ID: "u-1", Name: "Nguyễn Văn Admin", Email: "admin@shop.com", Role: domain.RoleAdmin},
	}
	products := memory.NewProductRepository()
	_, err := products.Seed(ctx, catalogProducts())
	require.NoError(t, err)

	for _, o := range sampleOrders() {
		require.NoError(t, f.orders.Create(ctx, o))
	}
	require.NoError(t, f.users.Create(ctx, f.actor))
	require.NoError(t, f.users.Create(ctx, student()))

	f.admin = NewAdmin(f.orders, products, f.users, f.sessions, f.events, nil, discardLogger())
	return f
}

func TestAdmin_Dashboard(t *testing.T) {
	f := newAdminFixture(t)

	d, err := f.admin.Dashboard(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(49950000), d.Revenue)
	assert.Equal(t, 5, d.OrderCount)
	assert.Equal(t, 5, d.ProductCount)
	assert.Equal(t, 2, d.UserCount)
	assert.Equal(t, 2, d.StatusCounts["PENDING"])
	assert.Equal(t, []MonthlyRevenue{
		{Month: "2023-09", Revenue: 12000000},
		{Month: "2023-10", Revenue: 37950000},
	}, d.Monthly)
	assert.Equal(t, "ORD-005", d.RecentOrders[0].ID)
	assert.Len(t, d.RecentOrders, 5)
}

func TestAdmin_Orders(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	all, err := f.admin.Orders(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	pending, err := f.admin.Orders(ctx, "pending")
	require.NoError(t, err)
	assert.Equal(t, []string{"ORD-005", "ORD-003"}, orderIDs(pending))

	_, err = f.admin.Orders(ctx, "REFUNDED")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestAdmin_UpdateOrderStatus(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	order, err := f.admin.UpdateOrderStatus(ctx, "ORD-003", "shipping")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipping, order.Status)
	assert.Equal(t, domain.OrderStatusShipping, f.events.Changed["ORD-003"])

	_, err = f.admin.UpdateOrderStatus(ctx, "ORD-003", "LOST")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = f.admin.UpdateOrderStatus(ctx, "ORD-999", "COMPLETED")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestAdmin_DeleteOrder(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	require.NoError(t, f.admin.DeleteOrder(ctx, "ORD-004"))
	_, err := f.orders.Get(ctx, "ORD-004")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestAdmin_ToggleRole(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()

	user, err := f.admin.ToggleRole(ctx, f.actor, "u-2")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)

	user, err = f.admin.ToggleRole(ctx, f.actor, "u-2")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)

	_, err = f.admin.ToggleRole(ctx, f.actor, f.actor.ID)
	assert.ErrorIs(t, err, ErrSelfRoleChange)
}

func TestAdmin_DeleteUser(t *testing.T) {
	f := newAdminFixture(t)
	ctx := context.Background()
	sess, err := f.sessions.Create("u-2")
	require.NoError(t, err)

	require.NoError(t, f.admin.DeleteUser(ctx, f.actor, "u-2"))

	_, ok := f.sessions.Get(sess.Token)
	assert.False(t, ok, "deleted users are signed out")
	_, err = f.users.Get(ctx, "u-2")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	assert.ErrorIs(t, f.admin.DeleteUser(ctx, f.actor, f.actor.ID), ErrSelfDelete)
}
