package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/events"
	"github.com/dukerupert/campusshop/internal/repository"
	"github.com/dukerupert/campusshop/internal/telemetry"
)

const recentOrdersLimit = 5

// Admin backs the back-office dashboard and its order and user management.
type Admin struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	users    repository.UserRepository
	sessions *SessionStore
	events   events.Publisher
	metrics  *telemetry.BusinessMetrics
	logger   *slog.Logger
}

// NewAdmin creates the admin service.
func NewAdmin(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	sessions *SessionStore,
	publisher events.Publisher,
	metrics *telemetry.BusinessMetrics,
	logger *slog.Logger,
) *Admin {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &Admin{
		orders:   orders,
		products: products,
		users:    users,
		sessions: sessions,
		events:   publisher,
		metrics:  metrics,
		logger:   logger,
	}
}

// MonthlyRevenue is revenue booked in one calendar month ("2006-01").
type MonthlyRevenue struct {
	Month   string `json:"month"`
	Revenue int64  `json:"revenue"`
}

// Dashboard is the back-office overview.
type Dashboard struct {
	Revenue      int64            `json:"revenue"`
	OrderCount   int              `json:"orderCount"`
	ProductCount int              `json:"productCount"`
	UserCount    int              `json:"userCount"`
	StatusCounts map[string]int   `json:"statusCounts"`
	Monthly      []MonthlyRevenue `json:"monthly"`
	RecentOrders []domain.Order   `json:"recentOrders"`
}

// Dashboard aggregates revenue and counts. Revenue sums totalAmount over
// every order.
func (s *Admin) Dashboard(ctx context.Context) (*Dashboard, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		OrderCount:   len(orders),
		ProductCount: len(products),
		UserCount:    len(users),
		StatusCounts: StatusCounts(orders),
		Monthly:      revenueByMonth(orders),
		RecentOrders: orders[:min(len(orders), recentOrdersLimit)],
	}
	for _, o := range orders {
		d.Revenue += o.TotalAmount
	}
	return d, nil
}

func revenueByMonth(orders []domain.Order) []MonthlyRevenue {
	byMonth := make(map[string]int64)
	for _, o := range orders {
		byMonth[o.Date.Format("2006-01")] += o.TotalAmount
	}
	out := make([]MonthlyRevenue, 0, len(byMonth))
	for month, revenue := range byMonth {
		out = append(out, MonthlyRevenue{Month: month, Revenue: revenue})
	}
	slices.SortFunc(out, func(a, b MonthlyRevenue) int { return cmp.Compare(a.Month, b.Month) })
	return out
}

// Orders lists every order newest first, optionally filtered by status.
func (s *Admin) Orders(ctx context.Context, filter string) ([]domain.Order, error) {
	if filter != "" && filter != StatusFilterAll {
		status, err := domain.ParseOrderStatus(filter)
		if err != nil {
			return nil, err
		}
		filter = string(status)
	}
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return FilterByStatus(orders, filter), nil
}

// UpdateOrderStatus moves an order to a new status and announces the change.
func (s *Admin) UpdateOrderStatus(ctx context.Context, orderID, status string) (*domain.Order, error) {
	next, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}
	if err := s.orders.UpdateStatus(ctx, orderID, next); err != nil {
		return nil, err
	}

	s.metrics.RecordStatusChange(string(next))
	if err := s.events.OrderStatusChanged(ctx, orderID, next); err != nil {
		s.logger.WarnContext(ctx, "failed to publish order status event", "order_id", orderID, "error", err)
	}
	s.logger.InfoContext(ctx, "order status updated", "order_id", orderID, "status", string(next))

	return s.orders.Get(ctx, orderID)
}

// DeleteOrder removes an order.
func (s *Admin) DeleteOrder(ctx context.Context, orderID string) error {
	if err := s.orders.Delete(ctx, orderID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "order deleted", "order_id", orderID)
	return nil
}

// Users lists every account.
func (s *Admin) Users(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// DeleteUser removes an account and signs it out everywhere. Admins cannot
// delete themselves.
func (s *Admin) DeleteUser(ctx context.Context, actor *domain.User, userID string) error {
	if actor != nil && actor.ID == userID {
		return ErrSelfDelete
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.sessions.DeleteUser(userID)
	s.logger.InfoContext(ctx, "user deleted", "user_id", userID)
	return nil
}

// ToggleRole flips an account between user and admin.
func (s *Admin) ToggleRole(ctx context.Context, actor *domain.User, userID string) (*domain.User, error) {
	if actor != nil && actor.ID == userID {
		return nil, ErrSelfRoleChange
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.Role == domain.RoleAdmin {
		user.Role = domain.RoleUser
	} else {
		user.Role = domain.RoleAdmin
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user role changed", "user_id", userID, "role", string(user.Role))
	return user, nil
}
