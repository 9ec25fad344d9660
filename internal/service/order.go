package service

import (
	"context"

	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/repository"
)

// StatusFilterAll is the filter value that keeps every order.
const StatusFilterAll = "All"

// FilterByStatus keeps orders whose status equals filter exactly.
// StatusFilterAll or an empty filter keeps everything.
func FilterByStatus(orders []domain.Order, filter string) []domain.Order {
	if filter == "" || filter == StatusFilterAll {
		return orders
	}
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if string(o.Status) == filter {
			out = append(out, o)
		}
	}
	return out
}

// StatusCounts tallies orders per status plus an "All" total, for filter tabs.
func StatusCounts(orders []domain.Order) map[string]int {
	counts := make(map[string]int, len(domain.OrderStatuses)+1)
	counts[StatusFilterAll] = len(orders)
	for _, s := range domain.OrderStatuses {
		counts[string(s)] = 0
	}
	for _, o := range orders {
		counts[string(o.Status)]++
	}
	return counts
}

// TrackingStep is one stage of the order progress bar.
type TrackingStep struct {
	Label     string `json:"label"`
	Icon      string `json:"icon"`
	Completed bool   `json:"completed"`
}

// TrackingSteps derives the fixed four-step progression from a status alone.
func TrackingSteps(status domain.OrderStatus) [4]TrackingStep {
	return [4]TrackingStep{
		{Label: "Placed", Icon: "shopping_cart", Completed: true},
		{
			Label:     "Confirmed",
			Icon:      "fact_check",
			Completed: status != domain.OrderStatusPending && status != domain.OrderStatusCancelled,
		},
		{
			Label:     "Shipping",
			Icon:      "local_shipping",
			Completed: status == domain.OrderStatusShipping || status == domain.OrderStatusCompleted,
		},
		{Label: "Delivered", Icon: "verified", Completed: status == domain.OrderStatusCompleted},
	}
}

// OrderHistoryView is a user's filtered order list.
type OrderHistoryView struct {
	Filter     string         `json:"filter"`
	Orders     []domain.Order `json:"orders"`
	Counts     map[string]int `json:"counts"`
	TotalSpent int64          `json:"totalSpent"`
}

// TrackingView pairs an order with its progress steps.
type TrackingView struct {
	Order domain.Order    `json:"order"`
	Steps [4]TrackingStep `json:"steps"`
}

// OrderHistory reads a user's orders.
type OrderHistory struct {
	orders repository.OrderRepository
}

// NewOrderHistory creates the order history reader.
func NewOrderHistory(orders repository.OrderRepository) *OrderHistory {
	return &OrderHistory{orders: orders}
}

// List loads the user's orders newest first and applies filter. Counts and
// TotalSpent cover every order regardless of the filter.
func (h *OrderHistory) List(ctx context.Context, userID, filter string) (*OrderHistoryView, error) {
	if filter == "" {
		filter = StatusFilterAll
	}
	if filter != StatusFilterAll {
		status, err := domain.ParseOrderStatus(filter)
		if err != nil {
			return nil, err
		}
		filter = string(status)
	}

	orders, err := h.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var spent int64
	for _, o := range orders {
		spent += o.TotalAmount
	}

	filtered := FilterByStatus(orders, filter)
	if filtered == nil {
		filtered = []domain.Order{}
	}

	return &OrderHistoryView{
		Filter:     filter,
		Orders:     filtered,
		Counts:     StatusCounts(orders),
		TotalSpent: spent,
	}, nil
}

// Tracking returns one order with its tracking steps. Orders owned by other
// users are reported as not found unless viewer is an admin.
func (h *OrderHistory) Tracking(ctx context.Context, viewer *domain.User, orderID string) (*TrackingView, error) {
	if viewer == nil {
		return nil, domain.ErrNotAuthenticated
	}

	order, err := h.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != viewer.ID && !viewer.IsAdmin() {
		return nil, domain.ErrOrderNotFound
	}

	return &TrackingView{Order: *order, Steps: TrackingSteps(order.Status)}, nil
}
