package storefront

import (
	"net/http"

	"github.com/dukerupert/campusshop/internal/handler"
	"github.com/dukerupert/campusshop/internal/middleware"
	"github.com/dukerupert/campusshop/internal/service"
)

// OrderHandler serves the order history and tracking pages.
type OrderHandler struct {
	history *service.OrderHistory
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(history *service.OrderHistory) *OrderHandler {
	return &OrderHandler{history: history}
}

// List handles GET /api/orders?status=
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	view, err := h.history.List(r.Context(), user.ID, r.URL.Query().Get("status"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, view)
}

// Tracking handles GET /api/orders/{id}/tracking
func (h *OrderHandler) Tracking(w http.ResponseWriter, r *http.Request) {
	view, err := h.history.Tracking(r.Context(), middleware.GetUserFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, view)
}
