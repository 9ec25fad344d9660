package admin

import (
	"net/http"

	"github.com/dukerupert/campusshop/internal/handler"
	"github.com/dukerupert/campusshop/internal/service"
)

// OrderHandler lists and manages every customer's orders
type OrderHandler struct {
	admin *service.Admin
}

// NewOrderHandler creates a new admin order handler
func NewOrderHandler(admin *service.Admin) *OrderHandler {
	return &OrderHandler{admin: admin}
}

type statusRequest struct {
	Status string `json:"status"`
}

// List handles GET /api/admin/orders?status=
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.admin.Orders(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, map[string]any{"orders": orders, "count": len(orders)})
}

// UpdateStatus handles PUT /api/admin/orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !handler.DecodeJSON(w, r, &req) {
		return
	}

	order, err := h.admin.UpdateOrderStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, order)
}

// Delete handles DELETE /api/admin/orders/{id}
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteOrder(r.Context(), r.PathValue("id")); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.NoContent(w)
}
