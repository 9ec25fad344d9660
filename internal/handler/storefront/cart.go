package storefront

import (
	"net/http"

	"github.com/dukerupert/campusshop/internal/handler"
	"github.com/dukerupert/campusshop/internal/middleware"
	"github.com/dukerupert/campusshop/internal/service"
	"github.com/dukerupert/campusshop/internal/telemetry"
)

// CartHandler handles all cart-related storefront routes. The cart is keyed
// by the browser's cart cookie, so guests and signed-in users share one path.
type CartHandler struct {
	carts   *service.CartSessions
	catalog *service.Catalog
	metrics *telemetry.BusinessMetrics
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts *service.CartSessions, catalog *service.Catalog, metrics *telemetry.BusinessMetrics) *CartHandler {
	return &CartHandler{carts: carts, catalog: catalog, metrics: metrics}
}

type addItemRequest struct {
	ProductID int64 `json:"productId"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// View handles GET /api/cart
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	cart := h.carts.Cart(r.Context(), middleware.GetCartID(r.Context()))
	handler.OK(w, cart.Summary())
}

// Add handles POST /api/cart/items. Adding a product already in the cart
// bumps its quantity. Every mutation answers 409 while a checkout attempt
// for this cart is in flight.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !handler.DecodeJSON(w, r, &req) {
		return
	}

	product, err := h.catalog.Get(r.Context(), req.ProductID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	summary, err := h.carts.Mutate(r.Context(), middleware.GetCartID(r.Context()), func(c *service.CartStore) {
		c.Add(*product)
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	h.metrics.RecordCartAdd(product.Category)

	handler.OK(w, summary)
}

// Update handles PUT /api/cart/items/{id}. A quantity below one removes the line.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	var req updateItemRequest
	if !handler.DecodeJSON(w, r, &req) {
		return
	}

	summary, err := h.carts.Mutate(r.Context(), middleware.GetCartID(r.Context()), func(c *service.CartStore) {
		c.UpdateQuantity(id, req.Quantity)
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, summary)
}

// Remove handles DELETE /api/cart/items/{id}
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	summary, err := h.carts.Mutate(r.Context(), middleware.GetCartID(r.Context()), func(c *service.CartStore) {
		c.Remove(id)
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, summary)
}

// Clear handles DELETE /api/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	summary, err := h.carts.Mutate(r.Context(), middleware.GetCartID(r.Context()), (*service.CartStore).Clear)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	h.metrics.RecordCartCleared()
	handler.OK(w, summary)
}
