package storefront

import (
	"net/http"
	"strconv"

	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/handler"
	"github.com/dukerupert/campusshop/internal/service"
)

// CatalogHandler serves the product listing and detail pages.
type CatalogHandler struct {
	catalog *service.Catalog
}

// NewCatalogHandler creates a catalog handler
func NewCatalogHandler(catalog *service.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// List handles GET /api/products?category=&q=&sort=
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ProductFilter{
		Category: q.Get("category"),
		Query:    q.Get("q"),
		Sort:     domain.ProductSort(q.Get("sort")),
	}

	products, err := h.catalog.List(r.Context(), filter)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, map[string]any{"products": products, "count": len(products)})
}

// Get handles GET /api/products/{id}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, product)
}

// Categories handles GET /api/categories. The list starts with "All".
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, map[string]any{"categories": append([]string{service.CategoryAll}, categories...)})
}

// productID parses the {id} path value.
func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		handler.ErrorResponse(w, r, service.ErrInvalidProductID)
		return 0, false
	}
	return id, true
}
