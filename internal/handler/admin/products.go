package admin

import (
	"net/http"
	"strconv"

	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/handler"
	"github.com/dukerupert/campusshop/internal/service"
)

// ProductHandler is the catalog editor
type ProductHandler struct {
	catalog *service.Catalog
}

// NewProductHandler creates a new product handler
func NewProductHandler(catalog *service.Catalog) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// productForm is the editable part of a product. The id comes from the path.
type productForm struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       int64   `json:"price"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Stock       int     `json:"stock"`
	Rating      float64 `json:"rating"`
}

func (f productForm) product(id int64) *domain.Product {
	return &domain.Product{
		ID:          id,
		Name:        f.Name,
		Description: f.Description,
		Price:       f.Price,
		Category:    f.Category,
		Image:       f.Image,
		Stock:       f.Stock,
		Rating:      f.Rating,
	}
}

// List handles GET /api/admin/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context(), domain.ProductFilter{})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, map[string]any{"products": products})
}

// Create handles POST /api/admin/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var form productForm
	if !handler.DecodeJSON(w, r, &form) {
		return
	}

	p := form.product(0)
	if err := h.catalog.Save(r.Context(), p); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusCreated, p)
}

// Update handles PUT /api/admin/products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathProductID(w, r)
	if !ok {
		return
	}
	var form productForm
	if !handler.DecodeJSON(w, r, &form) {
		return
	}

	p := form.product(id)
	if err := h.catalog.Save(r.Context(), p); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, p)
}

// Delete handles DELETE /api/admin/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathProductID(w, r)
	if !ok {
		return
	}
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.NoContent(w)
}

func pathProductID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		handler.ErrorResponse(w, r, service.ErrInvalidProductID)
		return 0, false
	}
	return id, true
}
