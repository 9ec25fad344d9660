package service

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/repository"
	"github.com/dukerupert/campusshop/internal/telemetry"
)

// CategoryAll is the category filter value that keeps every product.
const CategoryAll = "All"

// Catalog serves the product listing and the admin product editor.
type Catalog struct {
	products repository.ProductRepository
	metrics  *telemetry.BusinessMetrics
}

// NewCatalog creates the catalog service.
func NewCatalog(products repository.ProductRepository, metrics *telemetry.BusinessMetrics) *Catalog {
	return &Catalog{products: products, metrics: metrics}
}

// List returns products matching filter.
func (c *Catalog) List(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	products, err := c.products.List(ctx)
	if err != nil {
		return nil, err
	}

	if filter.Query != "" {
		c.metrics.RecordSearch("query")
	}
	if filter.Category != "" && filter.Category != CategoryAll {
		c.metrics.RecordSearch("category")
	}

	return FilterProducts(products, filter), nil
}

// FilterProducts applies category, free-text query and sort order.
func FilterProducts(products []domain.Product, filter domain.ProductFilter) []domain.Product {
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if filter.Category != "" && filter.Category != CategoryAll && !strings.EqualFold(p.Category, filter.Category) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) {
			continue
		}
		out = append(out, p)
	}

	switch filter.Sort {
	case domain.SortPriceAsc:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return cmp.Compare(a.Price, b.Price) })
	case domain.SortPriceDesc:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return cmp.Compare(b.Price, a.Price) })
	case domain.SortRating:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return cmp.Compare(b.Rating, a.Rating) })
	}
	return out
}

// Get returns one product and records the view.
func (c *Catalog) Get(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		return nil, ErrInvalidProductID
	}
	p, err := c.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.metrics.RecordProductView(p.Category)
	return p, nil
}

// Categories lists the distinct categories in first-seen order.
func (c *Catalog) Categories(ctx context.Context) ([]string, error) {
	products, err := c.products.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	categories := []string{}
	for _, p := range products {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	return categories, nil
}

// Save validates and stores a product. A zero ID inserts.
func (c *Catalog) Save(ctx context.Context, p *domain.Product) error {
	const op = "catalog.save"

	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	p.Image = strings.TrimSpace(p.Image)
	if err := validateStruct(op, p, "Please correct the highlighted product fields."); err != nil {
		return err
	}
	if p.ID != 0 {
		if _, err := c.products.Get(ctx, p.ID); err != nil {
			return err
		}
	}
	return c.products.Save(ctx, p)
}

// Delete removes a product. Carts and past orders keep their snapshots.
func (c *Catalog) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidProductID
	}
	return c.products.Delete(ctx, id)
}
