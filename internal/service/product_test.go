package service

import (
	"context"
	"testing"

	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogProducts() []domain.Product {
	return []domain.Product{
		laptop,
		{ID: 2, Name: "MacBook Air M2", Description: "Siêu mỏng nhẹ, pin trâu", Price: 28000000, Category: "Laptop", Stock: 5, Rating: 4.9},
		{ID: 3, Name: "Tai nghe Sony WH-1000XM5", Description: "Chống ồn chủ động", Price: 8500000, Category: "Audio", Stock: 20, Rating: 4.7},
		mouse,
		bag,
	}
}

func TestFilterProducts(t *testing.T) {
	tests := []struct {
		name   string
		filter domain.ProductFilter
		want   []int64
	}{
		{name: "no filter keeps catalog order", want: []int64{1, 2, 3, 5, 7}},
		{name: "All category", filter: domain.ProductFilter{Category: CategoryAll}, want: []int64{1, 2, 3, 5, 7}},
		{name: "category is case-insensitive", filter: domain.ProductFilter{Category: "accessories"}, want: []int64{5, 7}},
		{name: "query matches name", filter: domain.ProductFilter{Query: "macbook"}, want: []int64{2}},
		{name: "query matches description", filter: domain.ProductFilter{Query: "chống ồn"}, want: []int64{3}},
		{name: "price ascending", filter: domain.ProductFilter{Sort: domain.SortPriceAsc}, want: []int64{7, 5, 3, 1, 2}},
		{name: "price descending", filter: domain.ProductFilter{Sort: domain.SortPriceDesc}, want: []int64{2, 1, 3, 5, 7}},
		{name: "rating keeps ties stable", filter: domain.ProductFilter{Sort: domain.SortRating}, want: []int64{2, 5, 1, 3, 7}},
		{name: "category and sort", filter: domain.ProductFilter{Category: "Laptop", Sort: domain.SortPriceAsc}, want: []int64{1, 2}},
		{name: "nothing matches", filter: domain.ProductFilter{Query: "bánh mì"}, want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterProducts(catalogProducts(), tt.filter)

			ids := make([]int64, len(got))
			for i, p := range got {
				ids[i] = p.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	repo := memory.NewProductRepository()
	_, err := repo.Seed(context.Background(), catalogProducts())
	require.NoError(t, err)
	return NewCatalog(repo, nil)
}

func TestCatalog_Categories(t *testing.T) {
	categories, err := newTestCatalog(t).Categories(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"Laptop", "Audio", "Accessories"}, categories)
}

func TestCatalog_Get(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	p, err := c.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Audio", p.Category)

	_, err = c.Get(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidProductID)

	_, err = c.Get(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCatalog_Save(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	p := &domain.Product{Name: "  Bàn phím cơ Keychron K2 ", Price: 1800000, Category: "Accessories", Stock: 15, Rating: 4.6}
	require.NoError(t, c.Save(ctx, p))
	assert.NotZero(t, p.ID)
	assert.Equal(t, "Bàn phím cơ Keychron K2", p.Name)

	bad := &domain.Product{Price: -1, Rating: 7, Image: "not a url"}
	err := c.Save(ctx, bad)
	require.Error(t, err)
	fields := domain.GetValidationFields(err)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "category")
	assert.Contains(t, fields, "price")
	assert.Contains(t, fields, "rating")
	assert.Contains(t, fields, "image")
	assert.Equal(t, "Please correct the highlighted product fields.", domain.ErrorMessage(err))

	missing := &domain.Product{ID: 404, Name: "Ghost", Category: "Laptop"}
	assert.ErrorIs(t, c.Save(ctx, missing), domain.ErrProductNotFound)
}

func TestCatalog_Delete(t *testing.T) {
	c := newTestCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.Delete(ctx, 7))
	_, err := c.Get(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	assert.ErrorIs(t, c.Delete(ctx, -1), ErrInvalidProductID)
}
