package domain

// Product errors.
var (
	ErrProductNotFound = &Error{Code: ENOTFOUND, Message: "Product not found"}
)

// Product is a catalog entry. Prices are whole Vietnamese dong.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Price       int64   `json:"price" validate:"gte=0"`
	Category    string  `json:"category" validate:"required"`
	Image       string  `json:"image" validate:"omitempty,url"`
	Stock       int     `json:"stock" validate:"gte=0"`
	Rating      float64 `json:"rating" validate:"gte=0,lte=5"`
}

// InStock reports whether the catalog lists any units. Stock is advisory only.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// ProductFilter narrows the storefront listing.
type ProductFilter struct {
	Category string
	Query    string
	Sort     ProductSort
}

// ProductSort selects the listing order.
type ProductSort string

const (
	SortDefault   ProductSort = ""
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
	SortRating    ProductSort = "rating"
)
