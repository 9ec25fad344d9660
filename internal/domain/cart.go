package domain

// CartLine is one product plus a quantity within a shopping cart.
// The product fields are flattened on the wire, matching the storefront client.
type CartLine struct {
	Product
	Quantity int `json:"quantity"`
}

// Subtotal returns price times quantity for the line.
func (l CartLine) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}

// CartSummary is a consistent read of the cart and its derived totals.
type CartSummary struct {
	Items []CartLine `json:"items"`
	Count int        `json:"count"`
	Total int64      `json:"total"`
}

// SumLines computes the item count and total over a set of lines.
func SumLines(lines []CartLine) (count int, total int64) {
	for _, l := range lines {
		count += l.Quantity
		total += l.Subtotal()
	}
	return count, total
}
