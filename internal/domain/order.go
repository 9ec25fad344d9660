package domain

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// Order-related domain errors.
var (
	ErrOrderNotFound = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrInvalidStatus = &Error{Code: EINVALID, Message: "Unknown order status"}
)

// OrderStatus is the closed set of order lifecycle states.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusShipping  OrderStatus = "SHIPPING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// OrderStatuses lists every status in display order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusShipping,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// ParseOrderStatus accepts a status name case-insensitively.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// Valid reports whether s is one of the four known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusShipping, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are expected.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Order is a placed order. Items is a snapshot of the cart at placement time.
// Only Status changes after creation.
type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId"`
	CustomerName    string      `json:"customerName"`
	TotalAmount     int64       `json:"totalAmount"`
	Status          OrderStatus `json:"status"`
	Date            time.Time   `json:"date"`
	ItemsCount      int         `json:"itemsCount"`
	Items           []CartLine  `json:"items"`
	PaymentMethod   string      `json:"paymentMethod"`
	TrackingNumber  string      `json:"trackingNumber"`
	ShippingAddress string      `json:"shippingAddress"`
}

// Clone copies the order including its item snapshot.
func (o Order) Clone() Order {
	c := o
	if o.Items != nil {
		c.Items = append([]CartLine(nil), o.Items...)
	}
	return c
}

// SortOrdersNewestFirst orders by date descending, breaking ties by id.
func SortOrdersNewestFirst(orders []Order) {
	slices.SortStableFunc(orders, func(a, b Order) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// Receipt is the one-shot payload handed to the confirmation view.
type Receipt struct {
	OrderID  string   `json:"orderId"`
	Amount   int64    `json:"amount"`
	Method   string   `json:"method"`
	Warnings []string `json:"warnings,omitempty"`
}

// DefaultReceipt is what the confirmation view shows without a payload.
func DefaultReceipt() Receipt {
	return Receipt{
		OrderID: "ORD-UNKNOWN",
		Amount:  0,
		Method:  "VNPAY",
	}
}
