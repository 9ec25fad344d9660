package domain

import "strings"

// Checkout errors.
var (
	ErrCartEmpty          = &Error{Code: EINVALID, Message: "Cart is empty"}
	ErrInvalidPayment     = &Error{Code: EINVALID, Message: "Unsupported payment method"}
	ErrCheckoutInProgress = &Error{Code: ECONFLICT, Message: "Your order is already being processed"}
	ErrCheckoutCompleted  = &Error{Code: ECONFLICT, Message: "This checkout has already been completed"}
)

// PaymentMethod is the buyer's payment choice.
type PaymentMethod string

const (
	PaymentVNPay PaymentMethod = "vnpay"
	PaymentCOD   PaymentMethod = "cod"
)

// ParsePaymentMethod normalises the client value; empty selects the default (vnpay).
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PaymentVNPay, nil
	}
	m := PaymentMethod(s)
	if !m.Valid() {
		return "", ErrInvalidPayment
	}
	return m, nil
}

// Valid reports whether m is a supported method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentVNPay || m == PaymentCOD
}

// OrderPrefix is the tag placed in front of generated order ids.
func (m PaymentMethod) OrderPrefix() string {
	if m == PaymentCOD {
		return "COD-"
	}
	return "VNP-"
}

// DisplayName is the label stored on the order and shown on the receipt.
func (m PaymentMethod) DisplayName() string {
	if m == PaymentCOD {
		return "Thanh toán khi nhận hàng (COD)"
	}
	return "VNPAY Sandbox"
}

// ShippingInfo holds the shipping fields of a checkout draft.
type ShippingInfo struct {
	FullName string `json:"fullName" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Address  string `json:"address" validate:"required"`
	City     string `json:"city"`
	Note     string `json:"note"`
}

// Trimmed returns a copy with surrounding whitespace removed.
func (s ShippingInfo) Trimmed() ShippingInfo {
	return ShippingInfo{
		FullName: strings.TrimSpace(s.FullName),
		Phone:    strings.TrimSpace(s.Phone),
		Address:  strings.TrimSpace(s.Address),
		City:     strings.TrimSpace(s.City),
		Note:     strings.TrimSpace(s.Note),
	}
}

// ShippingFromAddress fills the shipping fields from a saved address.
func ShippingFromAddress(a Address) ShippingInfo {
	return ShippingInfo{
		FullName: a.FullName,
		Phone:    a.Phone,
		Address:  a.Address,
		City:     a.City,
	}
}

// Line renders the address as stored on the order: "address, city".
func (s ShippingInfo) Line() string {
	if s.City == "" {
		return s.Address
	}
	return s.Address + ", " + s.City
}

// CheckoutDraft is the unpersisted form state collected before an order exists.
// When SavedAddressID is set the shipping fields come from that address and
// free-text edits are ignored.
type CheckoutDraft struct {
	Shipping       ShippingInfo  `json:"shipping"`
	PaymentMethod  PaymentMethod `json:"paymentMethod"`
	SaveAddress    bool          `json:"saveAddress"`
	SavedAddressID string        `json:"savedAddressId,omitempty"`
}

// CheckoutState is the orchestrator's position in the checkout flow.
type CheckoutState string

const (
	CheckoutIdle       CheckoutState = "idle"
	CheckoutCollecting CheckoutState = "collecting"
	CheckoutProcessing CheckoutState = "processing"
	CheckoutFinalizing CheckoutState = "finalizing"
	CheckoutDone       CheckoutState = "done"
)

// Busy reports whether the state withholds further input.
func (s CheckoutState) Busy() bool {
	return s == CheckoutProcessing || s == CheckoutFinalizing
}
