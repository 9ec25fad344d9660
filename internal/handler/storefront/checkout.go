package storefront

import (
	"errors"
	"net/http"

	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/handler"
	"github.com/dukerupert/campusshop/internal/middleware"
	"github.com/dukerupert/campusshop/internal/service"
)

const cartPath = "/cart"

// CheckoutHandler drives the checkout flow for the browser's cart session.
// Begin, Submit and State require a signed-in user.
type CheckoutHandler struct {
	sessions *service.CheckoutSessions
	carts    *service.CartSessions
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(sessions *service.CheckoutSessions, carts *service.CartSessions) *CheckoutHandler {
	return &CheckoutHandler{sessions: sessions, carts: carts}
}

type beginResponse struct {
	State          domain.CheckoutState  `json:"state"`
	Draft          domain.CheckoutDraft  `json:"draft"`
	Cart           domain.CartSummary    `json:"cart"`
	SavedAddresses []domain.Address      `json:"savedAddresses"`
	PaymentMethods []paymentMethodOption `json:"paymentMethods"`
}

type paymentMethodOption struct {
	Value domain.PaymentMethod `json:"value"`
	Label string               `json:"label"`
}

var paymentMethods = []paymentMethodOption{
	{Value: domain.PaymentVNPay, Label: domain.PaymentVNPay.DisplayName()},
	{Value: domain.PaymentCOD, Label: domain.PaymentCOD.DisplayName()},
}

// Begin handles GET /api/checkout. An empty cart answers 303 to the cart page
// with a JSON redirect hint for clients that do not follow redirects.
func (h *CheckoutHandler) Begin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middleware.GetUserFromContext(ctx)
	cartID := middleware.GetCartID(ctx)

	draft, err := h.sessions.For(cartID).Begin(ctx, user)
	if errors.Is(err, domain.ErrCartEmpty) {
		w.Header().Set("Location", cartPath)
		handler.JSON(w, http.StatusSeeOther, map[string]any{
			"error": map[string]string{
				"code":     domain.EINVALID,
				"message":  domain.ErrorMessage(err),
				"redirect": cartPath,
			},
		})
		return
	}
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	saved := user.SavedAddresses
	if saved == nil {
		saved = []domain.Address{}
	}
	handler.OK(w, beginResponse{
		State:          domain.CheckoutCollecting,
		Draft:          draft,
		Cart:           h.carts.Cart(ctx, cartID).Summary(),
		SavedAddresses: saved,
		PaymentMethods: paymentMethods,
	})
}

// State handles GET /api/checkout/state so a client can show the processing
// overlay after a reload.
func (h *CheckoutHandler) State(w http.ResponseWriter, r *http.Request) {
	state := h.sessions.For(middleware.GetCartID(r.Context())).State()
	handler.OK(w, map[string]any{"state": state, "busy": state.Busy()})
}

// Submit handles POST /api/checkout. The receipt is returned and also kept
// for one read through Confirmation.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var draft domain.CheckoutDraft
	if !handler.DecodeJSON(w, r, &draft) {
		return
	}

	ctx := r.Context()
	receipt, err := h.sessions.For(middleware.GetCartID(ctx)).Submit(ctx, middleware.GetUserFromContext(ctx), draft)
	if errors.Is(err, domain.ErrCartEmpty) {
		handler.ErrorResponseWithRedirect(w, r, err, cartPath)
		return
	}
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusCreated, receipt)
}

// Confirmation handles GET /api/checkout/confirmation. The receipt is
// consumed on read; later reads get the default receipt.
func (h *CheckoutHandler) Confirmation(w http.ResponseWriter, r *http.Request) {
	handler.OK(w, h.sessions.TakeReceipt(middleware.GetCartID(r.Context())))
}
