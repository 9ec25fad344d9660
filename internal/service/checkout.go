package service

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/dukerupert/campusshop/internal/events"
	"github.com/dukerupert/campusshop/internal/payment"
	"github.com/dukerupert/campusshop/internal/repository"
	"github.com/dukerupert/campusshop/internal/telemetry"
	"github.com/google/uuid"
)

const addressNotSavedWarning = "Your shipping address could not be saved to your address book"

// AddressSaver stores a new address in a user's address book.
type AddressSaver interface {
	SaveAddress(ctx context.Context, userID string, addr domain.Address) (*domain.User, error)
}

// CheckoutOptions configures the collaborators shared by every session's checkout.
type CheckoutOptions struct {
	Orders    repository.OrderRepository
	Addresses AddressSaver
	Gateway   payment.Gateway
	Events    events.Publisher
	Metrics   *telemetry.BusinessMetrics
	Logger    *slog.Logger

	// PersistTimeout bounds each order write attempt.
	PersistTimeout time.Duration

	// PersistRetries is the number of extra attempts after a retryable failure.
	PersistRetries uint64

	// Backoff builds the retry schedule. Defaults to exponential backoff.
	Backoff func() backoff.BackOff

	// Now is the order clock. Defaults to time.Now.
	Now func() time.Time

	// IdleTimeout is how long an untouched checkout is kept before a sweep
	// drops it. Defaults to DefaultCartIdleTimeout.
	IdleTimeout time.Duration
}

func (o *CheckoutOptions) setDefaults() {
	if o.Gateway == nil {
		o.Gateway = payment.NewSimulated(0)
	}
	if o.Events == nil {
		o.Events = events.Noop{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = 10 * time.Second
	}
	if o.Backoff == nil {
		o.Backoff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 250 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = DefaultCartIdleTimeout
	}
}

// CheckoutSessions hands out one Checkout per session.
type CheckoutSessions struct {
	opts  CheckoutOptions
	carts *CartSessions

	mu       sync.Mutex
	sessions map[string]*Checkout
}

// NewCheckoutSessions creates the per-session checkout registry.
func NewCheckoutSessions(carts *CartSessions, opts CheckoutOptions) *CheckoutSessions {
	opts.setDefaults()
	return &CheckoutSessions{
		opts:     opts,
		carts:    carts,
		sessions: make(map[string]*Checkout),
	}
}

// For returns the session's checkout, creating it in the idle state.
func (s *CheckoutSessions) For(sessionID string) *Checkout {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.sessions[sessionID]
	if !ok {
		c = &Checkout{
			opts:      &s.opts,
			carts:     s.carts,
			sessionID: sessionID,
			state:     domain.CheckoutIdle,
		}
		s.sessions[sessionID] = c
	}
	c.lastUsed = s.opts.Now()
	return c
}

// TakeReceipt returns the session's last receipt once. Without one it returns
// the placeholder receipt so the confirmation view can still render.
func (s *CheckoutSessions) TakeReceipt(sessionID string) domain.Receipt {
	s.mu.Lock()
	c, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return domain.DefaultReceipt()
	}
	if r, ok := c.takeReceipt(); ok {
		return r
	}
	return domain.DefaultReceipt()
}

// Sweep drops checkouts untouched for longer than the idle timeout and
// returns how many it dropped. A checkout with an attempt in flight is kept.
func (s *CheckoutSessions) Sweep() int {
	cutoff := s.opts.Now().Add(-s.opts.IdleTimeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, c := range s.sessions {
		if c.lastUsed.After(cutoff) || c.State().Busy() {
			continue
		}
		delete(s.sessions, id)
		removed++
	}
	return removed
}

// Checkout turns a session's cart into an order.
//
// The flow is idle -> collecting -> processing (vnpay only) -> finalizing ->
// done. While processing or finalizing every submit is rejected, so a
// double-submitted form can never place two orders. A failed attempt returns
// to collecting with the cart untouched.
type Checkout struct {
	opts      *CheckoutOptions
	carts     *CartSessions
	sessionID string
	lastUsed  time.Time // guarded by CheckoutSessions.mu

	mu      sync.Mutex
	state   domain.CheckoutState
	receipt *domain.Receipt
}

// State reports the current step.
func (c *Checkout) State() domain.CheckoutState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Checkout) setState(state domain.CheckoutState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

func (c *Checkout) takeReceipt() (domain.Receipt, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.receipt == nil {
		return domain.Receipt{}, false
	}
	r := *c.receipt
	c.receipt = nil
	return r, true
}

// Begin enters the checkout and returns a draft pre-filled from the user's
// profile. An empty cart is refused without entering.
func (c *Checkout) Begin(ctx context.Context, user *domain.User) (domain.CheckoutDraft, error) {
	if user == nil {
		return domain.CheckoutDraft{}, domain.ErrNotAuthenticated
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Busy() {
		return domain.CheckoutDraft{}, domain.ErrCheckoutInProgress
	}
	if c.carts.Cart(ctx, c.sessionID).Count() == 0 {
		return domain.CheckoutDraft{}, domain.ErrCartEmpty
	}

	if c.state != domain.CheckoutCollecting {
		c.opts.Metrics.RecordCheckoutStarted()
	}
	c.state = domain.CheckoutCollecting

	return prefillDraft(user), nil
}

func prefillDraft(user *domain.User) domain.CheckoutDraft {
	draft := domain.CheckoutDraft{PaymentMethod: domain.PaymentVNPay}
	if addr, ok := user.DefaultAddress(); ok {
		draft.Shipping = domain.ShippingFromAddress(addr)
		draft.SavedAddressID = addr.ID
		return draft
	}
	draft.Shipping.FullName = user.Name
	return draft
}

// attempt is a validated submission that has claimed the checkout.
type attempt struct {
	user     *domain.User
	shipping domain.ShippingInfo
	method   domain.PaymentMethod
	saveAddr bool
	lines    []domain.CartLine
	count    int
	total    int64
}

// Submit validates the draft and places the order. Effects run strictly in
// order: address save, payment, order write, cart clear.
func (c *Checkout) Submit(ctx context.Context, user *domain.User, draft domain.CheckoutDraft) (*domain.Receipt, error) {
	const op = "checkout.submit"

	a, err := c.claim(ctx, op, user, draft)
	if err != nil {
		return nil, err
	}

	// Once claimed the attempt runs to completion even if the client goes away.
	ctx = context.WithoutCancel(ctx)
	logger := c.opts.Logger.With(slog.String("session_id", c.sessionID), slog.String("user_id", user.ID))

	var warnings []string
	if a.saveAddr && c.opts.Addresses != nil {
		if _, err := c.opts.Addresses.SaveAddress(ctx, user.ID, addressFromShipping(a.shipping)); err != nil {
			logger.WarnContext(ctx, "failed to save shipping address", "error", err)
			warnings = append(warnings, addressNotSavedWarning)
		}
	}

	if a.method == domain.PaymentVNPay {
		if err := c.opts.Gateway.Settle(ctx, a.method, a.total); err != nil {
			c.opts.Metrics.RecordPayment(string(a.method), "failed")
			return nil, c.fail(ctx, logger, "payment", paymentError(op, err))
		}
		c.opts.Metrics.RecordPayment(string(a.method), "success")
		telemetry.AddBreadcrumb(ctx, "checkout", "payment settled", map[string]interface{}{"amount": a.total})
		c.setState(domain.CheckoutFinalizing)
	}

	order, err := c.buildOrder(a)
	if err != nil {
		return nil, c.fail(ctx, logger, "order_id", domain.Internal(err, op, "Could not prepare your order"))
	}
	telemetry.AddBreadcrumb(ctx, "checkout", "writing order", map[string]interface{}{
		"order_id": order.ID,
		"method":   string(a.method),
	})

	if err := c.persist(ctx, order); err != nil {
		perr := domain.Persistence(err, op, "We could not place your order. Please try again.")
		telemetry.CaptureError(ctx, perr, map[string]interface{}{"order_id": order.ID})
		return nil, c.fail(ctx, logger, "persist", perr)
	}

	c.carts.ClearHeld(ctx, c.sessionID)

	receipt := &domain.Receipt{
		OrderID:  order.ID,
		Amount:   order.TotalAmount,
		Method:   string(a.method),
		Warnings: warnings,
	}

	c.mu.Lock()
	c.state = domain.CheckoutDone
	stashed := *receipt
	c.receipt = &stashed
	c.mu.Unlock()

	c.opts.Metrics.RecordOrderPlaced(string(a.method), order.TotalAmount, order.ItemsCount)
	if err := c.opts.Events.OrderCreated(ctx, order); err != nil {
		logger.WarnContext(ctx, "failed to publish order created event", "order_id", order.ID, "error", err)
	}

	logger.InfoContext(ctx, "order placed",
		"order_id", order.ID,
		"amount", order.TotalAmount,
		"items", order.ItemsCount,
		"method", string(a.method),
	)

	return receipt, nil
}

// claim runs every side-effect-free check and, when they pass, moves the
// checkout into its busy state.
func (c *Checkout) claim(ctx context.Context, op string, user *domain.User, draft domain.CheckoutDraft) (*attempt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Busy() {
		return nil, domain.ErrCheckoutInProgress
	}
	if c.state == domain.CheckoutDone {
		return nil, domain.ErrCheckoutCompleted
	}
	if user == nil {
		return nil, domain.ErrNotAuthenticated
	}

	shipping := draft.Shipping.Trimmed()
	if draft.SavedAddressID != "" {
		addr, ok := user.FindAddress(draft.SavedAddressID)
		if !ok {
			return nil, domain.ErrAddressNotFound
		}
		shipping = domain.ShippingFromAddress(addr)
		shipping.Note = strings.TrimSpace(draft.Shipping.Note)
	}
	if err := validateStruct(op, shipping, ""); err != nil {
		return nil, err
	}

	method, err := domain.ParsePaymentMethod(string(draft.PaymentMethod))
	if err != nil {
		return nil, err
	}

	lines, err := c.carts.Hold(ctx, c.sessionID)
	if err != nil {
		return nil, err
	}
	count, total := domain.SumLines(lines)

	if method == domain.PaymentVNPay {
		c.state = domain.CheckoutProcessing
	} else {
		c.state = domain.CheckoutFinalizing
	}

	return &attempt{
		user:     user,
		shipping: shipping,
		method:   method,
		saveAddr: draft.SaveAddress && draft.SavedAddressID == "",
		lines:    lines,
		count:    count,
		total:    total,
	}, nil
}

func (c *Checkout) fail(ctx context.Context, logger *slog.Logger, reason string, err error) error {
	c.carts.Release(ctx, c.sessionID)
	c.setState(domain.CheckoutCollecting)
	c.opts.Metrics.RecordCheckoutFailed(reason)
	logger.ErrorContext(ctx, "checkout failed", "reason", reason, "error", err)
	return err
}

func paymentError(op string, err error) error {
	if domain.IsCode(err, domain.EPAYMENT) {
		return err
	}
	return domain.WrapError(err, domain.EPAYMENT, op, "Payment could not be completed")
}

func (c *Checkout) buildOrder(a *attempt) (domain.Order, error) {
	tracking, err := trackingNumber()
	if err != nil {
		return domain.Order{}, err
	}
	return domain.Order{
		ID:              newOrderID(a.method),
		UserID:          a.user.ID,
		CustomerName:    a.shipping.FullName,
		TotalAmount:     a.total,
		Status:          domain.OrderStatusPending,
		Date:            c.opts.Now().UTC(),
		ItemsCount:      a.count,
		Items:           a.lines,
		PaymentMethod:   a.method.DisplayName(),
		TrackingNumber:  tracking,
		ShippingAddress: a.shipping.Line(),
	}, nil
}

// persist writes the order with a per-attempt timeout. Timeouts and
// persistence errors are retried; the order id is fixed so a retry after an
// ambiguous failure cannot create a duplicate.
func (c *Checkout) persist(ctx context.Context, order domain.Order) error {
	attempts := 0
	write := func() error {
		attempts++
		if attempts > 1 {
			c.opts.Metrics.RecordPersistRetry()
		}

		writeCtx, cancel := context.WithTimeout(ctx, c.opts.PersistTimeout)
		defer cancel()

		err := c.opts.Orders.Create(writeCtx, order)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) || domain.IsCode(err, domain.EPERSIST) {
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.opts.Backoff(), c.opts.PersistRetries), ctx)
	return backoff.Retry(write, policy)
}

func addressFromShipping(s domain.ShippingInfo) domain.Address {
	return domain.Address{
		FullName: s.FullName,
		Phone:    s.Phone,
		Address:  s.Address,
		City:     s.City,
	}
}

// newOrderID tags a short unique token with the payment method prefix.
func newOrderID(method domain.PaymentMethod) string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	return method.OrderPrefix() + strings.ToUpper(token[:12])
}

const trackingAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// trackingNumber returns "VN" followed by ten random alphanumerics.
func trackingNumber() (string, error) {
	b := make([]byte, 10)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = trackingAlphabet[int(b[i])%len(trackingAlphabet)]
	}
	return "VN" + string(b), nil
}
