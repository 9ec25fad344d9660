// Package payment defines the gateway contract used by checkout and a
// simulated gateway standing in for VNPAY.
package payment

import (
	"context"
	"time"

	"github.com/dukerupert/campusshop/internal/domain"
)

// Gateway settles a payment before the order is persisted.
type Gateway interface {
	Settle(ctx context.Context, method domain.PaymentMethod, amount int64) error
}

// Simulated succeeds after a fixed delay for vnpay and immediately for cod.
type Simulated struct {
	delay time.Duration
	after func(time.Duration) <-chan time.Time
}

// NewSimulated creates a simulated gateway with the given settling delay.
func NewSimulated(delay time.Duration) *Simulated {
	return &Simulated{delay: delay, after: time.After}
}

// Settle waits out the delay. A cancelled context aborts the wait.
func (g *Simulated) Settle(ctx context.Context, method domain.PaymentMethod, amount int64) error {
	if method != domain.PaymentVNPay || g.delay <= 0 {
		return nil
	}
	select {
	case <-g.after(g.delay):
		return nil
	case <-ctx.Done():
		return domain.WrapError(ctx.Err(), domain.EPAYMENT, "payment.settle", "Payment was not completed")
	}
}

// Func adapts a function to Gateway.
type Func func(ctx context.Context, method domain.PaymentMethod, amount int64) error

func (f Func) Settle(ctx context.Context, method domain.PaymentMethod, amount int64) error {
	return f(ctx, method, amount)
}
