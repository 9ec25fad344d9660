// Package events publishes order lifecycle events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/campusshop/internal/domain"
	"github.com/nats-io/nats.go"
)

// Subjects.
const (
	SubjectOrderCreated       = "campusshop.order.created"
	SubjectOrderStatusChanged = "campusshop.order.status_changed"
)

// Publisher emits order events. Delivery is best-effort: callers log and
// continue when a publish fails.
type Publisher interface {
	OrderCreated(ctx context.Context, order domain.Order) error
	OrderStatusChanged(ctx context.Context, orderID string, status domain.OrderStatus) error
	Close()
}

// OrderCreatedEvent is the payload on SubjectOrderCreated.
type OrderCreatedEvent struct {
	OrderID       string    `json:"orderId"`
	UserID        string    `json:"userId"`
	TotalAmount   int64     `json:"totalAmount"`
	ItemsCount    int       `json:"itemsCount"`
	PaymentMethod string    `json:"paymentMethod"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// OrderStatusChangedEvent is the payload on SubjectOrderStatusChanged.
type OrderStatusChangedEvent struct {
	OrderID    string             `json:"orderId"`
	Status     domain.OrderStatus `json:"status"`
	OccurredAt time.Time          `json:"occurredAt"`
}

// NATSPublisher publishes JSON events on a NATS connection.
type NATSPublisher struct {
	conn *nats.Conn
	now  func() time.Time
}

// Connect dials NATS with reconnects enabled.
func Connect(url string, logger *slog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("campusshop"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &NATSPublisher{conn: conn, now: time.Now}, nil
}

func (p *NATSPublisher) OrderCreated(ctx context.Context, order domain.Order) error {
	return p.publish(SubjectOrderCreated, OrderCreatedEvent{
		OrderID:       order.ID,
		UserID:        order.UserID,
		TotalAmount:   order.TotalAmount,
		ItemsCount:    order.ItemsCount,
		PaymentMethod: order.PaymentMethod,
		OccurredAt:    p.now().UTC(),
	})
}

func (p *NATSPublisher) OrderStatusChanged(ctx context.Context, orderID string, status domain.OrderStatus) error {
	return p.publish(SubjectOrderStatusChanged, OrderStatusChangedEvent{
		OrderID:    orderID,
		Status:     status,
		OccurredAt: p.now().UTC(),
	})
}

func (p *NATSPublisher) publish(subject string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", subject, err)
	}
	if err := p.conn.Publish(subject, body); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	return nil
}

// Close drains pending messages before closing.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// Noop discards events. Used when NATS_URL is unset.
type Noop struct{}

func (Noop) OrderCreated(context.Context, domain.Order) error { return nil }

func (Noop) OrderStatusChanged(context.Context, string, domain.OrderStatus) error { return nil }

func (Noop) Close() {}

// Recorder keeps published events in memory for tests.
type Recorder struct {
	Created []domain.Order
	Changed map[string]domain.OrderStatus
	Err     error
}

func (r *Recorder) OrderCreated(_ context.Context, order domain.Order) error {
	if r.Err != nil {
		return r.Err
	}
	r.Created = append(r.Created, order)
	return nil
}

func (r *Recorder) OrderStatusChanged(_ context.Context, orderID string, status domain.OrderStatus) error {
	if r.Err != nil {
		return r.Err
	}
	if r.Changed == nil {
		r.Changed = make(map[string]domain.OrderStatus)
	}
	r.Changed[orderID] = status
	return nil
}

func (r *Recorder) Close() {}
