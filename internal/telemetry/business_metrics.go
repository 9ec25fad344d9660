package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for the storefront funnel.
// Every method is safe on a nil receiver so callers never need to check.
type BusinessMetrics struct {
	// Catalog
	ProductViews    *prometheus.CounterVec
	ProductSearches *prometheus.CounterVec

	// Cart
	CartItemsAdded *prometheus.CounterVec
	CartCleared    prometheus.Counter

	// Checkout funnel
	CheckoutStarted   prometheus.Counter
	CheckoutCompleted *prometheus.CounterVec
	CheckoutFailed    *prometheus.CounterVec
	PaymentAttempts   *prometheus.CounterVec
	PersistRetries    prometheus.Counter

	// Orders
	OrderValue         *prometheus.HistogramVec
	OrderItemCount     prometheus.Histogram
	OrderStatusChanges *prometheus.CounterVec

	// Accounts
	Signups     *prometheus.CounterVec
	Logins      *prometheus.CounterVec
	LoginFailed prometheus.Counter
}

// NewBusinessMetrics creates the metrics and registers them on reg.
// A nil reg uses the default Prometheus registerer.
func NewBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	if namespace == "" {
		namespace = "campusshop"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)
	subsystem := "business"

	return &BusinessMetrics{
		// =======================================================================
		// Catalog
		// =======================================================================
		ProductViews: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "product_views_total",
				Help:      "Total product detail views",
			},
			[]string{"category"},
		),
		ProductSearches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "product_searches_total",
				Help:      "Total catalog listings with a filter applied",
			},
			[]string{"filter_type"}, // filter_type: category, query, sort, none
		),

		// =======================================================================
		// Cart
		// =======================================================================
		CartItemsAdded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_items_added_total",
				Help:      "Total add to cart actions",
			},
			[]string{"category"},
		),
		CartCleared: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_cleared_total",
				Help:      "Total carts emptied by the shopper",
			},
		),

		// =======================================================================
		// Checkout Funnel
		// =======================================================================
		CheckoutStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_started_total",
				Help:      "Total checkouts entered with a non-empty cart",
			},
		),
		CheckoutCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_completed_total",
				Help:      "Total checkouts that produced an order",
			},
			[]string{"payment_method"},
		),
		CheckoutFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_failed_total",
				Help:      "Total rejected or failed checkout submissions",
			},
			[]string{"reason"}, // reason: validation, payment, persistence, conflict, empty_cart
		),
		PaymentAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "payment_attempts_total",
				Help:      "Total gateway settlement attempts",
			},
			[]string{"payment_method", "result"},
		),
		PersistRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_persist_retries_total",
				Help:      "Total retried order writes",
			},
		),

		// =======================================================================
		// Orders
		// =======================================================================
		OrderValue: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value_vnd",
				Help:      "Order total in Vietnamese dong",
				Buckets:   []float64{100_000, 500_000, 1_000_000, 5_000_000, 10_000_000, 25_000_000, 50_000_000, 100_000_000},
			},
			[]string{"payment_method"},
		),
		OrderItemCount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_item_count",
				Help:      "Units per order",
				Buckets:   []float64{1, 2, 3, 5, 10, 20},
			},
		),
		OrderStatusChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_status_changes_total",
				Help:      "Total admin order status transitions",
			},
			[]string{"status"},
		),

		// =======================================================================
		// Accounts
		// =======================================================================
		Signups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "signups_total",
				Help:      "Total new accounts",
			},
			[]string{"method"}, // method: password, firebase
		),
		Logins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "logins_total",
				Help:      "Total successful sign-ins",
			},
			[]string{"method"},
		),
		LoginFailed: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "login_failed_total",
				Help:      "Total rejected sign-in attempts",
			},
		),
	}
}

func (m *BusinessMetrics) RecordProductView(category string) {
	if m == nil {
		return
	}
	m.ProductViews.WithLabelValues(category).Inc()
}

func (m *BusinessMetrics) RecordSearch(filterType string) {
	if m == nil {
		return
	}
	m.ProductSearches.WithLabelValues(filterType).Inc()
}

func (m *BusinessMetrics) RecordCartAdd(category string) {
	if m == nil {
		return
	}
	m.CartItemsAdded.WithLabelValues(category).Inc()
}

func (m *BusinessMetrics) RecordCartCleared() {
	if m == nil {
		return
	}
	m.CartCleared.Inc()
}

func (m *BusinessMetrics) RecordCheckoutStarted() {
	if m == nil {
		return
	}
	m.CheckoutStarted.Inc()
}

// RecordOrderPlaced covers the completed checkout and the order histograms.
func (m *BusinessMetrics) RecordOrderPlaced(method string, amount int64, items int) {
	if m == nil {
		return
	}
	m.CheckoutCompleted.WithLabelValues(method).Inc()
	m.OrderValue.WithLabelValues(method).Observe(float64(amount))
	m.OrderItemCount.Observe(float64(items))
}

func (m *BusinessMetrics) RecordCheckoutFailed(reason string) {
	if m == nil {
		return
	}
	m.CheckoutFailed.WithLabelValues(reason).Inc()
}

func (m *BusinessMetrics) RecordPayment(method, result string) {
	if m == nil {
		return
	}
	m.PaymentAttempts.WithLabelValues(method, result).Inc()
}

func (m *BusinessMetrics) RecordPersistRetry() {
	if m == nil {
		return
	}
	m.PersistRetries.Inc()
}

func (m *BusinessMetrics) RecordStatusChange(status string) {
	if m == nil {
		return
	}
	m.OrderStatusChanges.WithLabelValues(status).Inc()
}

func (m *BusinessMetrics) RecordSignup(method string) {
	if m == nil {
		return
	}
	m.Signups.WithLabelValues(method).Inc()
}

func (m *BusinessMetrics) RecordLogin(method string, ok bool) {
	if m == nil {
		return
	}
	if !ok {
		m.LoginFailed.Inc()
		return
	}
	m.Logins.WithLabelValues(method).Inc()
}
