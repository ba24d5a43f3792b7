package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcomes recorded by checkout_orders_total.
const (
	OutcomeCreated           = "created"
	OutcomeEmptyCart         = "empty_cart"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeStockConflict     = "stock_conflict"
	OutcomeNotFound          = "not_found"
	OutcomeError             = "error"
)

// Metrics holds the checkout collectors. A nil *Metrics records nothing.
type Metrics struct {
	Orders             *prometheus.CounterVec
	CheckoutDuration   *prometheus.HistogramVec
	StockDecrements    *prometheus.CounterVec
	EventPublishFailed *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_orders_total",
			Help: "Order creation attempts by outcome.",
		}, []string{"outcome"}),
		CheckoutDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "checkout_duration_seconds",
			Help:    "Duration of order creation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"outcome"}),
		StockDecrements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stock_decrements_total",
			Help: "Conditional stock decrements by result.",
		}, []string{"result"}),
		EventPublishFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_event_publish_failed_total",
			Help: "Order events that could not be published.",
		}, []string{"event"}),
	}
	reg.MustRegister(m.Orders, m.CheckoutDuration, m.StockDecrements, m.EventPublishFailed)
	return m
}

// ObserveCheckout counts one order creation attempt and its duration.
func (m *Metrics) ObserveCheckout(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.Orders.WithLabelValues(outcome).Inc()
	m.CheckoutDuration.WithLabelValues(outcome).Observe(seconds)
}

// StockDecrement counts a conditional decrement; applied is false when no row matched.
func (m *Metrics) StockDecrement(applied bool) {
	if m == nil {
		return
	}
	result := "applied"
	if !applied {
		result = "rejected"
	}
	m.StockDecrements.WithLabelValues(result).Inc()
}

// PublishFailed counts an event that could not be published.
func (m *Metrics) PublishFailed(event string) {
	if m == nil {
		return
	}
	m.EventPublishFailed.WithLabelValues(event).Inc()
}
