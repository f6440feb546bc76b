package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CommerceMetrics records the order lifecycle counters exported at /metrics.
type CommerceMetrics struct {
	checkoutDuration *prometheus.HistogramVec
	checkouts        *prometheus.CounterVec
	ordersCreated    prometheus.Counter
	transitions      *prometheus.CounterVec
	claims           *prometheus.CounterVec
	settlements      *prometheus.CounterVec
}

// NewCommerceMetrics registers the commerce metrics on the provided registerer.
func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	checkoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_total",
		Help: "Checkout attempts by result.",
	}, []string{"result"})
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created by successful checkouts.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order status transitions by target status.",
	}, []string{"to_status"})
	claims := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "delivery_claims_total",
		Help: "Delivery claim attempts by result.",
	}, []string{"result"})
	settlements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlements_created_total",
		Help: "Settlements created by recipient type.",
	}, []string{"recipient"})
	reg.MustRegister(checkoutDuration, checkouts, ordersCreated, transitions, claims, settlements)
	return &CommerceMetrics{
		checkoutDuration: checkoutDuration,
		checkouts:        checkouts,
		ordersCreated:    ordersCreated,
		transitions:      transitions,
		claims:           claims,
		settlements:      settlements,
	}
}

// ObserveCheckout records a checkout attempt and its duration.
func (m *CommerceMetrics) ObserveCheckout(result string, duration time.Duration) {
	if m == nil || m.checkouts == nil {
		return
	}
	label := normalizeLabel(result)
	m.checkouts.WithLabelValues(label).Inc()
	m.checkoutDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// AddOrdersCreated adds to the created-orders counter after a checkout fan-out.
func (m *CommerceMetrics) AddOrdersCreated(n int) {
	if m == nil || m.ordersCreated == nil || n <= 0 {
		return
	}
	m.ordersCreated.Add(float64(n))
}

// IncTransition increments the transition counter for the target status.
func (m *CommerceMetrics) IncTransition(toStatus string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(toStatus)).Inc()
}

// IncClaim increments the delivery claim counter for the given result.
func (m *CommerceMetrics) IncClaim(result string) {
	if m == nil || m.claims == nil {
		return
	}
	m.claims.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncSettlement increments the settlement counter for the recipient type.
func (m *CommerceMetrics) IncSettlement(recipient string) {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.WithLabelValues(normalizeLabel(recipient)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
