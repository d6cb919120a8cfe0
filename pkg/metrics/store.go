package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics records outcome counts for the purchase pipeline.
type StoreMetrics struct {
	ordersCreated *prometheus.CounterVec
	captures      *prometheus.CounterVec
	webhookEvents *prometheus.CounterVec
	downloads     *prometheus.CounterVec
}

// NewStoreMetrics registers the storefront metrics on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Payment orders opened, by outcome.",
	}, []string{"outcome"})
	captures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_captures_total",
		Help: "Capture attempts, by outcome.",
	}, []string{"outcome"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Webhook deliveries, by outcome.",
	}, []string{"outcome"})
	downloads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "download_redemptions_total",
		Help: "Download token redemptions, by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(ordersCreated, captures, webhookEvents, downloads)
	return &StoreMetrics{
		ordersCreated: ordersCreated,
		captures:      captures,
		webhookEvents: webhookEvents,
		downloads:     downloads,
	}
}

// IncOrderCreated increments the order-creation counter for the outcome.
func (m *StoreMetrics) IncOrderCreated(outcome string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncCapture increments the capture counter for the outcome.
func (m *StoreMetrics) IncCapture(outcome string) {
	if m == nil || m.captures == nil {
		return
	}
	m.captures.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncWebhookEvent increments the webhook counter for the outcome.
func (m *StoreMetrics) IncWebhookEvent(outcome string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncDownload increments the redemption counter for the outcome.
func (m *StoreMetrics) IncDownload(outcome string) {
	if m == nil || m.downloads == nil {
		return
	}
	m.downloads.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
