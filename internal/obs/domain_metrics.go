package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// InvoiceSavedTotal counts persisted invoice writes by operation.
	InvoiceSavedTotal *prometheus.CounterVec
	// InvoiceValidationFailedTotal counts rejected invoice inputs by reason.
	InvoiceValidationFailedTotal *prometheus.CounterVec
	// DocumentRenderTotal counts PDF and email renders by outcome.
	DocumentRenderTotal *prometheus.CounterVec
	// PaymentLinkTotal counts payment link creation outcomes.
	PaymentLinkTotal *prometheus.CounterVec
	// PaymentWebhookTotal counts inbound payment webhook processing outcomes.
	PaymentWebhookTotal *prometheus.CounterVec
	// EmailDeliveryTotal counts outbound email attempts.
	EmailDeliveryTotal *prometheus.CounterVec
	// DocumentRenderLatency records render duration in milliseconds.
	DocumentRenderLatency *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		InvoiceSavedTotal = counterVec(reg, namespace, "invoice_saved_total", "Count of persisted invoice writes.", "op")
		InvoiceValidationFailedTotal = counterVec(reg, namespace, "invoice_validation_failed_total", "Count of rejected invoice payloads.", "reason")
		DocumentRenderTotal = counterVec(reg, namespace, "document_render_total", "Count of invoice document renders.", "kind", "result")
		PaymentLinkTotal = counterVec(reg, namespace, "payment_link_total", "Count of payment link creation outcomes.", "provider", "result")
		PaymentWebhookTotal = counterVec(reg, namespace, "payment_webhook_total", "Count of processed payment webhooks by outcome.", "provider", "result")
		EmailDeliveryTotal = counterVec(reg, namespace, "email_delivery_total", "Count of outbound email attempts.", "result")

		DocumentRenderLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_render_duration_ms",
			Help:      "Invoice document render latency in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"kind"})
		mustRegisterCollector(reg, DocumentRenderLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				DocumentRenderLatency = v
			}
		})
	})
}

// Inc increments vec when metrics are registered. Packages call it so tests
// and tools that skip registration keep working.
func Inc(vec *prometheus.CounterVec, labels ...string) {
	if vec == nil {
		return
	}
	vec.WithLabelValues(labels...).Inc()
}

// Observe records a histogram sample when metrics are registered.
func Observe(vec *prometheus.HistogramVec, value float64, labels ...string) {
	if vec == nil {
		return
	}
	vec.WithLabelValues(labels...).Observe(value)
}

func counterVec(reg prometheus.Registerer, namespace, name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)
	mustRegisterCollector(reg, vec, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			vec = v
		}
	})
	return vec
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
