package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records processing outcomes for incoming gateway webhooks.
type WebhookMetrics struct {
	duration  *prometheus.HistogramVec
	processed *prometheus.CounterVec
	ignored   *prometheus.CounterVec
	duplicate *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_duration_seconds",
		Help:    "Duration of webhook event processing in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event"})
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_processed",
		Help: "Webhook events processed successfully.",
	}, []string{"event"})
	ignored := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_ignored",
		Help: "Webhook events acknowledged but not handled.",
	}, []string{"event"})
	duplicate := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_duplicate",
		Help: "Webhook events skipped by the idempotency guard.",
	}, []string{"event"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_failed",
		Help: "Webhook events that failed processing.",
	}, []string{"event"})
	reg.MustRegister(duration, processed, ignored, duplicate, failed)
	return &WebhookMetrics{
		duration:  duration,
		processed: processed,
		ignored:   ignored,
		duplicate: duplicate,
		failed:    failed,
	}
}

// ObserveDuration records processing time for the named event.
func (w *WebhookMetrics) ObserveDuration(event string, duration time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(normalizeLabel(event)).Observe(duration.Seconds())
}

// IncProcessed increments the processed counter for the named event.
func (w *WebhookMetrics) IncProcessed(event string) {
	if w == nil || w.processed == nil {
		return
	}
	w.processed.WithLabelValues(normalizeLabel(event)).Inc()
}

// IncIgnored increments the ignored counter for the named event.
func (w *WebhookMetrics) IncIgnored(event string) {
	if w == nil || w.ignored == nil {
		return
	}
	w.ignored.WithLabelValues(normalizeLabel(event)).Inc()
}

// IncDuplicate increments the duplicate counter for the named event.
func (w *WebhookMetrics) IncDuplicate(event string) {
	if w == nil || w.duplicate == nil {
		return
	}
	w.duplicate.WithLabelValues(normalizeLabel(event)).Inc()
}

// IncFailed increments the failure counter for the named event.
func (w *WebhookMetrics) IncFailed(event string) {
	if w == nil || w.failed == nil {
		return
	}
	w.failed.WithLabelValues(normalizeLabel(event)).Inc()
}

func normalizeLabel(event string) string {
	if event == "" {
		return "unknown"
	}
	return event
}
