package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the mailer.
type Metrics struct {
	EventsProcessed *prometheus.CounterVec
	EmailsSent      prometheus.Counter
	BatchesRejected prometheus.Counter
	BatchDuration   prometheus.Histogram
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		EventsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mailer_events_processed_total",
			Help: "Webhook events processed, partitioned by entity and outcome",
		}, []string{"entity", "outcome"}),
		EmailsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailer_emails_sent_total",
			Help: "Emails handed to the mail transport successfully",
		}),
		BatchesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mailer_batches_rejected_total",
			Help: "Webhook batches dropped by the single-flight latch",
		}),
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mailer_batch_duration_seconds",
			Help:    "Wall time spent draining one webhook batch",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// ObserveBatch records the duration of one drained batch.
func (m *Metrics) ObserveBatch(d time.Duration) {
	m.BatchDuration.Observe(d.Seconds())
}

// IncEventProcessed counts one event reaching a terminal outcome.
func (m *Metrics) IncEventProcessed(entity, outcome string) {
	m.EventsProcessed.WithLabelValues(entity, outcome).Inc()
}

// IncEmailSent counts one successful transport send.
func (m *Metrics) IncEmailSent() {
	m.EmailsSent.Inc()
}

// IncBatchRejected counts one batch dropped while another was in flight.
func (m *Metrics) IncBatchRejected() {
	m.BatchesRejected.Inc()
}
