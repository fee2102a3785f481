package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Transfer outcomes used as label values.
const (
	OutcomeSuccess      = "success"
	OutcomeInsufficient = "insufficient_quantity"
	OutcomeNotFound     = "not_found"
	OutcomeRejected     = "rejected"
	OutcomeError        = "error"
)

// TransferMetrics records the behaviour of the transfer engine.
type TransferMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
	created  prometheus.Counter
}

// NewTransferMetrics registers the transfer metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewTransferMetrics(reg prometheus.Registerer) *TransferMetrics {
	if reg == nil {
		return &TransferMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stock_transfer_duration_seconds",
		Help:    "Duration of stock transfers in seconds, including the transaction commit.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_transfers_total",
		Help: "Stock transfer attempts by outcome.",
	}, []string{"outcome"})
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_transfer_destination_items_created_total",
		Help: "Transfers that created the destination item instead of merging into an existing sku.",
	})
	reg.MustRegister(duration, outcomes, created)
	return &TransferMetrics{
		duration: duration,
		outcomes: outcomes,
		created:  created,
	}
}

// Observe records one finished transfer attempt.
func (m *TransferMetrics) Observe(outcome string, elapsed time.Duration) {
	if m == nil || m.duration == nil || m.outcomes == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	m.outcomes.WithLabelValues(outcome).Inc()
}

// IncDestinationCreated counts a transfer that created its destination item.
func (m *TransferMetrics) IncDestinationCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
