package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tallyman/internal/ledger/models"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics provides observability for the ledger module.
// Tracks append outcomes, audit verdicts and critical path durations.
type Metrics struct {
	AppendsTotal        *prometheus.CounterVec
	AppendDuration      prometheus.Histogram
	AuditsTotal         *prometheus.CounterVec
	AuditDuration       prometheus.Histogram
	AuditInvalidRecords prometheus.Gauge
	LedgerSize          prometheus.Gauge
	PublishFailures     prometheus.Counter
}

// New creates a Metrics instance registered against reg.
// A nil reg registers against the default Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		AppendsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tallyman_appends_total",
			Help: "Total number of append attempts by result",
		}, []string{"result"}),
		AppendDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tallyman_append_duration_seconds",
			Help:    "Duration of Append operations including the snapshot read",
			Buckets: durationBuckets,
		}),
		AuditsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tallyman_audits_total",
			Help: "Total number of audit passes by verdict",
		}, []string{"status"}),
		AuditDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tallyman_audit_duration_seconds",
			Help:    "Duration of full-ledger audit passes",
			Buckets: durationBuckets,
		}),
		AuditInvalidRecords: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tallyman_audit_invalid_records",
			Help: "Invalid record count reported by the most recent audit",
		}),
		LedgerSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "tallyman_ledger_transactions",
			Help: "Number of transactions seen by the most recent audit",
		}),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "tallyman_publish_failures_total",
			Help: "Append events that could not be published",
		}),
	}
}

// ObserveAppend records the outcome and duration of an Append operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveAppend(start time.Time, result string) {
	m.AppendsTotal.WithLabelValues(result).Inc()
	m.AppendDuration.Observe(time.Since(start).Seconds())
}

// ObserveAudit records an audit verdict and its duration.
func (m *Metrics) ObserveAudit(start time.Time, report models.Report) {
	m.AuditsTotal.WithLabelValues(report.Status).Inc()
	m.AuditDuration.Observe(time.Since(start).Seconds())
	m.AuditInvalidRecords.Set(float64(report.InvalidCount))
	m.LedgerSize.Set(float64(report.Total))
}

// IncrementPublishFailures records an append event that was dropped.
func (m *Metrics) IncrementPublishFailures() {
	m.PublishFailures.Inc()
}
