package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for imports, exports and the
// retention job. A nil *Metrics records nothing.
type Metrics struct {
	importsTotal   *prometheus.CounterVec
	importRows     *prometheus.CounterVec
	importDuration prometheus.Histogram
	exportsTotal   *prometheus.CounterVec
	actionsTotal   *prometheus.CounterVec
	purgedTotal    prometheus.Counter
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		importsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "churchbase",
			Name:      "member_imports_total",
			Help:      "Member CSV imports by result (ok, dry_run, rejected, failed).",
		}, []string{"result"}),
		importRows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "churchbase",
			Name:      "member_import_rows_total",
			Help:      "Imported rows by outcome (created, skipped).",
		}, []string{"outcome"}),
		importDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "churchbase",
			Name:      "member_import_duration_seconds",
			Help:      "Wall time of member imports.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		exportsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "churchbase",
			Name:      "exports_total",
			Help:      "Exports by dataset and format.",
		}, []string{"dataset", "format"}),
		actionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "churchbase",
			Name:      "member_actions_total",
			Help:      "Admin actions run over member selections.",
		}, []string{"action"}),
		purgedTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: "churchbase",
			Name:      "communication_logs_purged_total",
			Help:      "Communication logs deleted by the retention job.",
		}),
	}
}

func (m *Metrics) observeImport(result string, o ImportOutcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.importsTotal.WithLabelValues(result).Inc()
	m.importRows.WithLabelValues("created").Add(float64(o.CreatedCount()))
	m.importRows.WithLabelValues("skipped").Add(float64(o.ErrorCount()))
	m.importDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeExport(dataset, format string) {
	if m == nil {
		return
	}
	m.exportsTotal.WithLabelValues(dataset, format).Inc()
}

func (m *Metrics) observeAction(name string) {
	if m == nil {
		return
	}
	m.actionsTotal.WithLabelValues(name).Inc()
}

func (m *Metrics) observePurge(n int64) {
	if m == nil {
		return
	}
	m.purgedTotal.Add(float64(n))
}
