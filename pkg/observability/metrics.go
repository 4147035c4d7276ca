package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Statement outcomes.
const (
	OutcomeParsed   = "parsed"
	OutcomeNoTables = "no_tables"
	OutcomeFailed   = "failed"
)

// PipelineMetrics collects statement pipeline counters on one registry.
type PipelineMetrics struct {
	// StatementsTotal tracks processed statements by outcome
	StatementsTotal *prometheus.CounterVec

	// TablesTotal tracks parsed tables by how their columns were resolved
	TablesTotal *prometheus.CounterVec

	// RowsSkippedTotal tracks rows that produced no transaction
	RowsSkippedTotal *prometheus.CounterVec

	TransactionsTotal prometheus.Counter
	DuplicatesTotal   prometheus.Counter

	// ParseDuration tracks end-to-end parse time
	ParseDuration *prometheus.HistogramVec
}

// NewPipelineMetrics registers the pipeline metrics on reg. A nil reg uses a private
// registry so repeated construction never collides.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &PipelineMetrics{
		StatementsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stmt_statements_total",
				Help: "Total number of statements processed",
			},
			[]string{"bank", "outcome"},
		),
		TablesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stmt_tables_total",
				Help: "Total number of tables parsed",
			},
			[]string{"mapping"},
		),
		RowsSkippedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stmt_rows_skipped_total",
				Help: "Rows dropped while parsing tables",
			},
			[]string{"reason"},
		),
		TransactionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "stmt_transactions_total",
			Help: "Transactions emitted after de-duplication",
		}),
		DuplicatesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "stmt_duplicates_total",
			Help: "Transactions dropped as duplicates across tables",
		}),
		ParseDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stmt_parse_duration_seconds",
				Help:    "Statement parse duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
	}
}

// ObserveStatement records one finished statement.
func (m *PipelineMetrics) ObserveStatement(bank, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.StatementsTotal.WithLabelValues(bank, outcome).Inc()
	m.ParseDuration.WithLabelValues(outcome).Observe(time.Since(started).Seconds())
}

// ObserveTable records one parsed table. An empty mapping means the table was unmappable.
func (m *PipelineMetrics) ObserveTable(mapping string, skipped map[string]int) {
	if m == nil {
		return
	}
	if mapping == "" {
		mapping = "none"
	}
	m.TablesTotal.WithLabelValues(mapping).Inc()
	for reason, n := range skipped {
		m.RowsSkippedTotal.WithLabelValues(reason).Add(float64(n))
	}
}

// ObserveAggregate records the merged transaction count and dropped duplicates.
func (m *PipelineMetrics) ObserveAggregate(transactions, duplicates int) {
	if m == nil {
		return
	}
	m.TransactionsTotal.Add(float64(transactions))
	m.DuplicatesTotal.Add(float64(duplicates))
}
