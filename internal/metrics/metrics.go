// Package metrics holds the Prometheus metrics of statement processing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fabian-co/SelfEconomy/internal/model"
)

// Metrics holds all Prometheus metrics on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	DocumentsProcessed   *prometheus.CounterVec
	Transactions         *prometheus.CounterVec
	ExcludedTransactions *prometheus.CounterVec
	SkippedInputs        *prometheus.CounterVec
	Failures             *prometheus.CounterVec
	Duration             *prometheus.HistogramVec

	HTTPRequests *prometheus.CounterVec
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		DocumentsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "selfeconomy_documents_processed_total",
			Help: "Statements normalized, by profile",
		}, []string{"profile"}),
		Transactions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "selfeconomy_transactions_total",
			Help: "Transactions extracted, by profile",
		}, []string{"profile"}),
		ExcludedTransactions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "selfeconomy_excluded_transactions_total",
			Help: "Transactions excluded from totals, by profile",
		}, []string{"profile"}),
		SkippedInputs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "selfeconomy_skipped_inputs_total",
			Help: "Rows, lines or matches skipped, by stage",
		}, []string{"stage"}),
		Failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "selfeconomy_failures_total",
			Help: "Statements that could not be processed, by reason",
		}, []string{"reason"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "selfeconomy_normalization_duration_seconds",
			Help:    "Time spent normalizing one statement",
			Buckets: prometheus.DefBuckets,
		}, []string{"profile"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "selfeconomy_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"route", "status"}),
	}
}

// Skipped records skipped inputs for a normalization stage.
func (m *Metrics) Skipped(stage string, n int) {
	m.SkippedInputs.WithLabelValues(stage).Add(float64(n))
}

// ObserveLedger records a normalized statement.
func (m *Metrics) ObserveLedger(profile string, l *model.Ledger, elapsed time.Duration) {
	m.DocumentsProcessed.WithLabelValues(profile).Inc()
	m.Transactions.WithLabelValues(profile).Add(float64(len(l.Transactions)))
	m.ExcludedTransactions.WithLabelValues(profile).Add(float64(l.ExcludedCount()))
	m.Duration.WithLabelValues(profile).Observe(elapsed.Seconds())
}

// Failed records a statement that could not be processed.
func (m *Metrics) Failed(reason string) {
	m.Failures.WithLabelValues(reason).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
