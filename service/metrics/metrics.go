package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the exporter.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics. Callers
// must tolerate a nil *Metrics and skip recording.
type Metrics struct {
	// Indexer API metrics
	apiCallsTotal        *prometheus.CounterVec
	apiCallDuration      *prometheus.HistogramVec
	apiRetries           *prometheus.CounterVec
	apiSignaturesPerCall *prometheus.HistogramVec

	// Fetch pipeline metrics
	transactionsFetchedTotal *prometheus.CounterVec
	signaturesMissingTotal   *prometheus.CounterVec
	transactionsSkippedTotal *prometheus.CounterVec
	addressesFailedTotal     *prometheus.CounterVec

	// Database metrics
	dbQueryDuration   *prometheus.HistogramVec
	dbOperationsTotal *prometheus.CounterVec

	// NATS metrics
	natsMessagesPublished *prometheus.CounterVec
	natsPublishDuration   *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		apiCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "indexer_api_calls_total",
				Help: "Total number of indexer API calls by method and status",
			},
			[]string{"method", "status", "backend"},
		),
		apiCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "indexer_api_call_duration_seconds",
				Help:    "Duration of indexer API calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "backend"},
		),
		apiRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "indexer_api_retries_total",
				Help: "Total number of retry attempts against the indexer API",
			},
			[]string{"method", "reason"},
		),
		apiSignaturesPerCall: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "indexer_api_signatures_per_call",
				Help:    "Number of signatures returned per signature page call",
				Buckets: []float64{1, 10, 50, 100, 250, 500, 1000},
			},
			[]string{"backend"},
		),

		transactionsFetchedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_fetched_total",
				Help: "Total number of transaction records fetched",
			},
			[]string{"wallet_address"},
		),
		signaturesMissingTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signatures_missing_total",
				Help: "Total number of signatures still missing after retries",
			},
			[]string{"wallet_address"},
		),
		transactionsSkippedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_skipped_total",
				Help: "Total number of transaction records skipped",
			},
			[]string{"wallet_address", "reason"},
		),
		addressesFailedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "addresses_failed_total",
				Help: "Total number of addresses skipped due to fetch failures",
			},
			[]string{"reason"},
		),

		dbQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "db_query_duration_seconds",
				Help:    "Duration of database queries in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"operation", "table"},
		),
		dbOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "db_operations_total",
				Help: "Total number of database operations",
			},
			[]string{"operation", "status"},
		),

		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of NATS messages published",
			},
			[]string{"subject", "status"},
		),
		natsPublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nats_publish_duration_seconds",
				Help:    "Duration of NATS publish operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"subject"},
		),
	}
}

// RecordAPICall records an indexer API call with duration.
func (m *Metrics) RecordAPICall(method, status, backend string, duration float64) {
	m.apiCallsTotal.WithLabelValues(method, status, backend).Inc()
	m.apiCallDuration.WithLabelValues(method, backend).Observe(duration)
}

// RecordAPIRetry records a retry attempt.
func (m *Metrics) RecordAPIRetry(method, reason string) {
	m.apiRetries.WithLabelValues(method, reason).Inc()
}

// RecordSignaturesPerCall records the number of signatures fetched in
// one page call.
func (m *Metrics) RecordSignaturesPerCall(backend string, count float64) {
	m.apiSignaturesPerCall.WithLabelValues(backend).Observe(count)
}

// RecordTransactionsFetched records fetched transaction records.
func (m *Metrics) RecordTransactionsFetched(walletAddress string, count int) {
	m.transactionsFetchedTotal.WithLabelValues(walletAddress).Add(float64(count))
}

// RecordSignaturesMissing records signatures that never yielded a
// record after all retry attempts.
func (m *Metrics) RecordSignaturesMissing(walletAddress string, count int) {
	m.signaturesMissingTotal.WithLabelValues(walletAddress).Add(float64(count))
}

// RecordTransactionsSkipped records skipped transaction records.
func (m *Metrics) RecordTransactionsSkipped(walletAddress, reason string, count int) {
	m.transactionsSkippedTotal.WithLabelValues(walletAddress, reason).Add(float64(count))
}

// RecordAddressFailed records an address abandoned due to a fetch
// failure.
func (m *Metrics) RecordAddressFailed(reason string) {
	m.addressesFailedTotal.WithLabelValues(reason).Inc()
}

// RecordDBQuery records a database query with duration.
func (m *Metrics) RecordDBQuery(operation, table string, duration float64, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.dbQueryDuration.WithLabelValues(operation, table).Observe(duration)
	m.dbOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(subject, status string, duration float64) {
	m.natsMessagesPublished.WithLabelValues(subject, status).Inc()
	m.natsPublishDuration.WithLabelValues(subject).Observe(duration)
}
