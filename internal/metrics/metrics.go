package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus collectors of a registry node.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	// Entry point calls by method and outcome (ok or error kind)
	EntryPointCalls *prometheus.CounterVec

	// Entry point latency by method, including commit or rollback
	EntryPointLatency *prometheus.HistogramVec

	// Submitted transactions by admission status
	Submissions *prometheus.CounterVec

	// Pending transactions
	MempoolSize prometheus.Gauge

	// Height of the last sealed block
	BlockHeight prometheus.Gauge

	// Transactions per sealed block
	BlockTxs prometheus.Histogram

	// Event deliveries by sink and outcome
	EventDeliveries *prometheus.CounterVec
}

// New creates a Metrics instance registered with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EntryPointCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nft_registry_entrypoint_calls_total",
			Help: "Total entry point calls by method and outcome",
		}, []string{"method", "outcome"}),

		EntryPointLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nft_registry_entrypoint_duration_seconds",
			Help:    "Duration of entry point calls including commit or rollback",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}, []string{"method"}),

		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nft_registry_tx_submissions_total",
			Help: "Total submitted transactions by admission status",
		}, []string{"status"}),

		MempoolSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "nft_registry_mempool_size",
			Help: "Number of transactions waiting to be sealed",
		}),

		BlockHeight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "nft_registry_block_height",
			Help: "Height of the last sealed block",
		}),

		BlockTxs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "nft_registry_block_transactions",
			Help:    "Number of transactions per sealed block",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		}),

		EventDeliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "nft_registry_event_deliveries_total",
			Help: "Total event deliveries by sink and outcome",
		}, []string{"sink", "outcome"}),
	}
}

// ObserveCall records the outcome and latency of an entry point call
func (m *Metrics) ObserveCall(method, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.EntryPointCalls.WithLabelValues(method, outcome).Inc()
	m.EntryPointLatency.WithLabelValues(method).Observe(d.Seconds())
}

// IncrementSubmission records a transaction admission decision
func (m *Metrics) IncrementSubmission(status string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(status).Inc()
}

// SetMempoolSize records the number of pending transactions
func (m *Metrics) SetMempoolSize(n int) {
	if m == nil {
		return
	}
	m.MempoolSize.Set(float64(n))
}

// ObserveBlock records a sealed block
func (m *Metrics) ObserveBlock(height uint64, txs int) {
	if m == nil {
		return
	}
	m.BlockHeight.Set(float64(height))
	m.BlockTxs.Observe(float64(txs))
}

// IncrementDelivery records an event delivery attempt outcome
func (m *Metrics) IncrementDelivery(sink, outcome string) {
	if m == nil {
		return
	}
	m.EventDeliveries.WithLabelValues(sink, outcome).Inc()
}
