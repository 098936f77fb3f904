// Package metrics holds the Prometheus collectors the service updates while
// handling signals. They are registered in init and served at /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Signals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalbot_signals_total",
			Help: "Signals handled, by action, sentiment and result",
		},
		[]string{"action", "sentiment", "result"},
	)

	Orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalbot_orders_total",
			Help: "Orders submitted to the exchange",
		},
		[]string{"backend", "type", "side"},
	)

	Outcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalbot_order_outcomes_total",
			Help: "Classified limit order outcomes",
		},
		[]string{"outcome"},
	)

	Fallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "signalbot_fallback_orders_total",
			Help: "Market orders sent after an unfilled or partially filled close",
		},
	)

	ExchangeCalls = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signalbot_exchange_call_duration_seconds",
			Help:    "Latency of exchange API calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "op", "result"},
	)

	// SnapshotAge is refreshed each time the account snapshot is replaced.
	SnapshotAge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "signalbot_account_snapshot_timestamp_seconds",
			Help: "Unix time of the last successful account refresh",
		},
	)
)

func init() {
	prometheus.MustRegister(Signals, Orders, Outcomes, Fallbacks, ExchangeCalls, SnapshotAge)
}

func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
