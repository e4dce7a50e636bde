// Package metrics registers the prometheus collectors shared by feeds, aggregation, the engine and PnL tracking.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QuoteUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "quote_updates_total", Help: "Source quotes accepted by the aggregator"},
		[]string{"source"},
	)
	QuoteAnomaliesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "quote_anomalies_total", Help: "Source quotes rejected as invalid"},
		[]string{"source"},
	)
	FreshSources = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "fresh_sources", Help: "Sources contributing to the latest snapshot"},
	)
	TradeAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trade_attempts_total", Help: "Quote attempts by side and sampled outcome"},
		[]string{"side", "outcome"},
	)
	CyclesSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cycles_skipped_total", Help: "Sides skipped because no reliable price was available"},
		[]string{"side"},
	)
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trades_total", Help: "Executed trades recorded by the PnL tracker"},
		[]string{"side"},
	)
	PnLTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "pnl_total", Help: "Running mark-to-market PnL in quote currency"},
	)
)

func init() {
	prometheus.MustRegister(
		QuoteUpdatesTotal,
		QuoteAnomaliesTotal,
		FreshSources,
		TradeAttemptsTotal,
		CyclesSkippedTotal,
		TradesTotal,
		PnLTotal,
	)
}

// Handler exposes the default registry for mounting on any router.
func Handler() http.Handler { return promhttp.Handler() }
