// Package metrics exposes the trader's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles every series the trader records.
type Collector struct {
	FillsTotal      prometheus.Counter
	EventsDropped   prometheus.Counter
	DecodeSkips     prometheus.Counter
	FeedDisconnects prometheus.Counter
	Signals         *prometheus.CounterVec
	Retrains        prometheus.Counter
	TrainErrors     prometheus.Counter
	OrdersExecuted  prometheus.Counter
	ExecErrors      prometheus.Counter
	DatasetSize     prometheus.Gauge
	PnL             prometheus.Gauge
	LastPrice       prometheus.Gauge
	Spread          prometheus.Gauge
}

// NewCollector registers the trader series on the default registry.
func NewCollector() *Collector {
	return &Collector{
		FillsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trader_fills_total",
			Help: "Fills decoded from the event queue",
		}),
		EventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trader_events_dropped_total",
			Help: "Trade events dropped because the buffer was full",
		}),
		DecodeSkips: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trader_decode_skips_total",
			Help: "Account updates skipped as undecodable",
		}),
		FeedDisconnects: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trader_feed_disconnects_total",
			Help: "Feed transport failures",
		}),
		Signals: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trader_signals_total",
			Help: "Signals generated by side",
		}, []string{"side"}),
		Retrains: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trader_retrains_total",
			Help: "Successful model retrains",
		}),
		TrainErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trader_train_errors_total",
			Help: "Retrain attempts that kept the previous model",
		}),
		OrdersExecuted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trader_orders_executed_total",
			Help: "Confirmed swap executions",
		}),
		ExecErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trader_exec_errors_total",
			Help: "Failed quote/swap/confirmation attempts",
		}),
		DatasetSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "trader_dataset_size",
			Help: "Labeled observations accumulated this run",
		}),
		PnL: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "trader_realized_pnl",
			Help: "Running realized P&L",
		}),
		LastPrice: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "trader_last_price",
			Help: "Price of the most recent fill",
		}),
		Spread: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "trader_spread",
			Help: "Best ask minus best bid at the last fill",
		}),
	}
}

// Serve starts the /metrics and /healthz endpoints. Empty addr disables it.
func Serve(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
