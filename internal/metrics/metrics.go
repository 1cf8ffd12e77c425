// Package metrics exposes Prometheus metrics for the analysis pipeline.
package metrics

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for an analysis run.
type Metrics struct {
	SymbolsProcessed prometheus.Counter
	SymbolFailures   prometheus.Counter
	BarsFetched      prometheus.Counter
	SignalsEmitted   *prometheus.CounterVec // labels: action
	TradesSimulated  prometheus.Counter
	FetchDur         prometheus.Histogram
	PipelineDur      prometheus.Histogram

	registry *prometheus.Registry
}

// New registers and returns all pipeline metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		SymbolsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signals_symbols_processed_total",
			Help: "Symbols whose pipeline completed successfully",
		}),
		SymbolFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signals_symbol_failures_total",
			Help: "Symbols whose pipeline failed",
		}),
		BarsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signals_bars_fetched_total",
			Help: "Daily bars retrieved from the data provider or cache",
		}),
		SignalsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signals_emitted_total",
			Help: "Signals emitted by the rule, by action",
		}, []string{"action"}),
		TradesSimulated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signals_trades_simulated_total",
			Help: "Closed trades produced by the backtest engine",
		}),
		FetchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signals_fetch_duration_seconds",
			Help:    "Per-symbol price history fetch latency",
			Buckets: prometheus.DefBuckets,
		}),
		PipelineDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signals_pipeline_duration_seconds",
			Help:    "Per-symbol indicator+signal+backtest latency",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		registry: reg,
	}

	reg.MustRegister(
		m.SymbolsProcessed,
		m.SymbolFailures,
		m.BarsFetched,
		m.SignalsEmitted,
		m.TradesSimulated,
		m.FetchDur,
		m.PipelineDur,
	)
	return m
}

// Serve starts the /metrics HTTP endpoint and blocks until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[metrics] serving on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("[metrics] server error: %v", err)
	}
}
