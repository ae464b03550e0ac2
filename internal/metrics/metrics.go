// Package metrics exposes the matching engine's Prometheus surface.
// Grounded on the metrics packages retrieved alongside fenrir (one counter
// struct registered at startup, one promhttp-backed HTTP server), scoped
// down to the handful of counters and the one histogram a matching engine
// actually needs.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"fenrir/internal/common"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Recorder holds every metric the engine and transport emit.
type Recorder struct {
	TradesTotal    prometheus.Counter
	TradeQuantity  prometheus.Histogram
	OrdersPlaced   prometheus.Counter
	OrdersCanceled prometheus.Counter
	OrdersModified prometheus.Counter
	CommandErrors  *prometheus.CounterVec
}

// NewRecorder builds and registers a fresh metric set against the default
// registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		TradesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fenrir",
			Name:      "trades_total",
			Help:      "Total trades executed across all books.",
		}),
		TradeQuantity: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fenrir",
			Name:      "trade_quantity",
			Help:      "Distribution of executed trade quantities.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 16),
		}),
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fenrir",
			Name:      "orders_placed_total",
			Help:      "Total submit commands accepted.",
		}),
		OrdersCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fenrir",
			Name:      "orders_canceled_total",
			Help:      "Total cancel commands accepted.",
		}),
		OrdersModified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fenrir",
			Name:      "orders_modified_total",
			Help:      "Total modify commands accepted.",
		}),
		CommandErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fenrir",
			Name:      "command_errors_total",
			Help:      "Commands rejected by the engine, by error kind.",
		}, []string{"kind"}),
	}

	collectors := []prometheus.Collector{
		r.TradesTotal,
		r.TradeQuantity,
		r.OrdersPlaced,
		r.OrdersCanceled,
		r.OrdersModified,
		r.CommandErrors,
	}
	for _, c := range collectors {
		if err := prometheus.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				log.Error().Err(err).Msg("failed to register metric")
			}
		}
	}

	return r
}

// Serve runs the /metrics HTTP endpoint until ctx is canceled.
func (r *Recorder) Serve(ctx context.Context, address string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: address, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("address", address).Msg("metrics server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// CommandError bumps the error counter for one engine error sentinel.
func (r *Recorder) CommandError(err error) {
	kind := "unknown"
	switch {
	case errors.Is(err, common.ErrInvalidQuantity):
		kind = "invalid_quantity"
	case errors.Is(err, common.ErrInvalidOrderType):
		kind = "invalid_order_type"
	case errors.Is(err, common.ErrOrderNotFound):
		kind = "order_not_found"
	}
	r.CommandErrors.WithLabelValues(kind).Inc()
}
