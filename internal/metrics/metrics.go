// Package metrics exposes Prometheus collectors for the Codecks client and the
// project cache.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements codecks.Recorder and state.Observer.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	refreshTotal    *prometheus.CounterVec
	decks           prometheus.Gauge
	cards           prometheus.Gauge
	lastUpdate      prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codecks_requests_total",
			Help: "Codecks API requests by operation and classified outcome",
		}, []string{"operation", "outcome"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codecks_request_duration_seconds",
			Help:    "Codecks API request latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"operation"}),
		refreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codecks_cache_refresh_total",
			Help: "Cache refresh cycles by outcome",
		}, []string{"outcome"}),
		decks: factory.NewGauge(prometheus.GaugeOpts{
			Name: "codecks_cache_decks",
			Help: "Decks in the cached snapshot",
		}),
		cards: factory.NewGauge(prometheus.GaugeOpts{
			Name: "codecks_cache_cards",
			Help: "Cards in the cached snapshot",
		}),
		lastUpdate: factory.NewGauge(prometheus.GaugeOpts{
			Name: "codecks_cache_last_update_timestamp_seconds",
			Help: "Unix time of the last successful refresh",
		}),
	}
}

// ObserveRequest records one Codecks API call.
func (m *Metrics) ObserveRequest(op, outcome string, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(op, outcome).Inc()
	m.requestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveRefresh records the outcome of a cache cycle.
func (m *Metrics) ObserveRefresh(outcome string) {
	m.refreshTotal.WithLabelValues(outcome).Inc()
}

// ObserveSnapshot records the size and freshness of the snapshot.
func (m *Metrics) ObserveSnapshot(decks, cards int, lastUpdate time.Time) {
	m.decks.Set(float64(decks))
	m.cards.Set(float64(cards))
	if !lastUpdate.IsZero() {
		m.lastUpdate.Set(float64(lastUpdate.Unix()))
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
