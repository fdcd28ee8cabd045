package telemetry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Fetch outcomes recorded by the dashboard controller.
const (
	OutcomeApplied      = "applied"
	OutcomeStale        = "stale"
	OutcomeFailed       = "failed"
	OutcomeUnauthorized = "unauthorized"
)

// Metrics owns a private registry so tests can build as many instances as they like.
type Metrics struct {
	registry      *prometheus.Registry
	fetchTotal    *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	inFlight      prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "adsdash_fetch_total",
				Help: "Metrics page fetches by outcome",
			},
			[]string{"outcome"},
		),
		fetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "adsdash_fetch_duration_seconds",
				Help:    "Metrics page fetch round trip in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		inFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "adsdash_fetch_in_flight",
				Help: "Metrics page fetches currently awaiting a response",
			},
		),
	}
	m.registry.MustRegister(m.fetchTotal, m.fetchDuration, m.inFlight)
	return m
}

func (m *Metrics) FetchStarted() {
	m.inFlight.Inc()
}

func (m *Metrics) FetchFinished(outcome string, elapsed time.Duration) {
	m.inFlight.Dec()
	m.fetchTotal.WithLabelValues(outcome).Inc()
	m.fetchDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done. It returns once the listener is bound.
func (m *Metrics) Serve(ctx context.Context, addr string, log *zap.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	log.Info("metrics server listening", zap.String("addr", ln.Addr().String()))
	return nil
}
