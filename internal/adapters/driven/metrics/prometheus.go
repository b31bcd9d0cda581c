// Package metrics implements driven.Metrics with Prometheus counters.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/tap-zendesk-sell/internal/core/domain"
	"github.com/custodia-labs/tap-zendesk-sell/internal/core/ports/driven"
	"github.com/custodia-labs/tap-zendesk-sell/internal/logger"
)

// Ensure Prometheus implements the interface.
var _ driven.Metrics = (*Prometheus)(nil)

const namespace = "tap_zendesk_sell"

// Prometheus records sync progress on a registry.
type Prometheus struct {
	registry *prometheus.Registry

	pagesFetched   *prometheus.CounterVec
	recordsFetched *prometheus.CounterVec
	recordsEmitted *prometheus.CounterVec
	fetchRetries   *prometheus.CounterVec
	streamRuns     *prometheus.CounterVec
	streamDuration *prometheus.HistogramVec
}

// NewPrometheus registers the tap's collectors on a fresh registry.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Prometheus{
		registry: reg,
		pagesFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "pages_fetched_total",
			Help:      "Pages fetched by stream",
		}, []string{"stream"}),
		recordsFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "records_fetched_total",
			Help:      "Records fetched by stream",
		}, []string{"stream"}),
		recordsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "records_emitted_total",
			Help:      "Records written to the output by stream",
		}, []string{"stream"}),
		fetchRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "fetch_retries_total",
			Help:      "Fetches retried after a transient failure by stream",
		}, []string{"stream"}),
		streamRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "runs_total",
			Help:      "Finished stream runs by stream, status and error type",
		}, []string{"stream", "status", "errorType"}),
		streamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "duration_seconds",
			Help:      "Stream run duration",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"stream"}),
	}
}

// Registry returns the registry holding the tap's collectors.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// PageFetched counts one page and its records.
func (p *Prometheus) PageFetched(stream string, records int) {
	p.pagesFetched.WithLabelValues(stream).Inc()
	p.recordsFetched.WithLabelValues(stream).Add(float64(records))
}

// RecordsEmitted counts records handed to the output.
func (p *Prometheus) RecordsEmitted(stream string, n int) {
	p.recordsEmitted.WithLabelValues(stream).Add(float64(n))
}

// FetchRetried counts a retried fetch.
func (p *Prometheus) FetchRetried(stream string) {
	p.fetchRetries.WithLabelValues(stream).Inc()
}

// StreamFinished records the outcome and duration of a stream run.
func (p *Prometheus) StreamFinished(stream string, err error, elapsed time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	p.streamRuns.WithLabelValues(stream, status, ErrorType(err)).Inc()
	p.streamDuration.WithLabelValues(stream).Observe(elapsed.Seconds())
}

// ErrorType classifies err for the errorType label.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, domain.ErrAuthInvalid), errors.Is(err, domain.ErrAuthRequired):
		return "auth"
	case errors.Is(err, domain.ErrInvalidDevice):
		return "device"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limit"
	case errors.Is(err, domain.ErrTransient):
		return "transient"
	case errors.Is(err, domain.ErrProtocol):
		return "protocol"
	case errors.Is(err, domain.ErrSchemaMismatch):
		return "schema"
	default:
		return "other"
	}
}

// Server exposes a registry on /metrics.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Serve starts an HTTP server for reg on addr in the background.
func Serve(addr string, reg *prometheus.Registry) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	s := &Server{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server: %v", err)
		}
	}()
	logger.Info("serving metrics on http://%s/metrics", ln.Addr())
	return s, nil
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
