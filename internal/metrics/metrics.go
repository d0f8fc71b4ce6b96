package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Submission results
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics contains the wallet's Prometheus collectors
type Metrics struct {
	Signatures   *prometheus.CounterVec
	Submissions  *prometheus.CounterVec
	SignDuration prometheus.Histogram
	RPCRequests  *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewMetrics registers collectors on a fresh registry
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.NewRegistry())
}

// NewMetricsWithRegistry registers collectors on registry
func NewMetricsWithRegistry(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Signatures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_signatures_total",
			Help: "Transaction signatures produced, by scheme",
		}, []string{"scheme"}),
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_submissions_total",
			Help: "Signed transactions handed to the network, by result",
		}, []string{"result"}),
		SignDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "wallet_sign_duration_seconds",
			Help:    "Time spent framing, hashing and signing a transaction",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
		RPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_rpc_requests_total",
			Help: "JSON-RPC requests sent to the fullnode, by method and result",
		}, []string{"method", "result"}),
		gatherer: registry,
	}
}

// ObserveSignature records one signature and how long it took. Nil-safe.
func (m *Metrics) ObserveSignature(scheme string, d time.Duration) {
	if m == nil {
		return
	}
	m.Signatures.WithLabelValues(scheme).Inc()
	m.SignDuration.Observe(d.Seconds())
}

// ObserveSubmission records a submit outcome. Nil-safe.
func (m *Metrics) ObserveSubmission(err error) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(resultLabel(err)).Inc()
}

// ObserveRPC records a fullnode request outcome. Nil-safe.
func (m *Metrics) ObserveRPC(method string, err error) {
	if m == nil {
		return
	}
	m.RPCRequests.WithLabelValues(method, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}

// Handler serves this registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on port until ctx is cancelled
func (m *Metrics) Serve(ctx context.Context, port int, logger *logrus.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Metrics server shutdown failed")
		}
	}()

	logger.WithField("addr", server.Addr).Info("Prometheus metrics available at /metrics")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}
