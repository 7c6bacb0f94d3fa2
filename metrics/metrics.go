// Package metrics exposes the service's Prometheus counters on a
// dedicated listener, kept separate from the API server so scrapes
// survive API drain.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DocumentsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "docledger", Name: "documents_created_total", Help: "Number of documents created."},
	)
	AccessGrants = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "docledger", Name: "access_grants_total", Help: "Number of access grants committed."},
	)
	BodyUpdates = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "docledger", Name: "body_updates_total", Help: "Number of document body updates committed."},
	)
	RequestsDenied = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docledger", Name: "requests_denied_total", Help: "Number of denied requests by operation."},
		[]string{"operation"},
	)
)

// RegisterCollectors registers the service counters on reg.
func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(DocumentsCreated)
	reg.MustRegister(AccessGrants)
	reg.MustRegister(BodyUpdates)
	reg.MustRegister(RequestsDenied)
}

// MetricsServer serves the Prometheus scrape endpoint.
type MetricsServer struct {
	registry *prometheus.Registry
	srv      *http.Server
}

// New creates a metrics server listening on addr. name is unused in the
// exposition format but kept for log correlation by the caller.
func New(name, addr string) (*MetricsServer, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	RegisterCollectors(registry)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &MetricsServer{
		registry: registry,
		srv: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}, nil
}

// ListenAndServe blocks serving scrapes until Shutdown.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown gracefully stops the metrics listener.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
