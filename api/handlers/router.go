package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rishavSprinto/eigenflow/engine"
	"github.com/rishavSprinto/eigenflow/internal/metrics"
	"github.com/rishavSprinto/eigenflow/registry"
)

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	Workflows *registry.Registry[*engine.CompiledWorkflow]
	Logger    *zap.Logger
	Collector *metrics.Collector
	Gatherer  prometheus.Gatherer
}

// NewRouter assembles the service mux. The metrics middleware wraps
// every route when a collector is configured.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	wh := NewWorkflowHandler(deps.Workflows, deps.Logger)
	mux.HandleFunc("GET /v1/workflows", wh.List)
	mux.HandleFunc("POST /v1/workflows/{id}/run", wh.Run)
	mux.HandleFunc("GET /healthz", Health)

	if deps.Gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	if deps.Collector != nil {
		return deps.Collector.HTTPMiddleware(mux)
	}
	return mux
}
