// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/rishavSprinto/eigenflow/engine"
	"github.com/rishavSprinto/eigenflow/types"
)

// Collector aggregates engine and HTTP metrics. Construct one per
// process with a dedicated registerer; tests pass a fresh
// prometheus.NewRegistry to avoid duplicate registration.
type Collector struct {
	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	activeRuns   *prometheus.GaugeVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector creates a collector registered against reg.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_runs_total",
				Help:      "Total number of workflow runs by outcome",
			},
			[]string{"workflow", "status"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "workflow_run_duration_seconds",
				Help:      "Workflow run duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"workflow"},
		),
		activeRuns: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "workflow_active_runs",
				Help:      "Number of workflow runs currently executing",
			},
			[]string{"workflow"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		logger: logger.With(zap.String("component", "metrics")),
	}
}

type runStartKey struct{}

// OnRunStart implements engine.RunListener.
func (c *Collector) OnRunStart(ctx context.Context, info engine.RunInfo) context.Context {
	c.activeRuns.WithLabelValues(info.WorkflowID).Inc()
	return context.WithValue(ctx, runStartKey{}, time.Now())
}

// OnRunEnd implements engine.RunListener.
func (c *Collector) OnRunEnd(ctx context.Context, info engine.RunInfo, err error) {
	c.activeRuns.WithLabelValues(info.WorkflowID).Dec()

	status := "success"
	if err != nil {
		status = "error"
		if code := types.GetErrorCode(err); code != "" {
			status = string(code)
		}
	}
	c.runsTotal.WithLabelValues(info.WorkflowID, status).Inc()

	if start, ok := ctx.Value(runStartKey{}).(time.Time); ok {
		c.runDuration.WithLabelValues(info.WorkflowID).Observe(time.Since(start).Seconds())
	}
}

// HTTPMiddleware instruments an http.Handler with request counters and
// latency. The path label uses the registered route pattern, not the
// raw URL, to keep cardinality bounded.
func (c *Collector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		c.httpRequests.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		c.httpDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
