package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rishavSprinto/eigenflow/engine"
	"github.com/rishavSprinto/eigenflow/types"
)

func newTestCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewCollector("test", reg, zap.NewNop()), reg
}

func TestCollector_RunLifecycle(t *testing.T) {
	c, _ := newTestCollector(t)
	info := engine.RunInfo{WorkflowID: "wf", RunID: "r1"}

	ctx := c.OnRunStart(context.Background(), info)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.activeRuns.WithLabelValues("wf")))

	c.OnRunEnd(ctx, info, nil)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.activeRuns.WithLabelValues("wf")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runsTotal.WithLabelValues("wf", "success")))
}

func TestCollector_RunOutcomeLabels(t *testing.T) {
	c, _ := newTestCollector(t)
	info := engine.RunInfo{WorkflowID: "wf"}

	ctx := c.OnRunStart(context.Background(), info)
	c.OnRunEnd(ctx, info, types.NewError(types.ErrStepLimitExceeded, "limit"))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runsTotal.WithLabelValues("wf", "STEP_LIMIT_EXCEEDED")))

	ctx = c.OnRunStart(context.Background(), info)
	c.OnRunEnd(ctx, info, context.Canceled)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runsTotal.WithLabelValues("wf", "error")))
}

func TestCollector_HTTPMiddleware(t *testing.T) {
	c, reg := newTestCollector(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/things/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := c.HTTPMiddleware(mux)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/things/42", nil))
	require.Equal(t, http.StatusTeapot, rec.Code)

	// The path label is the route pattern, not the raw URL.
	assert.Equal(t, 1.0, testutil.ToFloat64(
		c.httpRequests.WithLabelValues("GET", "GET /v1/things/{id}", "418")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "test_http_requests_total")
	assert.Contains(t, names, "test_http_request_duration_seconds")
}

func TestCollector_UnmatchedRoute(t *testing.T) {
	c, _ := newTestCollector(t)
	handler := c.HTTPMiddleware(http.NewServeMux())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(
		c.httpRequests.WithLabelValues("GET", "unmatched", "404")))
}
