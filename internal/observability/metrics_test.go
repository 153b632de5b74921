package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_IndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()
	a.RecordEvaluation("fetch", nil, time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.EvaluationsTotal.WithLabelValues("fetch", "ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.EvaluationsTotal.WithLabelValues("fetch", "ok")))
}

func TestRecordHelpers(t *testing.T) {
	m := NewMetrics()
	m.RecordProviderRequest("history", errors.New("boom"), 10*time.Millisecond)
	m.RecordProviderRequest("history", nil, 10*time.Millisecond)
	m.RecordCacheWrite(nil)
	m.SetBreakerState("sina", 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequestsTotal.WithLabelValues("history", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequestsTotal.WithLabelValues("history", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheWritesTotal.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.BreakerState.WithLabelValues("sina")))
}

func TestHandler_Exposition(t *testing.T) {
	m := NewMetrics()
	m.RecordEvaluation("upload", nil, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "futureslens_evaluation_total"))
}

func TestGetMetrics_Singleton(t *testing.T) {
	assert.Same(t, GetMetrics(), GetMetrics())
}
