package observability

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valuation-lab/internal/domain"
)

func TestMetrics_RunLifecycle(t *testing.T) {
	m := NewMetrics("", nil)

	m.RunStarted(domain.FormulaDCF)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveRuns))

	m.RunFinished(domain.FormulaDCF, domain.StatusCompleted, 250*time.Millisecond, 990, 10)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveRuns))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsStarted.WithLabelValues("DCF")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsFinished.WithLabelValues("DCF", "completed")))
	assert.Equal(t, 990.0, testutil.ToFloat64(m.IterationsEvaluated.WithLabelValues("DCF")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.EvaluationFailures.WithLabelValues("DCF")))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	// Two instances must not collide on registration
	a := NewMetrics("", nil)
	b := NewMetrics("", nil)

	a.RecordCacheLookup(true)
	b.RecordCacheLookup(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.CacheLookups.WithLabelValues("miss")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics("test_ns", nil)
	m.RecordReport("markdown")
	m.RecordDBQuery("postgres", "insert_run", 5*time.Millisecond, assert.AnError)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `test_ns_api_reports_generated_total{format="markdown"} 1`))
	assert.True(t, strings.Contains(body, `test_ns_database_query_errors_total{database="postgres",operation="insert_run"} 1`))
}
