package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
	"github.com/jcaisse/curated-content-portal-sub001/internal/metrics"
)

func TestMetrics_Record(t *testing.T) {
	m := metrics.New()

	m.ScoringCalls.Inc()
	m.RecordItem(metrics.OutcomeQueued)
	m.RecordItem(metrics.OutcomeQueued)
	m.RecordItem(metrics.OutcomeDiscarded)
	m.RecordDecision(domain.ModerationStatusApproved)

	start := time.Now()
	end := start.Add(3 * time.Second)
	m.RecordRun(&domain.CrawlRun{Status: domain.RunStatusCompleted, StartedAt: &start, CompletedAt: &end})
	m.RecordRun(&domain.CrawlRun{Status: domain.RunStatusFailed})

	assert.InDelta(t, 1, testutil.ToFloat64(m.ScoringCalls), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.ItemsDiscovered.WithLabelValues(metrics.OutcomeQueued)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ItemsDiscovered.WithLabelValues(metrics.OutcomeDiscarded)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ModerationDecisions.WithLabelValues("APPROVED")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RunsFinished.WithLabelValues("COMPLETED")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RunsFinished.WithLabelValues("FAILED")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.RunDuration))
}

func TestMetrics_ActiveRuns(t *testing.T) {
	m := metrics.New()

	done := m.RunStarted()
	assert.InDelta(t, 1, testutil.ToFloat64(m.ActiveRuns), 0)
	done()
	assert.InDelta(t, 0, testutil.ToFloat64(m.ActiveRuns), 0)
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.ScoringCalls.Inc()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "curator_scoring_calls_total 1")
}

func TestMetrics_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.New()

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/crawlers/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/crawlers/a", "/crawlers/b", "/nowhere"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	}

	assert.InDelta(t, 2, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/crawlers/:id", "204")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.HTTPInFlight), 0)
}
