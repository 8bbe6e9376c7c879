package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsServiceRecordsProxyCommits(t *testing.T) {
	m := NewMetricsService()

	m.RecordProxyCommit(CommitOutcomeCommitted, 2)
	m.RecordProxyCommit(CommitOutcomeUnavailable, 0)
	m.RecordProxyCommit(CommitOutcomeCommitted, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.proxyCommits.WithLabelValues(CommitOutcomeCommitted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.proxyCommits.WithLabelValues(CommitOutcomeUnavailable)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.proxyRows))
}

func TestMetricsServiceCacheRatio(t *testing.T) {
	m := NewMetricsService()
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)

	assert.Equal(t, 0.75, testutil.ToFloat64(m.cacheHitRatio))
}

func TestMetricsServiceHandler(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/proxies/available", http.StatusOK, 20*time.Millisecond)
	m.ObserveCandidates(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
	assert.Contains(t, rec.Body.String(), "proxy_candidates_bucket")

	var nilMetrics *MetricsService
	nilMetrics.RecordProxyCommit(CommitOutcomeFailed, 0)
	rec = httptest.NewRecorder()
	nilMetrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
