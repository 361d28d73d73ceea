package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveWorkflowDuration("publish", 150*time.Millisecond)
	pr.IncWorkflowOutcome("publish", OutcomeSuccess)
	pr.IncMoveIntent("schedule-publish")
	pr.IncRemoteRetry("PUT")
	pr.IncRemoteRetryExhausted("PUT")
	pr.IncAssetSkipped()

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 6)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.IncWorkflowOutcome("publish", OutcomeRemoteError)
		pr.IncRemoteRetry("GET")
	})
}

func TestHTTPHandlerServesRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncWorkflowOutcome("unpublish", OutcomeNotFound)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `notebridge_workflow_outcomes_total{operation="unpublish",outcome="not_found"} 1`)
}

func TestTestRecorderCounts(t *testing.T) {
	tr := newTestRecorder()
	var r Recorder = tr
	r.IncWorkflowOutcome("publish", OutcomeSuccess)
	r.IncWorkflowOutcome("publish", OutcomeSuccess)
	r.ObserveWorkflowDuration("publish", time.Second)
	r.IncRemoteRetry("GET")

	assert.Equal(t, 2, tr.outcomes["publish"][OutcomeSuccess])
	assert.Equal(t, 1, tr.durations["publish"])
	assert.Equal(t, 1, tr.retries)
}
