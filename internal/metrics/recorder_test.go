package metrics

import (
	"sync"
	"time"
)

// testRecorder counts calls; it is used to check that NoopRecorder and
// PrometheusRecorder stay interchangeable.
type testRecorder struct {
	mu        sync.Mutex
	durations map[string]int
	outcomes  map[string]map[OutcomeLabel]int
	retries   int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{durations: map[string]int{}, outcomes: map[string]map[OutcomeLabel]int{}}
}

func (t *testRecorder) ObserveWorkflowDuration(op string, _ time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.durations[op]++
}

func (t *testRecorder) IncWorkflowOutcome(op string, outcome OutcomeLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.outcomes[op]
	if !ok {
		m = map[OutcomeLabel]int{}
		t.outcomes[op] = m
	}
	m[outcome]++
}

func (t *testRecorder) IncMoveIntent(string) {}

func (t *testRecorder) IncRemoteRetry(string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.retries++
}

func (t *testRecorder) IncRemoteRetryExhausted(string) {}
func (t *testRecorder) IncAssetSkipped()               {}

var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
	_ Recorder = (*testRecorder)(nil)
)
