package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	workflowDuration *prom.HistogramVec
	workflowOutcome  *prom.CounterVec
	moveIntents      *prom.CounterVec
	retries          *prom.CounterVec
	retriesExhausted *prom.CounterVec
	assetsSkipped    prom.Counter
}

// NewPrometheusRecorder constructs and registers the notebridge metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		workflowDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "notebridge",
			Name:      "workflow_duration_seconds",
			Help:      "Duration of publish, update, unpublish and withdraw workflows",
			Buckets:   prom.DefBuckets,
		}, []string{"operation"}),
		workflowOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "notebridge",
			Name:      "workflow_outcomes_total",
			Help:      "Workflow outcomes by operation and failure kind",
		}, []string{"operation", "outcome"}),
		moveIntents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "notebridge",
			Name:      "move_intents_total",
			Help:      "Interpreted file moves by resulting intent",
		}, []string{"intent"}),
		retries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "notebridge",
			Name:      "remote_retries_total",
			Help:      "Remote API calls retried after a transient failure",
		}, []string{"method"}),
		retriesExhausted: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "notebridge",
			Name:      "remote_retry_exhausted_total",
			Help:      "Remote API calls that failed after all retries",
		}, []string{"method"}),
		assetsSkipped: prom.NewCounter(prom.CounterOpts{
			Namespace: "notebridge",
			Name:      "assets_skipped_total",
			Help:      "Embedded assets that could not be found or uploaded",
		}),
	}
	reg.MustRegister(pr.workflowDuration, pr.workflowOutcome, pr.moveIntents, pr.retries, pr.retriesExhausted, pr.assetsSkipped)
	return pr
}

func (p *PrometheusRecorder) ObserveWorkflowDuration(operation string, d time.Duration) {
	if p == nil {
		return
	}
	p.workflowDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncWorkflowOutcome(operation string, outcome OutcomeLabel) {
	if p == nil {
		return
	}
	p.workflowOutcome.WithLabelValues(operation, string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncMoveIntent(intent string) {
	if p == nil {
		return
	}
	p.moveIntents.WithLabelValues(intent).Inc()
}

func (p *PrometheusRecorder) IncRemoteRetry(method string) {
	if p == nil {
		return
	}
	p.retries.WithLabelValues(method).Inc()
}

func (p *PrometheusRecorder) IncRemoteRetryExhausted(method string) {
	if p == nil {
		return
	}
	p.retriesExhausted.WithLabelValues(method).Inc()
}

func (p *PrometheusRecorder) IncAssetSkipped() {
	if p == nil {
		return
	}
	p.assetsSkipped.Inc()
}
