package metrics

import "time"

// OutcomeLabel enumerates workflow outcomes for counters.
type OutcomeLabel string

const (
	OutcomeSuccess          OutcomeLabel = "success"
	OutcomeUnauthenticated  OutcomeLabel = "unauthenticated"
	OutcomeInvalidConfig    OutcomeLabel = "invalid_config"
	OutcomeValidationFailed OutcomeLabel = "validation_failed"
	OutcomeNotFound         OutcomeLabel = "not_found"
	OutcomeRemoteError      OutcomeLabel = "remote_error"
	OutcomeUnknown          OutcomeLabel = "unknown"
)

// Recorder defines observability hooks for publish workflows and remote calls.
// Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveWorkflowDuration(operation string, d time.Duration)
	IncWorkflowOutcome(operation string, outcome OutcomeLabel)
	IncMoveIntent(intent string)
	IncRemoteRetry(method string)
	IncRemoteRetryExhausted(method string)
	IncAssetSkipped()
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveWorkflowDuration(string, time.Duration) {}
func (NoopRecorder) IncWorkflowOutcome(string, OutcomeLabel)       {}
func (NoopRecorder) IncMoveIntent(string)                          {}
func (NoopRecorder) IncRemoteRetry(string)                         {}
func (NoopRecorder) IncRemoteRetryExhausted(string)                {}
func (NoopRecorder) IncAssetSkipped()                              {}
