package publish

import (
	"git.home.luguber.info/inful/notebridge/internal/content"
	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
	"git.home.luguber.info/inful/notebridge/internal/frontmatter"
	"git.home.luguber.info/inful/notebridge/internal/metrics"
)

// Operation names a workflow.
type Operation string

const (
	OpPublish   Operation = "publish"
	OpUpdate    Operation = "update"
	OpUnpublish Operation = "unpublish"
	OpWithdraw  Operation = "withdraw"
	OpNone      Operation = "none"
)

// FailureKind classifies why a workflow failed.
type FailureKind string

const (
	FailureUnauthenticated  FailureKind = "unauthenticated"
	FailureInvalidConfig    FailureKind = "invalid_config"
	FailureValidationFailed FailureKind = "validation_failed"
	FailureNotFound         FailureKind = "not_found"
	FailureRemoteError      FailureKind = "remote_error"
	FailureUnknown          FailureKind = "unknown"
)

// Category maps the kind onto the error taxonomy used for exit codes.
func (k FailureKind) Category() errors.ErrorCategory {
	switch k {
	case FailureUnauthenticated:
		return errors.CategoryAuth
	case FailureInvalidConfig:
		return errors.CategoryConfig
	case FailureValidationFailed:
		return errors.CategoryValidation
	case FailureNotFound:
		return errors.CategoryNotFound
	case FailureRemoteError:
		return errors.CategoryForge
	default:
		return errors.CategoryInternal
	}
}

func (k FailureKind) outcome() metrics.OutcomeLabel {
	return metrics.OutcomeLabel(k)
}

// Failure describes a failed workflow. Validation is set only for
// FailureValidationFailed.
type Failure struct {
	Kind       FailureKind
	Message    string
	Validation *frontmatter.ValidationResult
	Err        error
}

// AsError converts the failure into a classified error.
func (f *Failure) AsError() error {
	if f == nil {
		return nil
	}
	b := errors.NewError(f.Kind.Category(), f.Message)
	if f.Err != nil {
		b = b.WithCause(f.Err)
	}
	return b.Build()
}

// Result is the outcome of one workflow: *PublishResult, *UnpublishResult,
// *WithdrawResult or NoAction.
type Result interface {
	Operation() Operation
	Succeeded() bool
	// Failed returns nil on success.
	Failed() *Failure
	isResult()
}

// PublishResult is the outcome of Publish and Update.
type PublishResult struct {
	Op       Operation
	Slug     string
	Branch   string
	Path     string // repository path of the post
	PRNumber int
	PRURL    string
	Merged   bool
	LiveURL  string
	Assets   []content.AssetReference
	// SkippedAssets lists attachment names that were missing or failed to upload.
	SkippedAssets []string
	Fingerprint   string
	Failure       *Failure
}

// UnpublishResult is the outcome of Unpublish.
type UnpublishResult struct {
	Slug         string
	Branch       string
	PRNumber     int
	PRURL        string
	DeletedFiles []string
	Failure      *Failure
}

// WithdrawResult is the outcome of Withdraw.
type WithdrawResult struct {
	Slug     string
	Branch   string
	PRNumber int
	PRURL    string
	Failure  *Failure
}

// NoAction is returned for moves that need no remote work.
type NoAction struct{}

func (r *PublishResult) Operation() Operation { return r.Op }
func (r *PublishResult) Succeeded() bool      { return r.Failure == nil }
func (r *PublishResult) Failed() *Failure     { return r.Failure }
func (*PublishResult) isResult()              {}

func (*UnpublishResult) Operation() Operation { return OpUnpublish }
func (r *UnpublishResult) Succeeded() bool    { return r.Failure == nil }
func (r *UnpublishResult) Failed() *Failure   { return r.Failure }
func (*UnpublishResult) isResult()            {}

func (*WithdrawResult) Operation() Operation { return OpWithdraw }
func (r *WithdrawResult) Succeeded() bool    { return r.Failure == nil }
func (r *WithdrawResult) Failed() *Failure   { return r.Failure }
func (*WithdrawResult) isResult()            {}

func (NoAction) Operation() Operation { return OpNone }
func (NoAction) Succeeded() bool      { return true }
func (NoAction) Failed() *Failure     { return nil }
func (NoAction) isResult()            {}
