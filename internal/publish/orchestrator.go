// Package publish runs the publish, update, unpublish and withdraw workflows
// against a content repository.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/notebridge/internal/config"
	"git.home.luguber.info/inful/notebridge/internal/content"
	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
	"git.home.luguber.info/inful/notebridge/internal/frontmatter"
	"git.home.luguber.info/inful/notebridge/internal/intent"
	"git.home.luguber.info/inful/notebridge/internal/logfields"
	"git.home.luguber.info/inful/notebridge/internal/metrics"
)

// Options configures an Orchestrator. Remote, Documents and Tokens are required.
type Options struct {
	Remote    RemoteFactory
	Documents DocumentStore
	Tokens    TokenSource
	// Rules replaces the default frontmatter rules when non-empty.
	Rules    []frontmatter.Rule
	Clock    func() time.Time
	Recorder metrics.Recorder
	Logger   *slog.Logger
}

// Orchestrator sequences remote calls for one document at a time. It holds no
// per-call state, so concurrent calls for different documents are independent.
type Orchestrator struct {
	remote   RemoteFactory
	docs     DocumentStore
	tokens   TokenSource
	rules    []frontmatter.Rule
	now      func() time.Time
	recorder metrics.Recorder
	logger   *slog.Logger
}

// New returns an Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		remote:   opts.Remote,
		docs:     opts.Documents,
		tokens:   opts.Tokens,
		rules:    opts.Rules,
		now:      opts.Clock,
		recorder: opts.Recorder,
		logger:   opts.Logger,
	}
	if len(o.rules) == 0 {
		o.rules = frontmatter.DefaultRules()
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.recorder == nil {
		o.recorder = metrics.NoopRecorder{}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Dispatch runs the workflow for in. None yields NoAction.
func (o *Orchestrator) Dispatch(ctx context.Context, in intent.Intent) Result {
	switch v := in.(type) {
	case intent.SchedulePublish:
		return o.Publish(ctx, v.File, v.Site, false)
	case intent.ImmediatePublish:
		return o.Publish(ctx, v.File, v.Site, true)
	case intent.Update:
		return o.Update(ctx, v.File, v.Site, v.Immediate)
	case intent.Unpublish:
		return o.Unpublish(ctx, v.File, v.Site)
	case intent.Withdraw:
		return o.Withdraw(ctx, v.File, v.Site)
	default:
		return NoAction{}
	}
}

// session is the per-call context shared by the workflow steps once the
// authentication and configuration checks have passed.
type session struct {
	remote RemoteClient
	site   config.SiteConfig
	file   string
	slug   string
	log    *slog.Logger
}

// open performs the checks every workflow starts with. validation, when
// non-nil, runs between the token and repository checks.
func (o *Orchestrator) open(op Operation, file string, site config.SiteConfig, validation func() *Failure) (*session, *Failure) {
	token, err := o.tokens.Token()
	if err != nil {
		return nil, &Failure{Kind: FailureUnauthenticated, Message: "failed to read access token: " + errors.UserMessage(err), Err: err}
	}
	if strings.TrimSpace(token) == "" {
		return nil, &Failure{Kind: FailureUnauthenticated, Message: "not logged in: run `notebridge login` first"}
	}
	if validation != nil {
		if f := validation(); f != nil {
			return nil, f
		}
	}
	owner, repo, err := ParseRepo(site.Repo)
	if err != nil {
		return nil, &Failure{Kind: FailureInvalidConfig, Message: errors.UserMessage(err), Err: err}
	}
	slug := SlugFor(file)
	if slug == "" {
		msg := fmt.Sprintf("cannot derive a slug from %q", filepath.Base(file))
		return nil, &Failure{
			Kind:    FailureValidationFailed,
			Message: msg,
			Validation: &frontmatter.ValidationResult{
				Errors: []frontmatter.FieldIssue{{Field: FieldFilename, Message: msg}},
			},
		}
	}
	return &session{
		remote: o.remote(token, owner, repo),
		site:   site,
		file:   file,
		slug:   slug,
		log: o.logger.With(
			logfields.Operation(string(op)),
			logfields.Site(site.Name),
			logfields.Slug(slug),
		),
	}, nil
}

// FieldFilename tags validation errors about the document's name.
const FieldFilename = "_filename"

// SlugFor derives the remote slug from a document's base filename.
func SlugFor(file string) string {
	base := filepath.Base(file)
	return content.Slugify(strings.TrimSuffix(base, filepath.Ext(base)))
}

// remoteFailure converts an error raised after the opening checks.
func remoteFailure(err error) *Failure {
	kind := FailureRemoteError
	if errors.HasCategory(err, errors.CategoryInternal) {
		kind = FailureUnknown
	}
	return &Failure{Kind: kind, Message: errors.UserMessage(err), Err: err}
}

// guard converts a panic inside a workflow into an Unknown failure.
func guard(fail func(*Failure)) {
	if r := recover(); r != nil {
		fail(&Failure{
			Kind:    FailureUnknown,
			Message: fmt.Sprintf("unexpected error: %v", r),
			Err:     errors.InternalError(fmt.Sprintf("panic: %v", r)).Build(),
		})
	}
}

// finish records metrics and logs the outcome of a workflow.
func (o *Orchestrator) finish(op Operation, start time.Time, f *Failure, attrs ...any) {
	d := o.now().Sub(start)
	if d < 0 {
		d = 0
	}
	o.recorder.ObserveWorkflowDuration(string(op), d)
	outcome := metrics.OutcomeSuccess
	if f != nil {
		outcome = f.Kind.outcome()
	}
	o.recorder.IncWorkflowOutcome(string(op), outcome)

	attrs = append(attrs, logfields.Operation(string(op)), logfields.DurationMS(float64(d.Microseconds())/1000))
	if f == nil {
		o.logger.Info("Workflow completed", attrs...)
		return
	}
	attrs = append(attrs, slog.String("kind", string(f.Kind)), slog.String("message", f.Message))
	if f.Kind == FailureValidationFailed {
		o.logger.Warn("Workflow rejected", attrs...)
		return
	}
	o.logger.Error("Workflow failed", attrs...)
}

// bestEffortDeleteBranch removes a work branch. Hosts may already have
// deleted it after merging, so failures are only logged.
func (s *session) bestEffortDeleteBranch(ctx context.Context, branch string) {
	if err := s.remote.DeleteBranch(ctx, branch); err != nil {
		s.log.Debug("Branch cleanup skipped", logfields.Branch(branch), logfields.Error(err))
	}
}

func readFailure(err error) *Failure {
	if errors.HasCategory(err, errors.CategoryNotFound) {
		return &Failure{Kind: FailureNotFound, Message: errors.UserMessage(err), Err: err}
	}
	return &Failure{Kind: FailureUnknown, Message: errors.UserMessage(err), Err: err}
}
