// Package daemon connects the file watcher to the publish workflows.
package daemon

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/notebridge/internal/activity"
	"git.home.luguber.info/inful/notebridge/internal/intent"
	"git.home.luguber.info/inful/notebridge/internal/logfields"
	"git.home.luguber.info/inful/notebridge/internal/metrics"
	"git.home.luguber.info/inful/notebridge/internal/publish"
)

// Status represents the current state of the daemon.
type Status string

const (
	StatusStopped  Status = "stopped"
	StatusRunning  Status = "running"
	StatusStopping Status = "stopping"
)

// echoTTL bounds how long a move-back waits for its own watcher event.
const echoTTL = 10 * time.Second

// Interpreter maps moves to intents. *intent.Registry implements it.
type Interpreter interface {
	Interpret(m intent.Move) intent.Intent
}

// Dispatcher runs workflows. *publish.Orchestrator implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, in intent.Intent) publish.Result
}

// Mover renames documents. *docstore.Store implements it.
type Mover interface {
	Move(from, to string) error
}

// Options configures a Daemon. Interpreter and Workflows are required.
type Options struct {
	Interpreter Interpreter
	Workflows   Dispatcher
	Documents   Mover
	Sink        activity.Sink
	Recorder    metrics.Recorder
	Logger      *slog.Logger
	// MoveBack returns a document that failed validation to its old path.
	MoveBack bool
	Now      func() time.Time
}

// Daemon handles moves one at a time.
type Daemon struct {
	interpreter Interpreter
	workflows   Dispatcher
	docs        Mover
	sink        activity.Sink
	recorder    metrics.Recorder
	logger      *slog.Logger
	moveBack    bool
	now         func() time.Time

	status atomic.Value // Status

	mu     sync.Mutex
	echoes map[intent.Move]time.Time
}

// New returns a stopped daemon.
func New(opts Options) *Daemon {
	d := &Daemon{
		interpreter: opts.Interpreter,
		workflows:   opts.Workflows,
		docs:        opts.Documents,
		sink:        opts.Sink,
		recorder:    opts.Recorder,
		logger:      opts.Logger,
		moveBack:    opts.MoveBack,
		now:         opts.Now,
		echoes:      map[intent.Move]time.Time{},
	}
	if d.recorder == nil {
		d.recorder = metrics.NoopRecorder{}
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.now == nil {
		d.now = time.Now
	}
	d.status.Store(StatusStopped)
	return d
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	s, _ := d.status.Load().(Status)
	return s
}

// Run handles moves until the channel closes or ctx is done.
func (d *Daemon) Run(ctx context.Context, moves <-chan intent.Move) error {
	d.status.Store(StatusRunning)
	defer d.status.Store(StatusStopped)
	d.logger.Info("Daemon started")

	for {
		select {
		case <-ctx.Done():
			d.status.Store(StatusStopping)
			d.logger.Info("Daemon stopping")
			return nil
		case m, ok := <-moves:
			if !ok {
				return nil
			}
			d.HandleMove(ctx, m)
		}
	}
}

// HandleMove interprets one move and runs the resulting workflow.
func (d *Daemon) HandleMove(ctx context.Context, m intent.Move) publish.Result {
	if d.consumeEcho(m) {
		d.logger.Debug("Ignoring move-back echo", logfields.OldPath(m.OldPath), logfields.Path(m.NewPath))
		return publish.NoAction{}
	}

	in := d.interpreter.Interpret(m)
	d.recorder.IncMoveIntent(string(in.Kind()))
	target, ok := intent.TargetOf(in)
	if !ok {
		return publish.NoAction{}
	}
	opID := uuid.NewString()
	d.logger.Info("Move interpreted",
		logfields.OperationID(opID),
		slog.String("intent", string(in.Kind())),
		logfields.Site(target.Site.Name),
		logfields.OldPath(m.OldPath),
		logfields.Path(m.NewPath))

	res := d.workflows.Dispatch(ctx, in)
	d.record(ctx, res, target, opID)

	if f := res.Failed(); f != nil && f.Kind == publish.FailureValidationFailed && d.moveBack {
		d.revert(m)
	}
	return res
}

// record stores the outcome under the operation ID used in the move's logs.
func (d *Daemon) record(ctx context.Context, res publish.Result, target intent.Target, opID string) {
	if d.sink == nil {
		return
	}
	rec, ok := activity.FromResult(res, target.Site.Name, target.File, d.now())
	if !ok {
		return
	}
	rec.ID = opID
	if err := d.sink.Record(ctx, rec); err != nil {
		d.logger.Warn("Failed to record activity", logfields.Error(err))
	}
}

// revert moves the document back and arms echo suppression for the watcher
// event the move-back itself causes.
func (d *Daemon) revert(m intent.Move) {
	if d.docs == nil {
		return
	}
	echo := intent.Move{OldPath: m.NewPath, NewPath: m.OldPath}
	d.mu.Lock()
	d.echoes[echo] = d.now().Add(echoTTL)
	d.mu.Unlock()

	if err := d.docs.Move(m.NewPath, m.OldPath); err != nil {
		d.mu.Lock()
		delete(d.echoes, echo)
		d.mu.Unlock()
		d.logger.Warn("Failed to move document back", logfields.Path(m.NewPath), logfields.Error(err))
		return
	}
	d.logger.Info("Moved document back after validation failure", logfields.Path(m.OldPath))
}

func (d *Daemon) consumeEcho(m intent.Move) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	for k, until := range d.echoes {
		if now.After(until) {
			delete(d.echoes, k)
		}
	}
	key := intent.Move{OldPath: m.OldPath, NewPath: m.NewPath}
	if _, ok := d.echoes[key]; ok {
		delete(d.echoes, key)
		return true
	}
	return false
}
