package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/notebridge/internal/foundation/errors"
	"git.home.luguber.info/inful/notebridge/internal/logfields"
)

// Pruner deletes history older than a cutoff. *activity.SQLiteStore
// implements it.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler wraps gocron for periodic maintenance.
type Scheduler struct {
	scheduler gocron.Scheduler
	now       func() time.Time
}

// NewScheduler creates a new scheduler instance.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.DaemonError("failed to create scheduler").WithCause(err).Build()
	}
	return &Scheduler{scheduler: s, now: time.Now}, nil
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

// ScheduleRetention prunes records older than retention every interval,
// starting immediately. Returns the job ID.
func (s *Scheduler) ScheduleRetention(ctx context.Context, interval, retention time.Duration, p Pruner) (string, error) {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { s.prune(ctx, retention, p) }),
		gocron.WithName("activity-retention"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", errors.DaemonError("failed to schedule retention job").WithCause(err).Build()
	}
	return job.ID().String(), nil
}

func (s *Scheduler) prune(ctx context.Context, retention time.Duration, p Pruner) {
	cutoff := s.now().Add(-retention)
	n, err := p.Prune(ctx, cutoff)
	if err != nil {
		slog.Error("Activity retention failed", logfields.Error(err))
		return
	}
	if n > 0 {
		slog.Info("Pruned activity history", slog.Int64("removed", n), slog.Time("cutoff", cutoff))
	}
}
