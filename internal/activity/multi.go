package activity

import (
	"context"
	stderrors "errors"
	"log/slog"

	"git.home.luguber.info/inful/notebridge/internal/logfields"
)

// MultiSink records to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Record(ctx context.Context, rec Record) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// LogSink writes records to a logger.
type LogSink struct {
	Logger *slog.Logger
}

func (l LogSink) Record(_ context.Context, rec Record) error {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Activity recorded",
		slog.String("id", rec.ID),
		logfields.Operation(rec.Operation),
		logfields.Site(rec.Site),
		logfields.Slug(rec.Slug),
		slog.Bool("success", rec.Success))
	return nil
}
