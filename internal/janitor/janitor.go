package janitor

import (
	"context"
	"log/slog"
	"time"

	"image-comparator/internal/storage"

	"github.com/robfig/cron/v3"
	"golang.org/x/xerrors"
)

// Janitor removes stored comparisons older than the retention window on a
// cron schedule.
type Janitor struct {
	pruner    storage.Pruner
	retention time.Duration
	schedule  cron.Schedule
	now       func() time.Time
}

func New(pruner storage.Pruner, schedule string, retention time.Duration) (*Janitor, error) {
	if retention <= 0 {
		return nil, xerrors.Errorf("retention must be positive: %s", retention)
	}

	s, err := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(schedule)
	if err != nil {
		return nil, xerrors.Errorf("failed to parse schedule %q: %w", schedule, err)
	}

	return &Janitor{
		pruner:    pruner,
		retention: retention,
		schedule:  s,
		now:       time.Now,
	}, nil
}

// Run prunes at every scheduled time until ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	for {
		now := j.now()
		timer := time.NewTimer(j.schedule.Next(now).Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		removed, err := j.RunOnce(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "failed to prune storage", "error", err)
			continue
		}
		slog.InfoContext(ctx, "pruned storage", "removed", removed)
	}
}

func (j *Janitor) RunOnce(ctx context.Context) (int, error) {
	removed, err := j.pruner.Prune(ctx, j.now().Add(-j.retention))
	if err != nil {
		return removed, xerrors.Errorf("failed to prune: %w", err)
	}
	return removed, nil
}
