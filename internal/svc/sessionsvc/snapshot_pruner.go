package sessionsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidSchedule is returned when the prune schedule is not a valid cron spec.
var ErrInvalidSchedule = errors.New("invalid prune schedule")

// PruneSnapshots removes the snapshots older than SnapshotMaxAge.
func (s *SessionService) PruneSnapshots(ctx context.Context) (removed int, err error) {
	if s.SnapshotRepo == nil || s.Config.SnapshotMaxAge <= 0 {
		return 0, nil
	}

	cutoff := time.Now().Add(-s.Config.SnapshotMaxAge)

	defer func() {
		if err != nil {
			s.Log.ErrorContext(ctx, "prune snapshots failed", "error", err)
		} else {
			s.Log.InfoContext(ctx, "snapshots pruned", "removed", removed, "cutoff", cutoff)
		}
	}()

	removed, err = s.SnapshotRepo.Prune(ctx, cutoff)
	if err != nil {
		return removed, fmt.Errorf("prune: %w", err)
	}

	return removed, nil
}

// ScheduleSnapshotPruning runs PruneSnapshots on PruneSchedule until the returned
// stop function is called. stop waits for a running prune to finish.
// An empty schedule schedules nothing.
func (s *SessionService) ScheduleSnapshotPruning(ctx context.Context) (stop func(), err error) {
	if s.Config.PruneSchedule == "" {
		return func() {}, nil
	}

	scheduler := cron.New()

	_, err = scheduler.AddFunc(s.Config.PruneSchedule, func() {
		_, _ = s.PruneSnapshots(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, s.Config.PruneSchedule, err)
	}

	scheduler.Start()
	s.Log.DebugContext(ctx, "snapshot pruning scheduled", "schedule", s.Config.PruneSchedule)

	return func() {
		<-scheduler.Stop().Done()
	}, nil
}
