package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adhocore/gronx"

	"linkgraph/observability"
	"linkgraph/repositories"
)

// ReaperWorker deletes notifications past their expiry on a cron
// schedule. Deletion by expired id is naturally idempotent, so
// concurrent runs are safe and no coordination with foreground paths
// is needed beyond storage-level atomicity.
type ReaperWorker struct {
	log           *slog.Logger
	notifications repositories.INotificationRepository
	cron          string
}

func NewReaperWorker(log *slog.Logger, notifications repositories.INotificationRepository, cron string) (*ReaperWorker, error) {
	if !gronx.IsValid(cron) {
		return nil, fmt.Errorf("invalid reaper cron expression: %s", cron)
	}
	return &ReaperWorker{log: log, notifications: notifications, cron: cron}, nil
}

// Run computes the next cron tick and sleeps until it, sweeping once
// per tick. A failed sweep is logged and retried at the next tick.
func (w *ReaperWorker) Run(ctx context.Context) error {
	w.log.Info("Starting notification reaper", "cron", w.cron)
	for {
		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(w.cron, now, false)
		if err != nil {
			return fmt.Errorf("computing next reaper tick: %w", err)
		}

		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping reaper")
			return nil
		case <-time.After(time.Until(next)):
			w.sweep()
		}
	}
}

func (w *ReaperWorker) sweep() {
	deleted, err := w.notifications.DeleteExpired(time.Now().UTC())
	if err != nil {
		w.log.Warn("Reaper sweep failed", "error", err)
		return
	}
	observability.ReaperDeleted.Add(float64(deleted))
	if deleted > 0 {
		w.log.Info(fmt.Sprintf("Reaper deleted %d expired notifications", deleted))
	}
}
