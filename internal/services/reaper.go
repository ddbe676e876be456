package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/helpermatch/credits-backend/internal/metrics"
	repo "github.com/helpermatch/credits-backend/internal/repository"
)

// Reaper deletes idempotency records past their retention window,
// bounding table growth. Records still marked processing get an extra
// grace period so a slow completion never loses its duplicate guard.
type Reaper struct {
	idem     repo.Idempotency
	interval time.Duration
	grace    time.Duration
	now      func() time.Time
	log      *slog.Logger
}

func NewReaper(idem repo.Idempotency, interval, grace time.Duration, now func() time.Time, log *slog.Logger) *Reaper {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reaper{idem: idem, interval: interval, grace: grace, now: now, log: log}
}

// Start runs the sweep loop until ctx is cancelled.
func (r *Reaper) Start(ctx context.Context) {
	go func() {
		t := time.NewTicker(r.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if _, err := r.Sweep(ctx); err != nil {
					r.log.Error("reaper sweep", "err", err)
				}
			}
		}
	}()
}

// Sweep is re-entrant: concurrent sweeps race only on rows both are
// allowed to delete, so running it alongside live traffic is safe.
func (r *Reaper) Sweep(ctx context.Context) (int64, error) {
	n, err := r.idem.DeleteExpired(ctx, r.now(), r.grace)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.ReaperDeleted.Add(float64(n))
		r.log.Info("reaped expired idempotency records", "count", n)
	}
	return n, nil
}
