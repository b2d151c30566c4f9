package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"booking-engine/internal/services"
	"booking-engine/internal/status"
)

const sweepLockKey = "lock:sweep"

type Sweeper interface {
	SweepCompletedEvents(ctx context.Context, now time.Time) (services.SweepResult, error)
}

// SweepWorker periodically closes out completed events. Every instance runs
// one, the Redis lock keeps a single sweep in flight across instances.
type SweepWorker struct {
	sweeper  Sweeper
	locker   services.Locker
	interval time.Duration
	lockTTL  time.Duration
	now      func() time.Time

	runs    int
	skipped int
	failed  int
}

func NewSweepWorker(sweeper Sweeper, locker services.Locker, interval, lockTTL time.Duration) *SweepWorker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}
	return &SweepWorker{
		sweeper:  sweeper,
		locker:   locker,
		interval: interval,
		lockTTL:  lockTTL,
		now:      time.Now,
	}
}

// Run sweeps once at start, then on every tick until ctx is cancelled.
func (w *SweepWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("Attendance sweep worker started", "interval", w.interval)
	w.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Attendance sweep worker stopped", "runs", w.runs, "skipped", w.skipped, "failed", w.failed)
			return nil
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *SweepWorker) tick(ctx context.Context) {
	_, err := w.RunOnce(ctx)
	switch {
	case errors.Is(err, status.ErrLockNotAcquired):
		w.skipped++
		slog.Debug("Sweep already running on another instance")
	case errors.Is(err, context.Canceled):
	case err != nil:
		w.failed++
		slog.Error("Attendance sweep failed", "error", err)
	default:
		w.runs++
	}
}

// RunOnce performs a single locked sweep. It returns status.ErrLockNotAcquired
// when another instance holds the sweep lock. A lock backend failure is
// logged and the sweep runs anyway; MarkIfUnset keeps concurrent sweeps safe.
func (w *SweepWorker) RunOnce(ctx context.Context) (services.SweepResult, error) {
	if w.locker != nil {
		release, err := w.locker.Acquire(ctx, sweepLockKey, w.lockTTL)
		switch {
		case errors.Is(err, status.ErrLockNotAcquired):
			return services.SweepResult{}, err
		case err != nil:
			slog.Warn("Sweep lock unavailable, sweeping without it", "error", err)
		default:
			defer release()
		}
	}
	return w.sweeper.SweepCompletedEvents(ctx, w.now())
}
