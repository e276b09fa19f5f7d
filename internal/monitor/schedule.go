package monitor

import (
	"context"
	"log/slog"
	"time"

	"github.com/weltonoliveiral/domusfinance/internal/clock"
)

// NextRun returns the first instant strictly after now that falls on
// hour:minute in loc. Daylight saving shifts are absorbed by time.Date
// normalization, so a job scheduled for 09:00 runs at 09:00 local time on
// both sides of a transition.
func NextRun(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Scheduler fires jobs at fixed local times or fixed intervals. Each Run
// method blocks until ctx is cancelled, so callers run them in their own
// goroutines.
type Scheduler struct {
	clock *clock.Clock
}

func NewScheduler(clk *clock.Clock) *Scheduler {
	return &Scheduler{clock: clk}
}

// RunDaily fires job every day at hour:00 local time. Job failures are
// logged; the schedule keeps going.
func (s *Scheduler) RunDaily(ctx context.Context, name string, hour int, job func(context.Context) error) error {
	for {
		now := s.clock.Now()
		next := NextRun(now, hour, 0, s.clock.Location())
		slog.InfoContext(ctx, "Job scheduled", "job", name, "next_run", next)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		s.fire(ctx, name, job)
	}
}

// RunEvery fires job once immediately and then on every interval tick.
func (s *Scheduler) RunEvery(ctx context.Context, name string, interval time.Duration, job func(context.Context) error) error {
	s.fire(ctx, name, job)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.fire(ctx, name, job)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, name string, job func(context.Context) error) {
	started := s.clock.Now()
	if err := job(ctx); err != nil {
		slog.ErrorContext(ctx, "Scheduled job failed",
			"job", name,
			"error", err,
			"duration", time.Since(started))
		return
	}
	slog.InfoContext(ctx, "Scheduled job finished",
		"job", name,
		"duration", time.Since(started))
}
