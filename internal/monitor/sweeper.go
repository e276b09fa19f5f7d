package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/weltonoliveiral/domusfinance/internal/clock"
	"github.com/weltonoliveiral/domusfinance/internal/core"
	"github.com/weltonoliveiral/domusfinance/internal/storage"
)

// FleetStore is the slice of the repository the sweeper needs.
type FleetStore interface {
	ListBudgetsForMonth(ctx context.Context, month string) ([]core.Budget, error)
	ListUserIDsWithExpenses(ctx context.Context, startDate, endDate string) ([]string, error)
	CreateAlertIfAbsent(ctx context.Context, n core.Notification, window time.Duration) (bool, error)
	DeleteNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// Checker re-evaluates one user's budgets. The evaluator implements it for
// in-process sweeps; a queue publisher can stand in when the evaluation
// should happen in a worker instead.
type Checker interface {
	CheckUser(ctx context.Context, userID string) error
}

// Sweeper runs the fleet-wide scheduled jobs: the daily budget check, the
// end-of-month report, and the retention cleanups.
type Sweeper struct {
	store        FleetStore
	checker      Checker
	clock        *clock.Clock
	concurrency  int
	retention    time.Duration
	dedupeWindow time.Duration
}

func NewSweeper(store FleetStore, checker Checker, clk *clock.Clock, concurrency int, retention, dedupeWindow time.Duration) *Sweeper {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Sweeper{
		store:        store,
		checker:      checker,
		clock:        clk,
		concurrency:  concurrency,
		retention:    retention,
		dedupeWindow: dedupeWindow,
	}
}

// DailySweep checks every user that holds a budget for the current month.
// Users are checked concurrently with a bounded group; a failing user is
// logged and counted, never aborts the sweep.
func (s *Sweeper) DailySweep(ctx context.Context) error {
	month := s.clock.CurrentMonthKey()
	budgets, err := s.store.ListBudgetsForMonth(ctx, month)
	if err != nil {
		return fmt.Errorf("list budgets for %s: %w", month, err)
	}

	seen := make(map[string]struct{}, len(budgets))
	var users []string
	for _, b := range budgets {
		if _, ok := seen[b.UserID]; ok {
			continue
		}
		seen[b.UserID] = struct{}{}
		users = append(users, b.UserID)
	}

	slog.InfoContext(ctx, "Starting daily budget sweep",
		"month", month,
		"users", len(users),
		"budgets", len(budgets))

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, userID := range users {
		g.Go(func() error {
			if err := s.checker.CheckUser(gctx, userID); err != nil {
				slog.ErrorContext(gctx, "User sweep failed", "error", err, "user_id", userID)
				failed.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if n := failed.Load(); n > 0 {
		return fmt.Errorf("daily sweep: %d of %d users failed", n, len(users))
	}

	slog.InfoContext(ctx, "Daily budget sweep finished", "month", month, "users", len(users))
	return nil
}

// MonthlyReportSweep notifies every user that recorded an expense this month
// that their report is ready. It only acts on the last day of the month; the
// conditional insert makes a double-fired sweep idempotent.
func (s *Sweeper) MonthlyReportSweep(ctx context.Context) error {
	now := s.clock.Now()
	if !s.clock.IsLastDayOfMonth(now) {
		return nil
	}

	month := s.clock.CurrentMonthKey()
	startDate, endDate, err := s.clock.MonthRange(month)
	if err != nil {
		return fmt.Errorf("month range for %s: %w", month, err)
	}

	users, err := s.store.ListUserIDsWithExpenses(ctx, startDate, endDate)
	if err != nil {
		return fmt.Errorf("list users with expenses: %w", err)
	}

	title, message, priority := MonthlyReportContent(clock.MonthName(month))
	created := 0
	for _, userID := range users {
		inserted, err := s.store.CreateAlertIfAbsent(ctx, core.Notification{
			UserID:    userID,
			Type:      core.NotificationMonthlyReport,
			Title:     title,
			Message:   message,
			Priority:  priority,
			RelatedID: month,
			CreatedAt: now,
		}, s.dedupeWindow)
		if err != nil {
			slog.ErrorContext(ctx, "Monthly report notification failed", "error", err, "user_id", userID)
			continue
		}
		if inserted {
			created++
		}
	}

	slog.InfoContext(ctx, "Monthly report sweep finished",
		"month", month,
		"users", len(users),
		"created", created)
	return nil
}

// CleanupNotifications drops notifications older than the retention period.
func (s *Sweeper) CleanupNotifications(ctx context.Context) error {
	cutoff := s.clock.Now().Add(-s.retention)
	deleted, err := s.store.DeleteNotificationsBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete old notifications: %w", err)
	}
	if deleted > 0 {
		slog.InfoContext(ctx, "Old notifications purged", "deleted", deleted, "cutoff", cutoff)
	}
	return nil
}

// CleanupResetTokens drops password reset tokens past their expiry.
func (s *Sweeper) CleanupResetTokens(ctx context.Context) error {
	deleted, err := s.store.DeleteExpiredResetTokens(ctx, s.clock.Now())
	if err != nil {
		return fmt.Errorf("delete expired tokens: %w", err)
	}
	if deleted > 0 {
		slog.InfoContext(ctx, "Expired reset tokens purged", "deleted", deleted)
	}
	return nil
}

var _ FleetStore = (*storage.SQLiteRepository)(nil)
