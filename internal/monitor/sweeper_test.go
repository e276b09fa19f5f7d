package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/weltonoliveiral/domusfinance/internal/core"
)

// recordingChecker collects checked user IDs and can fail selected users.
type recordingChecker struct {
	mu      sync.Mutex
	checked []string
	failFor map[string]bool
}

func (c *recordingChecker) CheckUser(_ context.Context, userID string) error {
	c.mu.Lock()
	c.checked = append(c.checked, userID)
	c.mu.Unlock()
	if c.failFor[userID] {
		return errors.New("boom")
	}
	return nil
}

func TestDailySweepChecksEachUserOnce(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// u1 holds two budgets, u2 one; the sweep must check each user once.
	seedBudget(t, repo, "u1", "food", 100000, 0)
	seedBudget(t, repo, "u1", "transport", 50000, 0)
	seedBudget(t, repo, "u2", "food", 80000, 0)

	checker := &recordingChecker{}
	sweeper := NewSweeper(repo, checker, fixedClock(t, 20, 9), 4, 90*24*time.Hour, 24*time.Hour)

	if err := sweeper.DailySweep(ctx); err != nil {
		t.Fatalf("daily sweep: %v", err)
	}

	counts := map[string]int{}
	for _, id := range checker.checked {
		counts[id]++
	}
	if len(counts) != 2 || counts["u1"] != 1 || counts["u2"] != 1 {
		t.Errorf("checked = %v, want u1 and u2 once each", checker.checked)
	}
}

func TestDailySweepIsolatesFailingUsers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seedBudget(t, repo, "u1", "food", 100000, 0)
	seedBudget(t, repo, "u2", "food", 100000, 0)
	seedBudget(t, repo, "u3", "food", 100000, 0)

	checker := &recordingChecker{failFor: map[string]bool{"u2": true}}
	sweeper := NewSweeper(repo, checker, fixedClock(t, 20, 9), 2, 90*24*time.Hour, 24*time.Hour)

	err := sweeper.DailySweep(ctx)
	if err == nil {
		t.Fatal("sweep with a failing user should report an error")
	}
	if len(checker.checked) != 3 {
		t.Errorf("checked %d users, want all 3 despite the failure", len(checker.checked))
	}
}

func TestDailySweepEndToEnd(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	clk := fixedClock(t, 20, 9)

	b := seedBudget(t, repo, "u1", "food", 100000, 120000)

	eval := NewEvaluator(repo, clk, 24*time.Hour)
	sweeper := NewSweeper(repo, eval, clk, 4, 90*24*time.Hour, 24*time.Hour)

	if err := sweeper.DailySweep(ctx); err != nil {
		t.Fatalf("daily sweep: %v", err)
	}

	got, err := repo.GetBudget(ctx, "u1", b.ID)
	if err != nil {
		t.Fatalf("get budget: %v", err)
	}
	if got.Status != core.StatusExceeded {
		t.Errorf("status = %s, want exceeded", got.Status)
	}

	notifs, err := repo.ListNotifications(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifs) != 1 {
		t.Fatalf("alerts = %d, want 1", len(notifs))
	}
	if notifs[0].Priority != core.PriorityHigh {
		t.Errorf("priority = %s, want high", notifs[0].Priority)
	}
}

func TestMonthlyReportSweep(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, userID := range []string{"u1", "u2"} {
		_, err := repo.CreateExpense(ctx, core.Expense{
			UserID:     userID,
			CategoryID: "food",
			Date:       "2024-05-15",
			Amount:     core.Money{Cents: 1000},
		})
		if err != nil {
			t.Fatalf("seed expense: %v", err)
		}
	}

	t.Run("mid-month does nothing", func(t *testing.T) {
		sweeper := NewSweeper(repo, &recordingChecker{}, fixedClock(t, 20, 18), 4, 90*24*time.Hour, 24*time.Hour)
		if err := sweeper.MonthlyReportSweep(ctx); err != nil {
			t.Fatalf("sweep: %v", err)
		}
		for _, userID := range []string{"u1", "u2"} {
			notifs, err := repo.ListNotifications(ctx, userID, 10)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(notifs) != 0 {
				t.Errorf("user %s got %d reports mid-month, want 0", userID, len(notifs))
			}
		}
	})

	t.Run("last day notifies users with expenses", func(t *testing.T) {
		sweeper := NewSweeper(repo, &recordingChecker{}, fixedClock(t, 31, 18), 4, 90*24*time.Hour, 24*time.Hour)
		if err := sweeper.MonthlyReportSweep(ctx); err != nil {
			t.Fatalf("sweep: %v", err)
		}

		notifs, err := repo.ListNotifications(ctx, "u1", 10)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(notifs) != 1 {
			t.Fatalf("reports = %d, want 1", len(notifs))
		}
		n := notifs[0]
		if n.Type != core.NotificationMonthlyReport {
			t.Errorf("type = %s, want monthly_report", n.Type)
		}
		if n.RelatedID != "2024-05" {
			t.Errorf("related id = %q, want 2024-05", n.RelatedID)
		}
		if want := "📊 Relatório Mensal - maio de 2024"; n.Title != want {
			t.Errorf("title = %q, want %q", n.Title, want)
		}
	})

	t.Run("second run is idempotent", func(t *testing.T) {
		sweeper := NewSweeper(repo, &recordingChecker{}, fixedClock(t, 31, 18), 4, 90*24*time.Hour, 24*time.Hour)
		if err := sweeper.MonthlyReportSweep(ctx); err != nil {
			t.Fatalf("sweep: %v", err)
		}
		notifs, err := repo.ListNotifications(ctx, "u1", 10)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(notifs) != 1 {
			t.Errorf("reports = %d after rerun, want 1", len(notifs))
		}
	})

	t.Run("user without expenses is skipped", func(t *testing.T) {
		notifs, err := repo.ListNotifications(ctx, "u3", 10)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(notifs) != 0 {
			t.Errorf("idle user got %d reports, want 0", len(notifs))
		}
	})
}

func TestCleanupNotifications(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	clk := fixedClock(t, 20, 2)
	now := clk.Now()

	for _, age := range []time.Duration{time.Hour, 100 * 24 * time.Hour} {
		_, err := repo.CreateNotification(ctx, core.Notification{
			UserID:    "u1",
			Type:      core.NotificationCustom,
			Title:     "t",
			Message:   "m",
			Priority:  core.PriorityLow,
			CreatedAt: now.Add(-age),
		})
		if err != nil {
			t.Fatalf("seed notification: %v", err)
		}
	}

	sweeper := NewSweeper(repo, &recordingChecker{}, clk, 4, 90*24*time.Hour, 24*time.Hour)
	if err := sweeper.CleanupNotifications(ctx); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	notifs, err := repo.ListNotifications(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notifs) != 1 {
		t.Errorf("notifications = %d after cleanup, want 1", len(notifs))
	}
}

func TestCleanupResetTokens(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	clk := fixedClock(t, 20, 2)
	now := clk.Now()

	_, err := repo.CreateResetToken(ctx, core.PasswordResetToken{
		Email:     "a@example.com",
		Token:     "stale",
		ExpiresAt: now.Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("seed token: %v", err)
	}

	sweeper := NewSweeper(repo, &recordingChecker{}, clk, 4, 90*24*time.Hour, 24*time.Hour)
	if err := sweeper.CleanupResetTokens(ctx); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := repo.GetResetToken(ctx, "stale"); err == nil {
		t.Error("expired token should be gone")
	}
}
