package monitor

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/weltonoliveiral/domusfinance/internal/clock"
	"github.com/weltonoliveiral/domusfinance/internal/core"
	"github.com/weltonoliveiral/domusfinance/internal/storage"
)

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

// fixedClock pins the clock to the given local wall time in May 2024.
func fixedClock(t *testing.T, day, hour int) *clock.Clock {
	t.Helper()
	base, err := clock.New(clock.DefaultTimezone)
	if err != nil {
		t.Fatalf("load timezone: %v", err)
	}
	at := time.Date(2024, 5, day, hour, 30, 0, 0, base.Location())
	clk, err := clock.NewWithNow(clock.DefaultTimezone, func() time.Time { return at })
	if err != nil {
		t.Fatalf("build clock: %v", err)
	}
	return clk
}

func seedBudget(t *testing.T, repo *storage.SQLiteRepository, userID, categoryID string, limitCents, spentCents int64) core.Budget {
	t.Helper()
	ctx := context.Background()
	b, err := repo.UpsertBudget(ctx, userID, categoryID, "2024-05", core.Money{Cents: limitCents})
	if err != nil {
		t.Fatalf("upsert budget: %v", err)
	}
	if spentCents > 0 {
		_, err = repo.CreateExpense(ctx, core.Expense{
			UserID:     userID,
			CategoryID: categoryID,
			Date:       "2024-05-10",
			Amount:     core.Money{Cents: spentCents},
		})
		if err != nil {
			t.Fatalf("create expense: %v", err)
		}
	}
	return b
}

func TestCheckUserUpdatesCache(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	clk := fixedClock(t, 20, 10) // business hours

	b := seedBudget(t, repo, "u1", "food", 100000, 96000)
	eval := NewEvaluator(repo, clk, 24*time.Hour)

	if err := eval.CheckUser(ctx, "u1"); err != nil {
		t.Fatalf("check user: %v", err)
	}

	got, err := repo.GetBudget(ctx, "u1", b.ID)
	if err != nil {
		t.Fatalf("get budget: %v", err)
	}
	if got.Spent.Cents != 96000 {
		t.Errorf("spent = %d, want 96000", got.Spent.Cents)
	}
	if got.Percentage != 96.0 {
		t.Errorf("percentage = %v, want 96", got.Percentage)
	}
	if got.Status != core.StatusWarning {
		t.Errorf("status = %s, want warning", got.Status)
	}
	if got.LastChecked.IsZero() {
		t.Error("last checked should be set")
	}
}

func TestCheckUserAlerting(t *testing.T) {
	tests := []struct {
		name       string
		spentCents int64
		hour       int
		wantAlerts int
		wantPrio   core.Priority
	}{
		{"good budget stays silent", 50000, 10, 0, ""},
		{"caution alerts in business hours", 80000, 10, 1, core.PriorityLow},
		{"warning alerts in business hours", 96000, 10, 1, core.PriorityMedium},
		{"exceeded alerts in business hours", 120000, 10, 1, core.PriorityHigh},
		{"warning suppressed outside business hours", 96000, 22, 0, ""},
		{"warning suppressed before opening", 96000, 7, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestRepo(t)
			ctx := context.Background()

			seedBudget(t, repo, "u1", "food", 100000, tt.spentCents)
			eval := NewEvaluator(repo, fixedClock(t, 20, tt.hour), 24*time.Hour)

			if err := eval.CheckUser(ctx, "u1"); err != nil {
				t.Fatalf("check user: %v", err)
			}

			notifs, err := repo.ListNotifications(ctx, "u1", 10)
			if err != nil {
				t.Fatalf("list notifications: %v", err)
			}
			if len(notifs) != tt.wantAlerts {
				t.Fatalf("alerts = %d, want %d", len(notifs), tt.wantAlerts)
			}
			if tt.wantAlerts > 0 {
				n := notifs[0]
				if n.Type != core.NotificationBudgetAlert {
					t.Errorf("type = %s, want budget_alert", n.Type)
				}
				if n.Priority != tt.wantPrio {
					t.Errorf("priority = %s, want %s", n.Priority, tt.wantPrio)
				}
			}
		})
	}
}

func TestCheckUserDedupesRepeatedAlerts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seedBudget(t, repo, "u1", "food", 100000, 96000)
	eval := NewEvaluator(repo, fixedClock(t, 20, 10), 24*time.Hour)

	for i := 0; i < 3; i++ {
		if err := eval.CheckUser(ctx, "u1"); err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
	}

	notifs, err := repo.ListNotifications(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifs) != 1 {
		t.Errorf("alerts = %d, want 1 after repeated checks", len(notifs))
	}
}

func TestCheckUserWithoutBudgets(t *testing.T) {
	repo := newTestRepo(t)
	eval := NewEvaluator(repo, fixedClock(t, 20, 10), 24*time.Hour)
	if err := eval.CheckUser(context.Background(), "nobody"); err != nil {
		t.Errorf("check without budgets = %v, want nil", err)
	}
}

func TestAlertContent(t *testing.T) {
	spent := core.Money{Cents: 96000}
	limit := core.Money{Cents: 100000}

	tests := []struct {
		name        string
		status      core.BudgetStatus
		percentage  float64
		wantTitle   string
		wantMessage string
		wantPrio    core.Priority
	}{
		{
			name:        "caution",
			status:      core.StatusCaution,
			percentage:  80.0,
			wantTitle:   "⚠️ Atenção: Orçamento de Alimentação",
			wantMessage: "Você já gastou 80.0% do orçamento desta categoria. Gasto atual: R$ 960,00 de R$ 1000,00",
			wantPrio:    core.PriorityLow,
		},
		{
			name:        "warning",
			status:      core.StatusWarning,
			percentage:  96.0,
			wantTitle:   "🚨 Alerta: Orçamento de Alimentação",
			wantMessage: "Cuidado! Você já gastou 96.0% do orçamento desta categoria. Gasto atual: R$ 960,00 de R$ 1000,00",
			wantPrio:    core.PriorityMedium,
		},
		{
			name:        "exceeded reports overshoot",
			status:      core.StatusExceeded,
			percentage:  112.5,
			wantTitle:   "🔴 Orçamento Excedido: Alimentação",
			wantMessage: "Você excedeu o orçamento desta categoria em 12.5%. Gasto atual: R$ 960,00 de R$ 1000,00",
			wantPrio:    core.PriorityHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, message, prio := AlertContent(tt.status, "Alimentação", tt.percentage, spent, limit)
			if title != tt.wantTitle {
				t.Errorf("title = %q, want %q", title, tt.wantTitle)
			}
			if message != tt.wantMessage {
				t.Errorf("message = %q, want %q", message, tt.wantMessage)
			}
			if prio != tt.wantPrio {
				t.Errorf("priority = %s, want %s", prio, tt.wantPrio)
			}
		})
	}

	t.Run("missing category falls back", func(t *testing.T) {
		title, _, _ := AlertContent(core.StatusWarning, "", 90, spent, limit)
		if !strings.Contains(title, "Categoria") {
			t.Errorf("title %q should use fallback category name", title)
		}
	})

	t.Run("good produces nothing", func(t *testing.T) {
		title, message, prio := AlertContent(core.StatusGood, "Alimentação", 50, spent, limit)
		if title != "" || message != "" || prio != "" {
			t.Errorf("good status should render empty content, got %q %q %q", title, message, prio)
		}
	})
}

// flakySumStore fails the spend aggregation for one category and delegates
// everything else to the underlying repository.
type flakySumStore struct {
	Store
	failCategory string
}

func (f *flakySumStore) SumCategoryExpenses(ctx context.Context, userID, categoryID, startDate, endDate string) (core.Money, error) {
	if categoryID == f.failCategory {
		return core.Money{}, errors.New("aggregation unavailable")
	}
	return f.Store.SumCategoryExpenses(ctx, userID, categoryID, startDate, endDate)
}

func TestCheckUserIsolatesFailingBudget(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	clk := fixedClock(t, 20, 10)

	bad := seedBudget(t, repo, "u1", "food", 100000, 50000)
	good := seedBudget(t, repo, "u1", "transport", 100000, 96000)

	eval := NewEvaluator(&flakySumStore{Store: repo, failCategory: "food"}, clk, 24*time.Hour)

	err := eval.CheckUser(ctx, "u1")
	if err == nil {
		t.Fatal("expected error when one budget fails")
	}
	if !strings.Contains(err.Error(), "2 budgets, 1 failed") {
		t.Errorf("error = %v, want failure count for 2 budgets", err)
	}

	// The healthy budget was still evaluated and persisted.
	got, err := repo.GetBudget(ctx, "u1", good.ID)
	if err != nil {
		t.Fatalf("get budget: %v", err)
	}
	if got.Percentage != 96.0 {
		t.Errorf("healthy budget percentage = %v, want 96", got.Percentage)
	}
	if got.Status != core.StatusWarning {
		t.Errorf("healthy budget status = %s, want %s", got.Status, core.StatusWarning)
	}

	// The failing one was never evaluated.
	skipped, err := repo.GetBudget(ctx, "u1", bad.ID)
	if err != nil {
		t.Fatalf("get budget: %v", err)
	}
	if skipped.Spent.Cents != 0 || !skipped.LastChecked.IsZero() {
		t.Errorf("failed budget cache changed: spent=%d last_checked=%v",
			skipped.Spent.Cents, skipped.LastChecked)
	}
}
