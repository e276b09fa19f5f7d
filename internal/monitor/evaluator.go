// Package monitor evaluates budgets against recorded spending and produces
// the notifications that keep users inside their limits. The evaluator
// handles one user at a time; the sweeper fans it out across the fleet on a
// schedule.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/weltonoliveiral/domusfinance/internal/clock"
	"github.com/weltonoliveiral/domusfinance/internal/core"
	"github.com/weltonoliveiral/domusfinance/internal/storage"
)

// Store is the slice of the repository the evaluator needs.
type Store interface {
	ListBudgets(ctx context.Context, userID, month string) ([]core.Budget, error)
	GetCategory(ctx context.Context, userID, id string) (core.Category, error)
	SumCategoryExpenses(ctx context.Context, userID, categoryID, startDate, endDate string) (core.Money, error)
	UpdateBudgetEvaluation(ctx context.Context, budgetID string, spent core.Money, percentage float64, status core.BudgetStatus, checkedAt time.Time) error
	CreateAlertIfAbsent(ctx context.Context, n core.Notification, window time.Duration) (bool, error)
}

// Evaluator recomputes the cached spend figures of a user's budgets for the
// current month and raises alerts when a budget crosses a threshold.
type Evaluator struct {
	store        Store
	clock        *clock.Clock
	dedupeWindow time.Duration
}

func NewEvaluator(store Store, clk *clock.Clock, dedupeWindow time.Duration) *Evaluator {
	return &Evaluator{
		store:        store,
		clock:        clk,
		dedupeWindow: dedupeWindow,
	}
}

// CheckUser re-evaluates all budgets the user holds for the current month.
// A failing budget is logged and skipped so one bad row cannot starve the
// rest; the error reports how many were skipped.
func (e *Evaluator) CheckUser(ctx context.Context, userID string) error {
	month := e.clock.CurrentMonthKey()
	budgets, err := e.store.ListBudgets(ctx, userID, month)
	if err != nil {
		return fmt.Errorf("list budgets for %s: %w", month, err)
	}
	if len(budgets) == 0 {
		return nil
	}

	startDate, endDate, err := e.clock.MonthRange(month)
	if err != nil {
		return fmt.Errorf("month range for %s: %w", month, err)
	}
	now := e.clock.Now()

	failed := 0
	for _, budget := range budgets {
		if err := e.checkBudget(ctx, budget, startDate, endDate, now); err != nil {
			slog.ErrorContext(ctx, "Budget evaluation failed",
				"error", err,
				"user_id", userID,
				"budget_id", budget.ID,
				"category_id", budget.CategoryID)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("evaluated %d budgets, %d failed", len(budgets), failed)
	}
	return nil
}

func (e *Evaluator) checkBudget(ctx context.Context, budget core.Budget, startDate, endDate string, now time.Time) error {
	spent, err := e.store.SumCategoryExpenses(ctx, budget.UserID, budget.CategoryID, startDate, endDate)
	if err != nil {
		return fmt.Errorf("sum expenses: %w", err)
	}

	percentage := core.Percentage(spent, budget.Limit)
	status := core.ClassifyBudget(percentage)

	// The cache is refreshed on every run, even when nothing alerts, so
	// dashboards never show stale figures.
	if err := e.store.UpdateBudgetEvaluation(ctx, budget.ID, spent, percentage, status, now); err != nil {
		return fmt.Errorf("update evaluation: %w", err)
	}

	if status == core.StatusGood || !e.clock.IsBusinessHour(now) {
		return nil
	}

	categoryName := fallbackCategoryName
	if cat, err := e.store.GetCategory(ctx, budget.UserID, budget.CategoryID); err == nil {
		categoryName = cat.Name
	}

	title, message, priority := AlertContent(status, categoryName, percentage, spent, budget.Limit)
	created, err := e.store.CreateAlertIfAbsent(ctx, core.Notification{
		UserID:    budget.UserID,
		Type:      core.NotificationBudgetAlert,
		Title:     title,
		Message:   message,
		Priority:  priority,
		RelatedID: budget.ID,
		CreatedAt: now,
	}, e.dedupeWindow)
	if err != nil {
		return fmt.Errorf("create alert: %w", err)
	}
	if created {
		slog.InfoContext(ctx, "Budget alert created",
			"user_id", budget.UserID,
			"budget_id", budget.ID,
			"status", string(status),
			"percentage", percentage)
	} else {
		slog.DebugContext(ctx, "Budget alert suppressed by dedupe window",
			"user_id", budget.UserID,
			"budget_id", budget.ID)
	}
	return nil
}

// compile-time check that the SQLite repository satisfies the store.
var _ Store = (*storage.SQLiteRepository)(nil)
