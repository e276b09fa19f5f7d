package services

import (
	"context"
	"errors"
	"testing"

	"github.com/weltonoliveiral/domusfinance/internal/core"
)

func TestSetBudgetValidation(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewBudgetService(repo, testClock(t))
	ctx := context.Background()

	tests := []struct {
		name              string
		userID, category  string
		month             string
		limitCents        int64
		wantErr           error
	}{
		{"missing user", "", "food", "2024-05", 1000, core.ErrEmptyUser},
		{"missing category", "u1", "", "2024-05", 1000, core.ErrEmptyCategory},
		{"bad month", "u1", "food", "May 2024", 1000, core.ErrInvalidMonth},
		{"zero limit", "u1", "food", "2024-05", 0, core.ErrInvalidLimit},
		{"negative limit", "u1", "food", "2024-05", -100, core.ErrInvalidLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SetBudget(ctx, tt.userID, tt.category, tt.month, core.Money{Cents: tt.limitCents})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestListBudgetsLiveFigures(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewBudgetService(repo, testClock(t))
	ctx := context.Background()

	if _, err := svc.SetBudget(ctx, "u1", "food", "2024-05", core.Money{Cents: 100000}); err != nil {
		t.Fatalf("set budget: %v", err)
	}

	// The evaluator has not run, yet the listing must already reflect
	// this expense.
	_, err := repo.CreateExpense(ctx, core.Expense{
		UserID:     "u1",
		CategoryID: "food",
		Date:       "2024-05-10",
		Amount:     core.Money{Cents: 96000},
	})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}

	budgets, err := svc.ListBudgets(ctx, "u1", "2024-05")
	if err != nil {
		t.Fatalf("list budgets: %v", err)
	}
	if len(budgets) != 1 {
		t.Fatalf("budgets = %d, want 1", len(budgets))
	}
	b := budgets[0]
	if b.Spent.Cents != 96000 {
		t.Errorf("spent = %d, want 96000", b.Spent.Cents)
	}
	if b.Percentage != 96.0 {
		t.Errorf("percentage = %v, want 96", b.Percentage)
	}
	if b.Status != core.StatusWarning {
		t.Errorf("status = %s, want warning", b.Status)
	}
}

func TestSetBudgetUpdatesLimit(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewBudgetService(repo, testClock(t))
	ctx := context.Background()

	first, err := svc.SetBudget(ctx, "u1", "food", "2024-05", core.Money{Cents: 50000})
	if err != nil {
		t.Fatalf("first set: %v", err)
	}
	second, err := svc.SetBudget(ctx, "u1", "food", "2024-05", core.Money{Cents: 80000})
	if err != nil {
		t.Fatalf("second set: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second set created a new budget")
	}
	if second.Limit.Cents != 80000 {
		t.Errorf("limit = %d, want 80000", second.Limit.Cents)
	}
}
