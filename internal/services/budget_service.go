package services

import (
	"context"
	"fmt"

	"github.com/weltonoliveiral/domusfinance/internal/clock"
	"github.com/weltonoliveiral/domusfinance/internal/core"
	"github.com/weltonoliveiral/domusfinance/internal/storage"
)

// BudgetService answers budget queries with live spend figures instead of
// the evaluator's cache, so the UI reflects an expense the moment it lands.
type BudgetService struct {
	storage *storage.SQLiteRepository
	clock   *clock.Clock
}

func NewBudgetService(repo *storage.SQLiteRepository, clk *clock.Clock) *BudgetService {
	return &BudgetService{storage: repo, clock: clk}
}

// SetBudget creates the budget for (user, category, month) or updates its
// limit, then returns it with live figures.
func (s *BudgetService) SetBudget(ctx context.Context, userID, categoryID, month string, limit core.Money) (core.Budget, error) {
	if userID == "" {
		return core.Budget{}, core.ErrEmptyUser
	}
	if categoryID == "" {
		return core.Budget{}, core.ErrEmptyCategory
	}
	if !core.ValidMonth(month) {
		return core.Budget{}, core.ErrInvalidMonth
	}
	if limit.Cents <= 0 {
		return core.Budget{}, core.ErrInvalidLimit
	}

	budget, err := s.storage.UpsertBudget(ctx, userID, categoryID, month, limit)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	return s.withLiveFigures(ctx, budget)
}

// ListBudgets returns the user's budgets for a month with spent, percentage
// and status computed from current expenses.
func (s *BudgetService) ListBudgets(ctx context.Context, userID, month string) ([]core.Budget, error) {
	if !core.ValidMonth(month) {
		return nil, core.ErrInvalidMonth
	}

	budgets, err := s.storage.ListBudgets(ctx, userID, month)
	if err != nil {
		return nil, err
	}
	for i, b := range budgets {
		live, err := s.withLiveFigures(ctx, b)
		if err != nil {
			return nil, err
		}
		budgets[i] = live
	}
	return budgets, nil
}

func (s *BudgetService) DeleteBudget(ctx context.Context, userID, id string) error {
	return s.storage.DeleteBudget(ctx, userID, id)
}

func (s *BudgetService) withLiveFigures(ctx context.Context, b core.Budget) (core.Budget, error) {
	startDate, endDate, err := s.clock.MonthRange(b.Month)
	if err != nil {
		return core.Budget{}, err
	}
	spent, err := s.storage.SumCategoryExpenses(ctx, b.UserID, b.CategoryID, startDate, endDate)
	if err != nil {
		return core.Budget{}, fmt.Errorf("sum expenses: %w", err)
	}
	b.Spent = spent
	b.Percentage = core.Percentage(spent, b.Limit)
	b.Status = core.ClassifyBudget(b.Percentage)
	return b, nil
}
