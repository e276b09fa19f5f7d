package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/weltonoliveiral/domusfinance/internal/core"
)

// UpsertBudget creates the budget for (user, category, month) or, when one
// already exists, updates its limit in place. Returns the stored budget.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, userID, categoryID, month string, limit core.Money) (core.Budget, error) {
	id := newID()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (id, user_id, category_id, month, limit_cents)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, category_id, month) DO UPDATE SET limit_cents = excluded.limit_cents`,
		id, userID, categoryID, month, limit.Cents)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, category_id, month, limit_cents, spent_cents, percentage, status, last_checked
		FROM budgets WHERE user_id = ? AND category_id = ? AND month = ?`,
		userID, categoryID, month)
	return scanBudget(row)
}

// GetBudget fetches a budget scoped to its owner.
func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, category_id, month, limit_cents, spent_cents, percentage, status, last_checked
		FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	return scanBudget(row)
}

// ListBudgets returns one user's budgets for a month.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID, month string) ([]core.Budget, error) {
	return r.queryBudgets(ctx, `
		SELECT id, user_id, category_id, month, limit_cents, spent_cents, percentage, status, last_checked
		FROM budgets WHERE user_id = ? AND month = ? ORDER BY category_id`, userID, month)
}

// ListBudgetsForMonth returns every user's budgets for a month; the fleet
// sweep groups the result by user.
func (r *SQLiteRepository) ListBudgetsForMonth(ctx context.Context, month string) ([]core.Budget, error) {
	return r.queryBudgets(ctx, `
		SELECT id, user_id, category_id, month, limit_cents, spent_cents, percentage, status, last_checked
		FROM budgets WHERE month = ? ORDER BY user_id, category_id`, month)
}

// UpdateBudgetEvaluation persists the evaluator's cached fields. It is an
// unconditional overwrite: values are recomputed from source data each pass,
// so the last writer wins.
func (r *SQLiteRepository) UpdateBudgetEvaluation(ctx context.Context, budgetID string, spent core.Money, percentage float64, status core.BudgetStatus, checkedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE budgets SET spent_cents = ?, percentage = ?, status = ?, last_checked = ?
		WHERE id = ?`,
		spent.Cents, percentage, string(status), checkedAt.Unix(), budgetID)
	if err != nil {
		return fmt.Errorf("update budget evaluation: %w", err)
	}
	return requireRow(res)
}

// DeleteBudget removes a budget scoped to its owner.
func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) queryBudgets(ctx context.Context, q string, args ...any) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var b core.Budget
	var status string
	var lastChecked int64
	err := row.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Month, &b.Limit.Cents,
		&b.Spent.Cents, &b.Percentage, &status, &lastChecked)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("scan budget: %w", err)
	}
	b.Status = core.BudgetStatus(status)
	b.LastChecked = timeFromUnix(lastChecked)
	return b, nil
}
