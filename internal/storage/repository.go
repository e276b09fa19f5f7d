// Package storage persists the application's entities in SQLite. The schema
// lives in embedded migrations and is applied on open.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/weltonoliveiral/domusfinance/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record does not exist or belongs to a
// different user.
var ErrNotFound = errors.New("record not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping verifies the database connection, for readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func newID() string {
	return uuid.NewString()
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func timeFromUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// CreateExpense inserts a new expense and returns it with its assigned ID.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = newID()
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, category_id, description, amount_cents, date, household_member_id, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.CategoryID, e.Description, e.Amount.Cents, e.Date,
		e.HouseholdMemberID, e.Notes, now.Unix(), now.Unix())
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	return e, nil
}

// GetExpense fetches a single expense scoped to its owner.
func (r *SQLiteRepository) GetExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, category_id, description, amount_cents, date, household_member_id, notes, created_at, updated_at
		FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	return scanExpense(row)
}

// UpdateExpense overwrites the mutable fields of an expense.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET category_id = ?, description = ?, amount_cents = ?, date = ?, household_member_id = ?, notes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		e.CategoryID, e.Description, e.Amount.Cents, e.Date, e.HouseholdMemberID,
		e.Notes, time.Now().Unix(), e.ID, e.UserID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res)
}

// DeleteExpense removes an expense scoped to its owner.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res)
}

// ExpenseFilter narrows ListExpenses. Empty fields are ignored; StartDate and
// EndDate are inclusive civil-date bounds.
type ExpenseFilter struct {
	StartDate         string
	EndDate           string
	CategoryID        string
	HouseholdMemberID string
	Limit             int
}

// ListExpenses returns a user's expenses newest-first.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string, f ExpenseFilter) ([]core.Expense, error) {
	q := `SELECT id, user_id, category_id, description, amount_cents, date, household_member_id, notes, created_at, updated_at
		FROM expenses WHERE user_id = ?`
	args := []any{userID}

	if f.StartDate != "" {
		q += ` AND date >= ?`
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		q += ` AND date <= ?`
		args = append(args, f.EndDate)
	}
	if f.CategoryID != "" {
		q += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.HouseholdMemberID != "" {
		q += ` AND household_member_id = ?`
		args = append(args, f.HouseholdMemberID)
	}
	q += ` ORDER BY date DESC, created_at DESC`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SumCategoryExpenses totals a user's spending for one category inside an
// inclusive civil-date range. Zero when nothing matches.
func (r *SQLiteRepository) SumCategoryExpenses(ctx context.Context, userID, categoryID, startDate, endDate string) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM expenses
		WHERE user_id = ? AND category_id = ? AND date >= ? AND date <= ?`,
		userID, categoryID, startDate, endDate).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum category expenses: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// ListUserIDsWithExpenses returns the distinct users with at least one
// expense inside the date range.
func (r *SQLiteRepository) ListUserIDsWithExpenses(ctx context.Context, startDate, endDate string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT user_id FROM expenses WHERE date >= ? AND date <= ? ORDER BY user_id`,
		startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("list users with expenses: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var e core.Expense
	var createdAt, updatedAt int64
	err := row.Scan(&e.ID, &e.UserID, &e.CategoryID, &e.Description, &e.Amount.Cents,
		&e.Date, &e.HouseholdMemberID, &e.Notes, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	e.CreatedAt = timeFromUnix(createdAt)
	e.UpdatedAt = timeFromUnix(updatedAt)
	return e, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
