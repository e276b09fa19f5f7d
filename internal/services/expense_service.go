// Package services orchestrates storage, messaging and domain rules on
// behalf of the HTTP handlers and workers.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/weltonoliveiral/domusfinance/internal/amqp"
	"github.com/weltonoliveiral/domusfinance/internal/clock"
	"github.com/weltonoliveiral/domusfinance/internal/core"
	"github.com/weltonoliveiral/domusfinance/internal/storage"
)

// CheckPublisher enqueues budget re-evaluation requests. *amqp.Client
// implements it.
type CheckPublisher interface {
	PublishBudgetCheck(ctx context.Context, userID, reason string) error
}

// ExpenseService orchestrates expense mutations across SQLite and AMQP.
// Every mutation lands in storage first; the budget check message is
// best-effort because the daily sweep re-evaluates everyone anyway.
type ExpenseService struct {
	storage   *storage.SQLiteRepository
	publisher CheckPublisher
	clock     *clock.Clock
}

func NewExpenseService(repo *storage.SQLiteRepository, publisher CheckPublisher, clk *clock.Clock) *ExpenseService {
	return &ExpenseService{
		storage:   repo,
		publisher: publisher,
		clock:     clk,
	}
}

func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	created, err := s.storage.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.publishCheck(ctx, created.UserID, amqp.ReasonExpenseCreated)
	return created, nil
}

func (s *ExpenseService) UpdateExpense(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}

	if err := s.storage.UpdateExpense(ctx, e); err != nil {
		return err
	}

	s.publishCheck(ctx, e.UserID, amqp.ReasonExpenseUpdated)
	return nil
}

func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, id string) error {
	if err := s.storage.DeleteExpense(ctx, userID, id); err != nil {
		return err
	}

	s.publishCheck(ctx, userID, amqp.ReasonExpenseDeleted)
	return nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	return s.storage.GetExpense(ctx, userID, id)
}

func (s *ExpenseService) ListExpenses(ctx context.Context, userID string, f storage.ExpenseFilter) ([]core.Expense, error) {
	return s.storage.ListExpenses(ctx, userID, f)
}

// publishCheck never fails the caller. The expense is already saved; a lost
// message only delays the alert until the next sweep.
func (s *ExpenseService) publishCheck(ctx context.Context, userID, reason string) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Publisher not available, skipping budget check", "user_id", userID)
		return
	}
	if err := s.publisher.PublishBudgetCheck(ctx, userID, reason); err != nil {
		slog.ErrorContext(ctx, "Failed to publish budget check",
			"error", err,
			"user_id", userID,
			"reason", reason)
	}
}

// CategorySummary is one row of the month breakdown, heaviest first.
type CategorySummary struct {
	Category core.Category `json:"category"`
	Total    core.Money    `json:"total"`
	Count    int           `json:"count"`
}

// MonthlySummary aggregates one user's month for the dashboard.
type MonthlySummary struct {
	Month             string            `json:"month"`
	TotalExpenses     core.Money        `json:"total_expenses"`
	ExpenseCount      int               `json:"expense_count"`
	DailyAverageCents int64             `json:"daily_average_cents"`
	CategoryBreakdown []CategorySummary `json:"category_breakdown"`
	StartDate         string            `json:"start_date"`
	EndDate           string            `json:"end_date"`
}

// MonthSummary builds the spending summary for one month. The daily average
// divides by the number of days in the month, not days elapsed.
func (s *ExpenseService) MonthSummary(ctx context.Context, userID, month string) (MonthlySummary, error) {
	if !core.ValidMonth(month) {
		return MonthlySummary{}, core.ErrInvalidMonth
	}

	startDate, endDate, err := s.clock.MonthRange(month)
	if err != nil {
		return MonthlySummary{}, err
	}

	expenses, err := s.storage.ListExpenses(ctx, userID, storage.ExpenseFilter{
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		return MonthlySummary{}, fmt.Errorf("list expenses: %w", err)
	}

	summary := MonthlySummary{
		Month:     month,
		StartDate: startDate,
		EndDate:   endDate,
	}

	byCategory := make(map[string]*CategorySummary)
	for _, e := range expenses {
		summary.TotalExpenses.Cents += e.Amount.Cents
		summary.ExpenseCount++

		entry, ok := byCategory[e.CategoryID]
		if !ok {
			cat, err := s.storage.GetCategory(ctx, userID, e.CategoryID)
			if err != nil {
				// Category was deleted after the expense; keep the
				// spend visible under its old id.
				cat = core.Category{ID: e.CategoryID, Name: fallbackCategoryName(e.CategoryID)}
			}
			entry = &CategorySummary{Category: cat}
			byCategory[e.CategoryID] = entry
		}
		entry.Total.Cents += e.Amount.Cents
		entry.Count++
	}

	for _, entry := range byCategory {
		summary.CategoryBreakdown = append(summary.CategoryBreakdown, *entry)
	}
	sort.Slice(summary.CategoryBreakdown, func(i, j int) bool {
		return summary.CategoryBreakdown[i].Total.Cents > summary.CategoryBreakdown[j].Total.Cents
	})

	daysInMonth := daysIn(endDate)
	if daysInMonth > 0 {
		summary.DailyAverageCents = summary.TotalExpenses.Cents / int64(daysInMonth)
	}
	return summary, nil
}

func fallbackCategoryName(id string) string {
	return "Categoria " + id
}

// daysIn extracts the day-of-month from the month's last civil date.
func daysIn(endDate string) int {
	if len(endDate) != 10 {
		return 0
	}
	d := int(endDate[8]-'0')*10 + int(endDate[9]-'0')
	if d < 28 || d > 31 {
		return 0
	}
	return d
}
