package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/weltonoliveiral/domusfinance/internal/core"
	"github.com/weltonoliveiral/domusfinance/internal/storage"
)

type expenseRequest struct {
	CategoryID        string `json:"category_id"`
	Description       string `json:"description"`
	Amount            string `json:"amount"` // decimal, "45.90" or "45,90"
	Date              string `json:"date"`   // YYYY-MM-DD
	HouseholdMemberID string `json:"household_member_id"`
	Notes             string `json:"notes"`
}

func (req expenseRequest) toExpense(userID string) (core.Expense, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		UserID:            userID,
		CategoryID:        sanitizeInput(req.CategoryID),
		Description:       sanitizeInput(req.Description),
		Amount:            core.Money{Cents: cents},
		Date:              sanitizeInput(req.Date),
		HouseholdMemberID: sanitizeInput(req.HouseholdMemberID),
		Notes:             sanitizeInput(req.Notes),
	}, nil
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondJSON(w, http.StatusOK, []core.Expense{})
		return
	}

	q := r.URL.Query()
	filter := storage.ExpenseFilter{
		StartDate:         q.Get("start_date"),
		EndDate:           q.Get("end_date"),
		CategoryID:        q.Get("category_id"),
		HouseholdMemberID: q.Get("member_id"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	expenses, err := s.deps.Expenses.ListExpenses(r.Context(), uid, filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "List expenses failed", "error", err)
		respondDomainError(w, err)
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	respondJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	var req expenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	expense, err := req.toExpense(uid)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	created, err := s.deps.Expenses.CreateExpense(r.Context(), expense)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	s.invalidateSummary(uid, created.Date)
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	expense, err := s.deps.Expenses.GetExpense(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, expense)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	// The stored row fixes identity; the body only supplies new values.
	existing, err := s.deps.Expenses.GetExpense(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	var req expenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	updated, err := req.toExpense(uid)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt

	if err := s.deps.Expenses.UpdateExpense(r.Context(), updated); err != nil {
		respondDomainError(w, err)
		return
	}

	// The date may have moved across months; both summaries are stale.
	s.invalidateSummary(uid, existing.Date)
	s.invalidateSummary(uid, updated.Date)
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	existing, err := s.deps.Expenses.GetExpense(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	if err := s.deps.Expenses.DeleteExpense(r.Context(), uid, existing.ID); err != nil {
		respondDomainError(w, err)
		return
	}

	s.invalidateSummary(uid, existing.Date)
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondJSON(w, http.StatusOK, json.RawMessage("null"))
		return
	}

	month := r.URL.Query().Get("month")
	if month == "" {
		month = s.deps.Clock.CurrentMonthKey()
	}

	key := summaryKey(uid, month)
	if cached, ok := s.summaryCache.Get(key); ok {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	summary, err := s.deps.Expenses.MonthSummary(r.Context(), uid, month)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	s.summaryCache.Set(key, summary)
	respondJSON(w, http.StatusOK, summary)
}
