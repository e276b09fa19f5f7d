package http

import (
	"net/http"

	"github.com/weltonoliveiral/domusfinance/internal/core"
)

type budgetRequest struct {
	CategoryID string `json:"category_id"`
	Month      string `json:"month"` // YYYY-MM
	Limit      string `json:"limit"` // decimal reais
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondJSON(w, http.StatusOK, []core.Budget{})
		return
	}

	month := r.URL.Query().Get("month")
	if month == "" {
		month = s.deps.Clock.CurrentMonthKey()
	}

	budgets, err := s.deps.Budgets.ListBudgets(r.Context(), uid, month)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if budgets == nil {
		budgets = []core.Budget{}
	}
	respondJSON(w, http.StatusOK, budgets)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	var req budgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cents, err := core.ParseDecimalToCents(req.Limit)
	if err != nil {
		respondDomainError(w, core.ErrInvalidLimit)
		return
	}

	budget, err := s.deps.Budgets.SetBudget(r.Context(), uid,
		sanitizeInput(req.CategoryID), sanitizeInput(req.Month), core.Money{Cents: cents})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, budget)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	if err := s.deps.Budgets.DeleteBudget(r.Context(), uid, r.PathValue("id")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
