package http

import (
	"net/http"
	"time"

	"github.com/weltonoliveiral/domusfinance/internal/core"
)

// --- categories ---

type categoryRequest struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondJSON(w, http.StatusOK, []core.Category{})
		return
	}

	cats, err := s.deps.Repo.ListCategories(r.Context(), uid)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cats)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if sanitizeInput(req.Name) == "" {
		respondDomainError(w, core.ErrEmptyName)
		return
	}

	created, err := s.deps.Repo.CreateCategory(r.Context(), core.Category{
		UserID: uid,
		Name:   sanitizeInput(req.Name),
		Icon:   sanitizeInput(req.Icon),
		Color:  sanitizeInput(req.Color),
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	existing, err := s.deps.Repo.GetCategory(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	var req categoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if name := sanitizeInput(req.Name); name != "" {
		existing.Name = name
	}
	existing.Icon = sanitizeInput(req.Icon)
	existing.Color = sanitizeInput(req.Color)

	if err := s.deps.Repo.UpdateCategory(r.Context(), existing); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, existing)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	if err := s.deps.Repo.DeleteCategory(r.Context(), uid, r.PathValue("id")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// --- savings goals ---

type goalRequest struct {
	Name        string `json:"name"`
	Target      string `json:"target_amount"` // decimal reais
	TargetDate  string `json:"target_date"`
	Description string `json:"description"`
}

// goalResponse is a goal with its derived figures filled in for display.
type goalResponse struct {
	core.SavingsGoal
	Progress      float64         `json:"progress"`
	Remaining     core.Money      `json:"remaining"`
	DaysRemaining int             `json:"days_remaining"`
	Status        core.GoalStatus `json:"status"`
}

func (s *Server) enrichGoal(goal core.SavingsGoal) goalResponse {
	progress := core.Percentage(goal.CurrentAmount, goal.TargetAmount)
	remaining := core.Money{Cents: goal.TargetAmount.Cents - goal.CurrentAmount.Cents}

	// Days counted between civil dates in the reporting timezone, so a goal
	// due today reads as 0 regardless of the hour.
	daysRemaining := 0
	now := s.deps.Clock.Now()
	if target, err := time.ParseInLocation("2006-01-02", goal.TargetDate, s.deps.Clock.Location()); err == nil {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.deps.Clock.Location())
		daysRemaining = int(target.Sub(today).Hours() / 24)
	}

	return goalResponse{
		SavingsGoal:   goal,
		Progress:      progress,
		Remaining:     remaining,
		DaysRemaining: daysRemaining,
		Status:        core.ClassifyGoal(progress, daysRemaining),
	}
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondJSON(w, http.StatusOK, []goalResponse{})
		return
	}

	goals, err := s.deps.Repo.ListSavingsGoals(r.Context(), uid)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	enriched := make([]goalResponse, 0, len(goals))
	for _, goal := range goals {
		enriched = append(enriched, s.enrichGoal(goal))
	}
	respondJSON(w, http.StatusOK, enriched)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	var req goalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cents, err := core.ParseDecimalToCents(req.Target)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	goal := core.SavingsGoal{
		UserID:       uid,
		Name:         sanitizeInput(req.Name),
		TargetAmount: core.Money{Cents: cents},
		TargetDate:   sanitizeInput(req.TargetDate),
		Description:  sanitizeInput(req.Description),
	}
	if err := goal.Validate(); err != nil {
		respondDomainError(w, err)
		return
	}

	created, err := s.deps.Repo.CreateSavingsGoal(r.Context(), goal)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	var req struct {
		DeltaCents int64 `json:"delta_cents"` // negative to withdraw
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	goal, err := s.deps.Repo.UpdateSavingsGoalAmount(r.Context(), uid, r.PathValue("id"),
		core.Money{Cents: req.DeltaCents}, s.deps.Clock.Now())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, goal)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	if err := s.deps.Repo.DeleteSavingsGoal(r.Context(), uid, r.PathValue("id")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// --- shopping lists ---

type shoppingListRequest struct {
	Name        string              `json:"name"`
	Items       []core.ShoppingItem `json:"items"`
	IsCompleted bool                `json:"is_completed"`
}

func (s *Server) handleListShoppingLists(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondJSON(w, http.StatusOK, []core.ShoppingList{})
		return
	}

	lists, err := s.deps.Repo.ListShoppingLists(r.Context(), uid)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if lists == nil {
		lists = []core.ShoppingList{}
	}
	respondJSON(w, http.StatusOK, lists)
}

func (s *Server) handleCreateShoppingList(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	var req shoppingListRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if sanitizeInput(req.Name) == "" {
		respondDomainError(w, core.ErrEmptyName)
		return
	}

	created, err := s.deps.Repo.CreateShoppingList(r.Context(), core.ShoppingList{
		UserID: uid,
		Name:   sanitizeInput(req.Name),
		Items:  req.Items,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateShoppingList(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	existing, err := s.deps.Repo.GetShoppingList(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	var req shoppingListRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if name := sanitizeInput(req.Name); name != "" {
		existing.Name = name
	}
	existing.Items = req.Items
	existing.IsCompleted = req.IsCompleted
	if req.IsCompleted && existing.CompletedAt.IsZero() {
		existing.CompletedAt = s.deps.Clock.Now()
	}

	if err := s.deps.Repo.UpdateShoppingList(r.Context(), existing); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, existing)
}

func (s *Server) handleDeleteShoppingList(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	if err := s.deps.Repo.DeleteShoppingList(r.Context(), uid, r.PathValue("id")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// --- household members ---

type memberRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive *bool  `json:"is_active"`
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondJSON(w, http.StatusOK, []core.HouseholdMember{})
		return
	}

	members, err := s.deps.Repo.ListHouseholdMembers(r.Context(), uid)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if members == nil {
		members = []core.HouseholdMember{}
	}
	respondJSON(w, http.StatusOK, members)
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if sanitizeInput(req.Name) == "" {
		respondDomainError(w, core.ErrEmptyName)
		return
	}

	created, err := s.deps.Repo.CreateHouseholdMember(r.Context(), core.HouseholdMember{
		UserID:   uid,
		Name:     sanitizeInput(req.Name),
		Email:    sanitizeInput(req.Email),
		Role:     sanitizeInput(req.Role),
		IsActive: true,
		JoinedAt: s.deps.Clock.Now(),
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	existing, err := s.deps.Repo.GetHouseholdMember(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	var req memberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if name := sanitizeInput(req.Name); name != "" {
		existing.Name = name
	}
	existing.Email = sanitizeInput(req.Email)
	existing.Role = sanitizeInput(req.Role)
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}

	if err := s.deps.Repo.UpdateHouseholdMember(r.Context(), existing); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, existing)
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	if err := s.deps.Repo.DeleteHouseholdMember(r.Context(), uid, r.PathValue("id")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// --- user settings ---

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	settings, err := s.deps.Repo.GetUserSettings(r.Context(), uid)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	settings, err := s.deps.Repo.GetUserSettings(r.Context(), uid)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	var req struct {
		Currency      *string                 `json:"currency"`
		Language      *string                 `json:"language"`
		Theme         *string                 `json:"theme"`
		Notifications *core.NotificationPrefs `json:"notifications"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Currency != nil {
		settings.Currency = sanitizeInput(*req.Currency)
	}
	if req.Language != nil {
		settings.Language = sanitizeInput(*req.Language)
	}
	if req.Theme != nil {
		settings.Theme = sanitizeInput(*req.Theme)
	}
	if req.Notifications != nil {
		settings.Notifications = *req.Notifications
	}

	if err := s.deps.Repo.UpsertUserSettings(r.Context(), settings); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// --- household sharing (disabled upstream) ---

func (s *Server) handleEmptyList(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, []struct{}{})
}

func (s *Server) handleSharingDisabled(w http.ResponseWriter, _ *http.Request) {
	respondError(w, http.StatusNotImplemented, "funcionalidade temporariamente desabilitada")
}
