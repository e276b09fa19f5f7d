package http

import (
	"net/http"
	"strconv"

	"github.com/weltonoliveiral/domusfinance/internal/core"
)

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondJSON(w, http.StatusOK, []core.Notification{})
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	notifs, err := s.deps.Repo.ListNotifications(r.Context(), uid, limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if notifs == nil {
		notifs = []core.Notification{}
	}
	respondJSON(w, http.StatusOK, notifs)
}

func (s *Server) handleCreateNotification(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	var req struct {
		Title    string `json:"title"`
		Message  string `json:"message"`
		Type     string `json:"type"`
		Priority string `json:"priority"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	notif := core.Notification{
		UserID:    uid,
		Type:      core.NotificationCustom,
		Title:     sanitizeInput(req.Title),
		Message:   sanitizeInput(req.Message),
		Priority:  core.PriorityMedium,
		CreatedAt: s.deps.Clock.Now(),
	}
	if req.Type != "" {
		notif.Type = core.NotificationType(sanitizeInput(req.Type))
	}
	if req.Priority != "" {
		notif.Priority = core.Priority(sanitizeInput(req.Priority))
	}
	if err := notif.Validate(); err != nil {
		respondDomainError(w, err)
		return
	}

	created, err := s.deps.Repo.CreateNotification(r.Context(), notif)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondJSON(w, http.StatusOK, map[string]int{"count": 0})
		return
	}

	count, err := s.deps.Repo.UnreadNotificationCount(r.Context(), uid)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	err := s.deps.Repo.MarkNotificationRead(r.Context(), uid, r.PathValue("id"), s.deps.Clock.Now())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	marked, err := s.deps.Repo.MarkAllNotificationsRead(r.Context(), uid, s.deps.Clock.Now())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"marked": marked})
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "não autenticado")
		return
	}

	if err := s.deps.Repo.DeleteNotification(r.Context(), uid, r.PathValue("id")); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
