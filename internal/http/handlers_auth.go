package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/weltonoliveiral/domusfinance/internal/services"
)

// Password reset endpoints are unauthenticated by nature. The token travels
// only through the mail pipeline; responses never carry it and never reveal
// whether an address is registered.

func (s *Server) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	_, err := s.deps.Reset.RequestReset(r.Context(), req.Email)
	if err != nil && !errors.Is(err, services.ErrInvalidEmail) {
		slog.ErrorContext(r.Context(), "Reset request failed", "error", err)
		respondDomainError(w, err)
		return
	}

	// Same answer for unknown and malformed addresses.
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleResetValidate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	email, err := s.deps.Reset.ValidateToken(r.Context(), req.Token)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"valid": true, "email": email})
}

func (s *Server) handleResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	email, err := s.deps.Reset.ConsumeToken(r.Context(), req.Token)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	// The auth provider applies the credential change; here the token is
	// burned so it cannot be replayed.
	slog.InfoContext(r.Context(), "Password reset confirmed", "email", email)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
