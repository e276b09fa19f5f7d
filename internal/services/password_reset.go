package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/weltonoliveiral/domusfinance/internal/clock"
	"github.com/weltonoliveiral/domusfinance/internal/core"
	"github.com/weltonoliveiral/domusfinance/internal/storage"
)

var (
	ErrTokenInvalid = errors.New("token inválido")
	ErrTokenUsed    = errors.New("token já foi utilizado")
	ErrTokenExpired = errors.New("token expirado")
	ErrInvalidEmail = errors.New("email inválido")
)

// PasswordResetService issues and consumes single-use reset tokens. The
// credential change itself happens in the external auth provider; this
// service only manages the token lifecycle.
type PasswordResetService struct {
	storage *storage.SQLiteRepository
	clock   *clock.Clock
	ttl     time.Duration
}

func NewPasswordResetService(repo *storage.SQLiteRepository, clk *clock.Clock, ttl time.Duration) *PasswordResetService {
	return &PasswordResetService{storage: repo, clock: clk, ttl: ttl}
}

// RequestReset issues a token for the address and returns it for the mail
// pipeline. HTTP handlers must not echo it back to the requester, and their
// response must not reveal whether the address is known.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", ErrInvalidEmail
	}

	token := uuid.NewString()
	_, err := s.storage.CreateResetToken(ctx, core.PasswordResetToken{
		Email:     email,
		Token:     token,
		ExpiresAt: s.clock.Now().Add(s.ttl),
	})
	if err != nil {
		return "", fmt.Errorf("store reset token: %w", err)
	}

	slog.InfoContext(ctx, "Password reset token issued",
		"email", email,
		"expires_in", s.ttl)
	return token, nil
}

// ValidateToken checks a token without consuming it and returns the address
// it was issued for.
func (s *PasswordResetService) ValidateToken(ctx context.Context, token string) (string, error) {
	t, err := s.lookup(ctx, token)
	if err != nil {
		return "", err
	}
	return t.Email, nil
}

// ConsumeToken validates and burns a token. After it returns, the external
// auth provider may apply the new credential.
func (s *PasswordResetService) ConsumeToken(ctx context.Context, token string) (string, error) {
	t, err := s.lookup(ctx, token)
	if err != nil {
		return "", err
	}
	if err := s.storage.MarkResetTokenUsed(ctx, t.ID, s.clock.Now()); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrTokenUsed
		}
		return "", fmt.Errorf("consume reset token: %w", err)
	}
	return t.Email, nil
}

func (s *PasswordResetService) lookup(ctx context.Context, token string) (core.PasswordResetToken, error) {
	t, err := s.storage.GetResetToken(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return core.PasswordResetToken{}, ErrTokenInvalid
	}
	if err != nil {
		return core.PasswordResetToken{}, fmt.Errorf("lookup reset token: %w", err)
	}
	if t.Used {
		return core.PasswordResetToken{}, ErrTokenUsed
	}
	if t.ExpiresAt.Before(s.clock.Now()) {
		return core.PasswordResetToken{}, ErrTokenExpired
	}
	return t, nil
}
