package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/weltonoliveiral/domusfinance/internal/core"
)

// CreateResetToken stores a freshly issued password reset token.
func (r *SQLiteRepository) CreateResetToken(ctx context.Context, t core.PasswordResetToken) (core.PasswordResetToken, error) {
	t.ID = newID()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (id, email, token, expires_at, used, used_at)
		VALUES (?, ?, ?, ?, 0, 0)`,
		t.ID, t.Email, t.Token, t.ExpiresAt.Unix())
	if err != nil {
		return core.PasswordResetToken{}, fmt.Errorf("insert reset token: %w", err)
	}
	return t, nil
}

// GetResetToken looks a token up by its value.
func (r *SQLiteRepository) GetResetToken(ctx context.Context, token string) (core.PasswordResetToken, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, token, expires_at, used, used_at
		FROM password_reset_tokens WHERE token = ?`, token)

	var t core.PasswordResetToken
	var used int
	var expiresAt, usedAt int64
	err := row.Scan(&t.ID, &t.Email, &t.Token, &expiresAt, &used, &usedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PasswordResetToken{}, ErrNotFound
	}
	if err != nil {
		return core.PasswordResetToken{}, fmt.Errorf("scan reset token: %w", err)
	}
	t.Used = used != 0
	t.ExpiresAt = timeFromUnix(expiresAt)
	t.UsedAt = timeFromUnix(usedAt)
	return t, nil
}

// MarkResetTokenUsed consumes a token so it cannot be replayed.
func (r *SQLiteRepository) MarkResetTokenUsed(ctx context.Context, id string, usedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE password_reset_tokens SET used = 1, used_at = ? WHERE id = ? AND used = 0`,
		usedAt.Unix(), id)
	if err != nil {
		return fmt.Errorf("mark reset token used: %w", err)
	}
	return requireRow(res)
}

// DeleteExpiredResetTokens purges tokens whose expiry is before now and
// returns how many were removed.
func (r *SQLiteRepository) DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE expires_at < ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete expired reset tokens: %w", err)
	}
	return res.RowsAffected()
}
