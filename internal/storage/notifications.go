package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/weltonoliveiral/domusfinance/internal/core"
)

// CreateNotification inserts a notification unconditionally.
func (r *SQLiteRepository) CreateNotification(ctx context.Context, n core.Notification) (core.Notification, error) {
	n.ID = newID()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, priority, related_id, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		n.ID, n.UserID, string(n.Type), n.Title, n.Message, string(n.Priority),
		n.RelatedID, n.CreatedAt.Unix())
	if err != nil {
		return core.Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	return n, nil
}

// CreateAlertIfAbsent inserts a budget alert unless an equivalent one for the
// same (user, type, related id) exists inside the trailing window. The check
// and insert are a single conditional statement, so concurrent evaluator runs
// cannot both insert. Reports whether a row was inserted.
func (r *SQLiteRepository) CreateAlertIfAbsent(ctx context.Context, n core.Notification, window time.Duration) (bool, error) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	cutoff := n.CreatedAt.Add(-window).Unix()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, priority, related_id, is_read, created_at)
		SELECT ?, ?, ?, ?, ?, ?, ?, 0, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM notifications
			WHERE user_id = ? AND type = ? AND related_id = ? AND created_at > ?
		)`,
		newID(), n.UserID, string(n.Type), n.Title, n.Message, string(n.Priority),
		n.RelatedID, n.CreatedAt.Unix(),
		n.UserID, string(n.Type), n.RelatedID, cutoff)
	if err != nil {
		return false, fmt.Errorf("insert alert: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return inserted > 0, nil
}

// ListNotifications returns a user's notifications newest-first, capped at
// limit (50 when non-positive).
func (r *SQLiteRepository) ListNotifications(ctx context.Context, userID string, limit int) ([]core.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, title, message, priority, related_id, is_read, read_at, created_at
		FROM notifications WHERE user_id = ?
		ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []core.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// UnreadNotificationCount counts a user's unread notifications.
func (r *SQLiteRepository) UnreadNotificationCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkNotificationRead marks one notification read, recording the read time.
func (r *SQLiteRepository) MarkNotificationRead(ctx context.Context, userID, id string, readAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = 1, read_at = ? WHERE id = ? AND user_id = ?`,
		readAt.Unix(), id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return requireRow(res)
}

// MarkAllNotificationsRead marks every unread notification of a user read and
// returns how many changed.
func (r *SQLiteRepository) MarkAllNotificationsRead(ctx context.Context, userID string, readAt time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = 1, read_at = ? WHERE user_id = ? AND is_read = 0`,
		readAt.Unix(), userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return res.RowsAffected()
}

// DeleteNotification removes a notification scoped to its owner.
func (r *SQLiteRepository) DeleteNotification(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return requireRow(res)
}

// DeleteNotificationsBefore purges notifications created before the cutoff,
// across all users. Returns the number deleted.
func (r *SQLiteRepository) DeleteNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("delete old notifications: %w", err)
	}
	return res.RowsAffected()
}

func scanNotification(row rowScanner) (core.Notification, error) {
	var n core.Notification
	var typ, priority string
	var isRead int
	var readAt, createdAt int64
	err := row.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Message, &priority,
		&n.RelatedID, &isRead, &readAt, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Notification{}, ErrNotFound
	}
	if err != nil {
		return core.Notification{}, fmt.Errorf("scan notification: %w", err)
	}
	n.Type = core.NotificationType(typ)
	n.Priority = core.Priority(priority)
	n.IsRead = isRead != 0
	n.ReadAt = timeFromUnix(readAt)
	n.CreatedAt = timeFromUnix(createdAt)
	return n, nil
}
