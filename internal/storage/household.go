package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/weltonoliveiral/domusfinance/internal/core"
)

// Savings goals.

func (r *SQLiteRepository) CreateSavingsGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	g.ID = newID()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO savings_goals (id, user_id, name, target_amount_cents, current_amount_cents, target_date, description, is_completed, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents,
		g.TargetDate, g.Description, boolToInt(g.IsCompleted), unixOrZero(g.CompletedAt))
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("insert savings goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) GetSavingsGoal(ctx context.Context, userID, id string) (core.SavingsGoal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, target_amount_cents, current_amount_cents, target_date, description, is_completed, completed_at
		FROM savings_goals WHERE id = ? AND user_id = ?`, id, userID)
	return scanSavingsGoal(row)
}

func (r *SQLiteRepository) ListSavingsGoals(ctx context.Context, userID string) ([]core.SavingsGoal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, target_amount_cents, current_amount_cents, target_date, description, is_completed, completed_at
		FROM savings_goals WHERE user_id = ? ORDER BY target_date`, userID)
	if err != nil {
		return nil, fmt.Errorf("list savings goals: %w", err)
	}
	defer rows.Close()

	var out []core.SavingsGoal
	for rows.Next() {
		g, err := scanSavingsGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// UpdateSavingsGoalAmount adjusts the saved amount by delta cents, clamped at
// zero, and flips the completion flag when the target is reached.
func (r *SQLiteRepository) UpdateSavingsGoalAmount(ctx context.Context, userID, id string, delta core.Money, now time.Time) (core.SavingsGoal, error) {
	g, err := r.GetSavingsGoal(ctx, userID, id)
	if err != nil {
		return core.SavingsGoal{}, err
	}

	g.CurrentAmount.Cents += delta.Cents
	if g.CurrentAmount.Cents < 0 {
		g.CurrentAmount.Cents = 0
	}
	if !g.IsCompleted && g.CurrentAmount.Cents >= g.TargetAmount.Cents {
		g.IsCompleted = true
		g.CompletedAt = now
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE savings_goals SET current_amount_cents = ?, is_completed = ?, completed_at = ?
		WHERE id = ? AND user_id = ?`,
		g.CurrentAmount.Cents, boolToInt(g.IsCompleted), unixOrZero(g.CompletedAt), id, userID)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("update savings goal amount: %w", err)
	}
	if err := requireRow(res); err != nil {
		return core.SavingsGoal{}, err
	}
	return g, nil
}

func (r *SQLiteRepository) DeleteSavingsGoal(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM savings_goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete savings goal: %w", err)
	}
	return requireRow(res)
}

func scanSavingsGoal(row rowScanner) (core.SavingsGoal, error) {
	var g core.SavingsGoal
	var isCompleted int
	var completedAt int64
	err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount.Cents, &g.CurrentAmount.Cents,
		&g.TargetDate, &g.Description, &isCompleted, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavingsGoal{}, ErrNotFound
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("scan savings goal: %w", err)
	}
	g.IsCompleted = isCompleted != 0
	g.CompletedAt = timeFromUnix(completedAt)
	return g, nil
}

// Shopping lists. Items are stored as a JSON column; the list is always
// read and written whole.

func (r *SQLiteRepository) CreateShoppingList(ctx context.Context, l core.ShoppingList) (core.ShoppingList, error) {
	l.ID = newID()
	items, err := marshalItems(l.Items)
	if err != nil {
		return core.ShoppingList{}, err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO shopping_lists (id, user_id, name, items, is_completed, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.Name, items, boolToInt(l.IsCompleted), unixOrZero(l.CompletedAt))
	if err != nil {
		return core.ShoppingList{}, fmt.Errorf("insert shopping list: %w", err)
	}
	return l, nil
}

func (r *SQLiteRepository) ListShoppingLists(ctx context.Context, userID string) ([]core.ShoppingList, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, items, is_completed, completed_at
		FROM shopping_lists WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list shopping lists: %w", err)
	}
	defer rows.Close()

	var out []core.ShoppingList
	for rows.Next() {
		l, err := scanShoppingList(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetShoppingList(ctx context.Context, userID, id string) (core.ShoppingList, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, items, is_completed, completed_at
		FROM shopping_lists WHERE id = ? AND user_id = ?`, id, userID)
	return scanShoppingList(row)
}

func (r *SQLiteRepository) UpdateShoppingList(ctx context.Context, l core.ShoppingList) error {
	items, err := marshalItems(l.Items)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE shopping_lists SET name = ?, items = ?, is_completed = ?, completed_at = ?
		WHERE id = ? AND user_id = ?`,
		l.Name, items, boolToInt(l.IsCompleted), unixOrZero(l.CompletedAt), l.ID, l.UserID)
	if err != nil {
		return fmt.Errorf("update shopping list: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteShoppingList(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM shopping_lists WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete shopping list: %w", err)
	}
	return requireRow(res)
}

func marshalItems(items []core.ShoppingItem) (string, error) {
	if items == nil {
		items = []core.ShoppingItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshal shopping items: %w", err)
	}
	return string(b), nil
}

func scanShoppingList(row rowScanner) (core.ShoppingList, error) {
	var l core.ShoppingList
	var items string
	var isCompleted int
	var completedAt int64
	err := row.Scan(&l.ID, &l.UserID, &l.Name, &items, &isCompleted, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ShoppingList{}, ErrNotFound
	}
	if err != nil {
		return core.ShoppingList{}, fmt.Errorf("scan shopping list: %w", err)
	}
	if err := json.Unmarshal([]byte(items), &l.Items); err != nil {
		return core.ShoppingList{}, fmt.Errorf("unmarshal shopping items: %w", err)
	}
	l.IsCompleted = isCompleted != 0
	l.CompletedAt = timeFromUnix(completedAt)
	return l, nil
}

// Household members.

func (r *SQLiteRepository) CreateHouseholdMember(ctx context.Context, m core.HouseholdMember) (core.HouseholdMember, error) {
	m.ID = newID()
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO household_members (id, user_id, name, email, role, is_active, joined_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.UserID, m.Name, m.Email, m.Role, boolToInt(m.IsActive), m.JoinedAt.Unix())
	if err != nil {
		return core.HouseholdMember{}, fmt.Errorf("insert household member: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) ListHouseholdMembers(ctx context.Context, userID string) ([]core.HouseholdMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, email, role, is_active, joined_at
		FROM household_members WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list household members: %w", err)
	}
	defer rows.Close()

	var out []core.HouseholdMember
	for rows.Next() {
		var m core.HouseholdMember
		var isActive int
		var joinedAt int64
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Email, &m.Role, &isActive, &joinedAt); err != nil {
			return nil, fmt.Errorf("scan household member: %w", err)
		}
		m.IsActive = isActive != 0
		m.JoinedAt = timeFromUnix(joinedAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetHouseholdMember(ctx context.Context, userID, id string) (core.HouseholdMember, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, email, role, is_active, joined_at
		FROM household_members WHERE id = ? AND user_id = ?`, id, userID)

	var m core.HouseholdMember
	var isActive int
	var joinedAt int64
	err := row.Scan(&m.ID, &m.UserID, &m.Name, &m.Email, &m.Role, &isActive, &joinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.HouseholdMember{}, ErrNotFound
	}
	if err != nil {
		return core.HouseholdMember{}, fmt.Errorf("scan household member: %w", err)
	}
	m.IsActive = isActive != 0
	m.JoinedAt = timeFromUnix(joinedAt)
	return m, nil
}

func (r *SQLiteRepository) UpdateHouseholdMember(ctx context.Context, m core.HouseholdMember) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE household_members SET name = ?, email = ?, role = ?, is_active = ?
		WHERE id = ? AND user_id = ?`,
		m.Name, m.Email, m.Role, boolToInt(m.IsActive), m.ID, m.UserID)
	if err != nil {
		return fmt.Errorf("update household member: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteHouseholdMember(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM household_members WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete household member: %w", err)
	}
	return requireRow(res)
}

// User settings.

// GetUserSettings returns stored settings or the defaults when the user has
// never saved any.
func (r *SQLiteRepository) GetUserSettings(ctx context.Context, userID string) (core.UserSettings, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, currency, language, theme, notifications
		FROM user_settings WHERE user_id = ?`, userID)

	var s core.UserSettings
	var prefs string
	err := row.Scan(&s.UserID, &s.Currency, &s.Language, &s.Theme, &prefs)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DefaultSettings(userID), nil
	}
	if err != nil {
		return core.UserSettings{}, fmt.Errorf("scan user settings: %w", err)
	}
	if err := json.Unmarshal([]byte(prefs), &s.Notifications); err != nil {
		return core.UserSettings{}, fmt.Errorf("unmarshal notification prefs: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) UpsertUserSettings(ctx context.Context, s core.UserSettings) error {
	prefs, err := json.Marshal(s.Notifications)
	if err != nil {
		return fmt.Errorf("marshal notification prefs: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, currency, language, theme, notifications)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			currency = excluded.currency,
			language = excluded.language,
			theme = excluded.theme,
			notifications = excluded.notifications`,
		s.UserID, s.Currency, s.Language, s.Theme, string(prefs))
	if err != nil {
		return fmt.Errorf("upsert user settings: %w", err)
	}
	return nil
}
