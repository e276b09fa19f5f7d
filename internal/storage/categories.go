package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/weltonoliveiral/domusfinance/internal/core"
)

// ListCategories returns a user's categories, seeding the default set first
// when the user has none yet.
func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	cats, err := r.queryCategories(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cats) > 0 {
		return cats, nil
	}

	for _, c := range core.DefaultCategories {
		c.UserID = userID
		if _, err := r.CreateCategory(ctx, c); err != nil {
			return nil, fmt.Errorf("seed default category %q: %w", c.Name, err)
		}
	}
	return r.queryCategories(ctx, userID)
}

func (r *SQLiteRepository) queryCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, icon, color, is_default
		FROM categories WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, userID, id string) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, icon, color, is_default
		FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	return scanCategory(row)
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.ID = newID()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, icon, color, is_default)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Icon, c.Color, boolToInt(c.IsDefault))
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, icon = ?, color = ? WHERE id = ? AND user_id = ?`,
		c.Name, c.Icon, c.Color, c.ID, c.UserID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res)
}

func scanCategory(row rowScanner) (core.Category, error) {
	var c core.Category
	var isDefault int
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.Color, &isDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("scan category: %w", err)
	}
	c.IsDefault = isDefault != 0
	return c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
