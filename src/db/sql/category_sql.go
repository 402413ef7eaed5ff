package sql

import (
	"context"

	"github.com/jackc/pgx/v5"

	"tarefo-server/src/bank"
	"tarefo-server/src/models"
)

const categoryColumns = `id, name, parent_id, type, icon, color, is_system, is_default, user_id, created_at`

func scanCategory(row pgx.Row) (*models.Category, error) {
	var cat models.Category
	err := row.Scan(
		&cat.ID,
		&cat.Name,
		&cat.ParentID,
		&cat.Type,
		&cat.Icon,
		&cat.Color,
		&cat.IsSystem,
		&cat.IsDefault,
		&cat.UserID,
		&cat.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// CategoriesForUser returns system categories plus the user's own.
func (s *Store) CategoriesForUser(ctx context.Context, userID int64) ([]models.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		WHERE is_system = true OR user_id = $1
		ORDER BY is_system DESC, name
	`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *cat)
	}
	return categories, rows.Err()
}

func (s *Store) CreateCategory(ctx context.Context, cat *models.Category) (*models.Category, error) {
	query := `
		INSERT INTO categories (name, parent_id, type, icon, color, is_system, is_default, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, false, false, $6, NOW())
		RETURNING id, is_system, is_default, created_at
	`
	err := s.pool.QueryRow(ctx, query, cat.Name, cat.ParentID, cat.Type, cat.Icon, cat.Color, cat.UserID).
		Scan(&cat.ID, &cat.IsSystem, &cat.IsDefault, &cat.CreatedAt)
	if err != nil {
		return nil, err
	}
	return cat, nil
}

// DeleteCategory removes a user category. System categories are untouchable
// through this path.
func (s *Store) DeleteCategory(ctx context.Context, id, userID int64) error {
	query := `DELETE FROM categories WHERE id = $1 AND user_id = $2 AND is_system = false`
	tag, err := s.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return bank.ErrNotFound
	}
	return nil
}
