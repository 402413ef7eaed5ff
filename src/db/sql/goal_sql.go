package sql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"tarefo-server/src/bank"
	"tarefo-server/src/models"
)

const goalColumns = `
	id, user_id, title, description, target_amount::text, current_amount::text,
	start_date, target_date, category, status, priority, created_at
`

func scanGoal(row pgx.Row) (*models.FinancialGoal, error) {
	var goal models.FinancialGoal
	err := row.Scan(
		&goal.ID,
		&goal.UserID,
		&goal.Title,
		&goal.Description,
		&goal.TargetAmount,
		&goal.CurrentAmount,
		&goal.StartDate,
		&goal.TargetDate,
		&goal.Category,
		&goal.Status,
		&goal.Priority,
		&goal.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

func (s *Store) GetFinancialGoal(ctx context.Context, id int64) (*models.FinancialGoal, error) {
	query := `SELECT ` + goalColumns + ` FROM financial_goals WHERE id = $1`
	goal, err := scanGoal(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bank.ErrNotFound
		}
		return nil, err
	}
	return goal, nil
}

func (s *Store) FinancialGoalsByUserID(ctx context.Context, userID int64) ([]models.FinancialGoal, error) {
	query := `SELECT ` + goalColumns + ` FROM financial_goals WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []models.FinancialGoal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *goal)
	}
	return goals, rows.Err()
}

func (s *Store) CreateFinancialGoal(ctx context.Context, goal *models.FinancialGoal) (*models.FinancialGoal, error) {
	query := `
		INSERT INTO financial_goals
			(user_id, title, description, target_amount, current_amount, start_date, target_date, category, status, priority, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7, $8, $9, $10, NOW())
		RETURNING id, current_amount::text, created_at
	`
	err := s.pool.QueryRow(ctx, query,
		goal.UserID,
		goal.Title,
		goal.Description,
		goal.TargetAmount,
		goal.CurrentAmount,
		goal.StartDate,
		goal.TargetDate,
		goal.Category,
		goal.Status,
		goal.Priority,
	).Scan(&goal.ID, &goal.CurrentAmount, &goal.CreatedAt)
	if err != nil {
		return nil, err
	}
	return goal, nil
}

func (s *Store) UpdateFinancialGoal(ctx context.Context, goal *models.FinancialGoal) error {
	query := `
		UPDATE financial_goals
		SET title = $2, description = $3, target_amount = $4::numeric, current_amount = $5::numeric,
		    target_date = $6, category = $7, status = $8, priority = $9
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query,
		goal.ID,
		goal.Title,
		goal.Description,
		goal.TargetAmount,
		goal.CurrentAmount,
		goal.TargetDate,
		goal.Category,
		goal.Status,
		goal.Priority,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return bank.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteFinancialGoal(ctx context.Context, id, userID int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM financial_goals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return bank.ErrNotFound
	}
	return nil
}
