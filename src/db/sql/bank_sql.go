package sql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tarefo-server/src/bank"
	"tarefo-server/src/models"
)

func (s *Store) GetBank(ctx context.Context, id int64) (*models.Bank, error) {
	if cached, ok := s.banks.Get(id); ok {
		return cached, nil
	}

	query := `
		SELECT id, name, code, api_base_url, api_type, icon_url, is_active, created_at
		FROM banks
		WHERE id = $1
	`
	var row models.Bank
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&row.ID,
		&row.Name,
		&row.Code,
		&row.APIBaseURL,
		&row.APIType,
		&row.IconURL,
		&row.IsActive,
		&row.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bank.ErrNotFound
		}
		return nil, fmt.Errorf("query bank %d: %w", id, err)
	}

	s.banks.Set(&row)
	return &row, nil
}

func (s *Store) AllBanks(ctx context.Context) ([]models.Bank, error) {
	query := `
		SELECT id, name, code, api_base_url, api_type, icon_url, is_active, created_at
		FROM banks
		WHERE is_active = true
		ORDER BY name
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var banks []models.Bank
	for rows.Next() {
		var row models.Bank
		err := rows.Scan(&row.ID, &row.Name, &row.Code, &row.APIBaseURL, &row.APIType, &row.IconURL, &row.IsActive, &row.CreatedAt)
		if err != nil {
			return nil, err
		}
		banks = append(banks, row)
	}
	return banks, rows.Err()
}

func (s *Store) CreateBank(ctx context.Context, row *models.Bank) (*models.Bank, error) {
	query := `
		INSERT INTO banks (name, code, api_base_url, api_type, icon_url, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, true, NOW())
		RETURNING id, is_active, created_at
	`
	err := s.pool.QueryRow(ctx, query, row.Name, row.Code, row.APIBaseURL, row.APIType, row.IconURL).
		Scan(&row.ID, &row.IsActive, &row.CreatedAt)
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *Store) UpdateBank(ctx context.Context, row *models.Bank) error {
	query := `
		UPDATE banks
		SET name = $2, code = $3, api_base_url = $4, api_type = $5, icon_url = $6, is_active = $7
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query, row.ID, row.Name, row.Code, row.APIBaseURL, row.APIType, row.IconURL, row.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return bank.ErrNotFound
	}
	s.banks.Invalidate(row.ID)
	return nil
}

func (s *Store) DeleteBank(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM banks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return bank.ErrNotFound
	}
	s.banks.Invalidate(id)
	return nil
}
