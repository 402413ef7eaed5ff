package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"tarefo-server/src/bank"
	"tarefo-server/src/models"
)

const recurringColumns = `
	id, user_id, bank_account_id, title, description, amount::text, frequency,
	start_date, end_date, day_of_month, day_of_week, category, payee,
	is_active, last_processed_date, next_occurrence, created_at
`

func scanRecurring(row pgx.Row) (*models.RecurringTransaction, error) {
	var rec models.RecurringTransaction
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.BankAccountID,
		&rec.Title,
		&rec.Description,
		&rec.Amount,
		&rec.Frequency,
		&rec.StartDate,
		&rec.EndDate,
		&rec.DayOfMonth,
		&rec.DayOfWeek,
		&rec.Category,
		&rec.Payee,
		&rec.IsActive,
		&rec.LastProcessedDate,
		&rec.NextOccurrence,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) GetRecurringTransaction(ctx context.Context, id int64) (*models.RecurringTransaction, error) {
	query := `SELECT ` + recurringColumns + ` FROM recurring_transactions WHERE id = $1`
	rec, err := scanRecurring(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bank.ErrNotFound
		}
		return nil, fmt.Errorf("query recurring transaction %d: %w", id, err)
	}
	return rec, nil
}

func (s *Store) RecurringTransactionsByUserID(ctx context.Context, userID int64) ([]models.RecurringTransaction, error) {
	query := `SELECT ` + recurringColumns + ` FROM recurring_transactions WHERE user_id = $1 AND is_active = true ORDER BY next_occurrence`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.RecurringTransaction
	for rows.Next() {
		rec, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

func (s *Store) DueRecurringTransactions(ctx context.Context, now time.Time) ([]models.RecurringTransaction, error) {
	query := `
		SELECT ` + recurringColumns + `
		FROM recurring_transactions
		WHERE is_active = true AND next_occurrence <= $1
		ORDER BY next_occurrence
	`
	rows, err := s.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []models.RecurringTransaction
	for rows.Next() {
		rec, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, rows.Err()
}

func (s *Store) CreateRecurringTransaction(ctx context.Context, rec *models.RecurringTransaction) (*models.RecurringTransaction, error) {
	query := `
		INSERT INTO recurring_transactions
			(user_id, bank_account_id, title, description, amount, frequency, start_date, end_date,
			 day_of_month, day_of_week, category, payee, is_active, next_occurrence, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10, $11, $12, true, $13, NOW())
		RETURNING id, is_active, created_at
	`
	err := s.pool.QueryRow(ctx, query,
		rec.UserID,
		rec.BankAccountID,
		rec.Title,
		rec.Description,
		rec.Amount,
		rec.Frequency,
		rec.StartDate,
		rec.EndDate,
		rec.DayOfMonth,
		rec.DayOfWeek,
		rec.Category,
		rec.Payee,
		rec.NextOccurrence,
	).Scan(&rec.ID, &rec.IsActive, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) UpdateRecurringTransaction(ctx context.Context, rec *models.RecurringTransaction) error {
	query := `
		UPDATE recurring_transactions
		SET bank_account_id = $2, title = $3, description = $4, amount = $5::numeric,
		    frequency = $6, start_date = $7, end_date = $8, day_of_month = $9,
		    day_of_week = $10, category = $11, payee = $12, next_occurrence = $13
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query,
		rec.ID,
		rec.BankAccountID,
		rec.Title,
		rec.Description,
		rec.Amount,
		rec.Frequency,
		rec.StartDate,
		rec.EndDate,
		rec.DayOfMonth,
		rec.DayOfWeek,
		rec.Category,
		rec.Payee,
		rec.NextOccurrence,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return bank.ErrNotFound
	}
	return nil
}

func (s *Store) MarkRecurringProcessed(ctx context.Context, id int64, processedAt, nextOccurrence time.Time) error {
	query := `
		UPDATE recurring_transactions
		SET last_processed_date = $2, next_occurrence = $3
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query, id, processedAt, nextOccurrence)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return bank.ErrNotFound
	}
	return nil
}

func (s *Store) DeactivateRecurringTransaction(ctx context.Context, id int64) error {
	query := `UPDATE recurring_transactions SET is_active = false WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return bank.ErrNotFound
	}
	return nil
}
