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

const transactionColumns = `
	id, bank_account_id, external_id, date, datetime, description,
	amount::text, balance::text, category, subcategory, payee, status, type,
	notes, is_recurring, recurring_id, metadata, created_at
`

func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var tx models.Transaction
	err := row.Scan(
		&tx.ID,
		&tx.BankAccountID,
		&tx.ExternalID,
		&tx.Date,
		&tx.Datetime,
		&tx.Description,
		&tx.Amount,
		&tx.Balance,
		&tx.Category,
		&tx.Subcategory,
		&tx.Payee,
		&tx.Status,
		&tx.Type,
		&tx.Notes,
		&tx.IsRecurring,
		&tx.RecurringID,
		&tx.Metadata,
		&tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	tx, err := scanTransaction(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bank.ErrNotFound
		}
		return nil, fmt.Errorf("query transaction %d: %w", id, err)
	}
	return tx, nil
}

func (s *Store) TransactionsByBankAccountID(ctx context.Context, id int64, start, end *time.Time) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE bank_account_id = $1
		  AND ($2::timestamptz IS NULL OR date >= $2)
		  AND ($3::timestamptz IS NULL OR date <= $3)
		ORDER BY date DESC, id DESC
	`
	rows, err := s.pool.Query(ctx, query, id, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *tx)
	}
	return transactions, rows.Err()
}

func (s *Store) TransactionsByUserID(ctx context.Context, userID int64, start, end *time.Time, limit, offset int) ([]models.Transaction, error) {
	query := `
		SELECT
			t.id, t.bank_account_id, t.external_id, t.date, t.datetime, t.description,
			t.amount::text, t.balance::text, t.category, t.subcategory, t.payee, t.status, t.type,
			t.notes, t.is_recurring, t.recurring_id, t.metadata, t.created_at
		FROM transactions t
		JOIN bank_accounts a ON t.bank_account_id = a.id
		WHERE a.user_id = $1
		  AND ($2::timestamptz IS NULL OR t.date >= $2)
		  AND ($3::timestamptz IS NULL OR t.date <= $3)
		ORDER BY t.date DESC, t.id DESC
		LIMIT $4 OFFSET $5
	`
	rows, err := s.pool.Query(ctx, query, userID, start, end, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *tx)
	}
	return transactions, rows.Err()
}

// CreateTransactions bulk-inserts reconciled rows. The unique index on
// (bank_account_id, external_id) plus ON CONFLICT DO NOTHING makes the
// insert safe against a concurrent sync of the same account; the returned
// count reflects rows actually written.
func (s *Store) CreateTransactions(ctx context.Context, records []models.InsertTransaction) (int, error) {
	query := `
		INSERT INTO transactions
			(bank_account_id, external_id, date, datetime, description, amount, balance,
			 category, subcategory, payee, status, type, notes, is_recurring, recurring_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW())
		ON CONFLICT (bank_account_id, external_id) DO NOTHING
	`
	inserted := 0
	for _, record := range records {
		tag, err := s.pool.Exec(ctx, query,
			record.BankAccountID,
			record.ExternalID,
			record.Date,
			record.Datetime,
			record.Description,
			record.Amount,
			record.Balance,
			record.Category,
			record.Subcategory,
			record.Payee,
			record.Status,
			record.Type,
			record.Notes,
			record.IsRecurring,
			record.RecurringID,
			record.Metadata,
		)
		if err != nil {
			return inserted, err
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (s *Store) CreateTransaction(ctx context.Context, record models.InsertTransaction) (*models.Transaction, error) {
	query := `
		INSERT INTO transactions
			(bank_account_id, external_id, date, datetime, description, amount, balance,
			 category, subcategory, payee, status, type, notes, is_recurring, recurring_id, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW())
		RETURNING ` + transactionColumns + `
	`
	return scanTransaction(s.pool.QueryRow(ctx, query,
		record.BankAccountID,
		record.ExternalID,
		record.Date,
		record.Datetime,
		record.Description,
		record.Amount,
		record.Balance,
		record.Category,
		record.Subcategory,
		record.Payee,
		record.Status,
		record.Type,
		record.Notes,
		record.IsRecurring,
		record.RecurringID,
		record.Metadata,
	))
}

// UpdateTransaction applies user edits. The sync path never calls this.
func (s *Store) UpdateTransaction(ctx context.Context, id int64, description, category, subcategory, notes *string) (*models.Transaction, error) {
	query := `
		UPDATE transactions
		SET description = COALESCE($2, description),
		    category = COALESCE($3, category),
		    subcategory = COALESCE($4, subcategory),
		    notes = COALESCE($5, notes)
		WHERE id = $1
		RETURNING ` + transactionColumns + `
	`
	tx, err := scanTransaction(s.pool.QueryRow(ctx, query, id, description, category, subcategory, notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bank.ErrNotFound
		}
		return nil, err
	}
	return tx, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return bank.ErrNotFound
	}
	return nil
}
