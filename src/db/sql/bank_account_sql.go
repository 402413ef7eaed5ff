package sql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tarefo-server/src/bank"
	"tarefo-server/src/models"
)

const bankAccountColumns = `
	id, user_id, bank_id, account_type, account_name, account_number, agency,
	balance::text, currency_code, access_token, refresh_token, token_expiry,
	is_active, last_synced_at, created_at
`

func scanBankAccount(row pgx.Row) (*models.BankAccount, error) {
	var account models.BankAccount
	err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.BankID,
		&account.AccountType,
		&account.AccountName,
		&account.AccountNumber,
		&account.Agency,
		&account.Balance,
		&account.CurrencyCode,
		&account.AccessToken,
		&account.RefreshToken,
		&account.TokenExpiry,
		&account.IsActive,
		&account.LastSyncedAt,
		&account.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Store) GetBankAccount(ctx context.Context, id int64) (*models.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE id = $1`
	account, err := scanBankAccount(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bank.ErrNotFound
		}
		return nil, fmt.Errorf("query bank account %d: %w", id, err)
	}
	return account, nil
}

func (s *Store) BankAccountsByUserID(ctx context.Context, userID int64) ([]models.BankAccount, error) {
	query := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE user_id = $1 AND is_active = true ORDER BY id`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.BankAccount
	for rows.Next() {
		account, err := scanBankAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

// ActiveBankAccountIDs returns every active linked account, for the batch
// sweep.
func (s *Store) ActiveBankAccountIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM bank_accounts WHERE is_active = true ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) CreateBankAccount(ctx context.Context, account *models.BankAccount) (*models.BankAccount, error) {
	query := `
		INSERT INTO bank_accounts
			(user_id, bank_id, account_type, account_name, account_number, agency, balance, currency_code,
			 access_token, refresh_token, token_expiry, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8, $9, $10, true, NOW())
		RETURNING id, balance::text, is_active, created_at
	`
	err := s.pool.QueryRow(ctx, query,
		account.UserID,
		account.BankID,
		account.AccountType,
		account.AccountName,
		account.AccountNumber,
		account.Agency,
		account.CurrencyCode,
		account.AccessToken,
		account.RefreshToken,
		account.TokenExpiry,
	).Scan(&account.ID, &account.Balance, &account.IsActive, &account.CreatedAt)
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *Store) UpdateBankAccountTokens(ctx context.Context, id int64, tokens models.TokenUpdate) error {
	query := `
		UPDATE bank_accounts
		SET access_token = $2, refresh_token = $3, token_expiry = $4
		WHERE id = $1
	`
	tag, err := s.pool.Exec(ctx, query, id, tokens.AccessToken, tokens.RefreshToken, tokens.TokenExpiry)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return bank.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateBankAccountBalance(ctx context.Context, id int64, balance string) error {
	query := `UPDATE bank_accounts SET balance = $2::numeric WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, id, balance)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return bank.ErrNotFound
	}
	return nil
}

func (s *Store) UpdateBankAccountLastSynced(ctx context.Context, id int64) error {
	query := `UPDATE bank_accounts SET last_synced_at = NOW() WHERE id = $1`
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return bank.ErrNotFound
	}
	return nil
}

func (s *Store) DeactivateBankAccount(ctx context.Context, id, userID int64) error {
	query := `UPDATE bank_accounts SET is_active = false WHERE id = $1 AND user_id = $2`
	tag, err := s.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return bank.ErrNotFound
	}
	return nil
}
