package models

import "time"

type BankAccount struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	BankID        int64      `json:"bank_id"`
	AccountType   string     `json:"account_type"`
	AccountName   string     `json:"account_name"`
	AccountNumber string     `json:"account_number"`
	Agency        *string    `json:"agency"`
	Balance       string     `json:"balance"`
	CurrencyCode  string     `json:"currency_code"`
	AccessToken   *string    `json:"-"`
	RefreshToken  *string    `json:"-"`
	TokenExpiry   *time.Time `json:"-"`
	IsActive      bool       `json:"is_active"`
	LastSyncedAt  *time.Time `json:"last_synced_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

// TokenUpdate is the full replacement token set written after a refresh.
type TokenUpdate struct {
	AccessToken  string
	RefreshToken string
	TokenExpiry  *time.Time
}
