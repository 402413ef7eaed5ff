package models

import (
	"encoding/json"
	"time"
)

type Transaction struct {
	ID            int64           `json:"id"`
	BankAccountID int64           `json:"bank_account_id"`
	ExternalID    *string         `json:"external_id"`
	Date          time.Time       `json:"date"`
	Datetime      time.Time       `json:"datetime"`
	Description   string          `json:"description"`
	Amount        string          `json:"amount"`
	Balance       *string         `json:"balance"`
	Category      *string         `json:"category"`
	Subcategory   *string         `json:"subcategory"`
	Payee         *string         `json:"payee"`
	Status        string          `json:"status"`
	Type          string          `json:"type"`
	Notes         *string         `json:"notes"`
	IsRecurring   bool            `json:"is_recurring"`
	RecurringID   *int64          `json:"recurring_id"`
	Metadata      json.RawMessage `json:"metadata"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InsertTransaction is a transaction row ready for persistence. Amounts and
// balances are string-encoded decimals matching the numeric columns.
type InsertTransaction struct {
	BankAccountID int64           `json:"bank_account_id"`
	ExternalID    *string         `json:"external_id"`
	Date          time.Time       `json:"date"`
	Datetime      time.Time       `json:"datetime"`
	Description   string          `json:"description"`
	Amount        string          `json:"amount"`
	Balance       *string         `json:"balance"`
	Category      *string         `json:"category"`
	Subcategory   *string         `json:"subcategory"`
	Payee         *string         `json:"payee"`
	Status        string          `json:"status"`
	Type          string          `json:"type"`
	Notes         *string         `json:"notes"`
	IsRecurring   bool            `json:"is_recurring"`
	RecurringID   *int64          `json:"recurring_id"`
	Metadata      json.RawMessage `json:"metadata"`
}
