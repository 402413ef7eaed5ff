package bank

import (
	"context"
	"time"

	"tarefo-server/src/models"
)

// Transaction types after canonicalization.
const (
	TypeDebit  = "debit"
	TypeCredit = "credit"

	StatusCompleted = "completed"
)

// AccountInfo is the normalized account snapshot both upstream formats map
// into.
type AccountInfo struct {
	AccountID     string
	AccountType   string
	AccountNumber string
	Agency        *string
	Balance       float64
	CurrencyCode  string
}

// CanonicalTransaction is the shared shape every upstream transaction format
// is normalized into before reconciliation. ID is the upstream transaction
// identifier and becomes the persisted externalId; it is empty when the
// upstream assigns none.
type CanonicalTransaction struct {
	ID          string
	Date        time.Time
	Datetime    time.Time
	Description string
	Amount      float64
	Balance     *float64
	Category    *string
	Subcategory *string
	Type        string
	Status      string
	Payee       *string
	Metadata    map[string]any
}

// Store is the persistence surface the sync engine consumes. The engine owns
// no tables; implementations live in src/db/sql.
//
// Reads of missing rows return ErrNotFound. CreateTransactions must tolerate
// concurrent inserts for the same account: the unique index on
// (bank_account_id, external_id) is the enforcement mechanism and
// reconciliation only a fast path in front of it.
type Store interface {
	GetBankAccount(ctx context.Context, id int64) (*models.BankAccount, error)
	GetBank(ctx context.Context, id int64) (*models.Bank, error)
	UpdateBankAccountTokens(ctx context.Context, id int64, tokens models.TokenUpdate) error
	TransactionsByBankAccountID(ctx context.Context, id int64, start, end *time.Time) ([]models.Transaction, error)
	CreateTransactions(ctx context.Context, records []models.InsertTransaction) (int, error)
	UpdateBankAccountBalance(ctx context.Context, id int64, balance string) error
	UpdateBankAccountLastSynced(ctx context.Context, id int64) error
}

// Client fetches account state from one upstream bank API. Two strategies
// implement it, selected once by Bank.APIType at construction.
type Client interface {
	GetAccountInfo(ctx context.Context) (*AccountInfo, error)
	GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]CanonicalTransaction, error)
}
