package bank

import (
	"context"
	"sync"
	"time"

	"tarefo-server/src/models"
)

// fakeStore is an in-memory Store with per-method error injection. It
// enforces the (bank_account_id, external_id) uniqueness the real store gets
// from its index, so reconciliation tests exercise the same dedup backstop.
type fakeStore struct {
	mu sync.Mutex

	accounts     map[int64]*models.BankAccount
	banks        map[int64]*models.Bank
	transactions map[int64][]models.Transaction

	tokenUpdates map[int64][]models.TokenUpdate
	balances     map[int64]string
	lastSynced   map[int64]time.Time

	getAccountErr   error
	getBankErr      error
	listTxErr       error
	createTxErr     error
	updateTokensErr error
	balanceErr      error
	lastSyncedErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts:     make(map[int64]*models.BankAccount),
		banks:        make(map[int64]*models.Bank),
		transactions: make(map[int64][]models.Transaction),
		tokenUpdates: make(map[int64][]models.TokenUpdate),
		balances:     make(map[int64]string),
		lastSynced:   make(map[int64]time.Time),
	}
}

func (f *fakeStore) GetBankAccount(ctx context.Context, id int64) (*models.BankAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getAccountErr != nil {
		return nil, f.getAccountErr
	}
	account, ok := f.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (f *fakeStore) GetBank(ctx context.Context, id int64) (*models.Bank, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getBankErr != nil {
		return nil, f.getBankErr
	}
	bankRow, ok := f.banks[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *bankRow
	return &copied, nil
}

func (f *fakeStore) UpdateBankAccountTokens(ctx context.Context, id int64, tokens models.TokenUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateTokensErr != nil {
		return f.updateTokensErr
	}
	f.tokenUpdates[id] = append(f.tokenUpdates[id], tokens)
	if account, ok := f.accounts[id]; ok {
		access, refresh := tokens.AccessToken, tokens.RefreshToken
		account.AccessToken = &access
		account.RefreshToken = &refresh
		account.TokenExpiry = tokens.TokenExpiry
	}
	return nil
}

func (f *fakeStore) TransactionsByBankAccountID(ctx context.Context, id int64, start, end *time.Time) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listTxErr != nil {
		return nil, f.listTxErr
	}
	var out []models.Transaction
	for _, tx := range f.transactions[id] {
		if start != nil && tx.Date.Before(*start) {
			continue
		}
		if end != nil && tx.Date.After(*end) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func (f *fakeStore) CreateTransactions(ctx context.Context, records []models.InsertTransaction) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createTxErr != nil {
		return 0, f.createTxErr
	}
	inserted := 0
	for _, record := range records {
		if record.ExternalID != nil && f.hasExternalIDLocked(record.BankAccountID, *record.ExternalID) {
			continue
		}
		f.transactions[record.BankAccountID] = append(f.transactions[record.BankAccountID], models.Transaction{
			ID:            int64(len(f.transactions[record.BankAccountID]) + 1),
			BankAccountID: record.BankAccountID,
			ExternalID:    record.ExternalID,
			Date:          record.Date,
			Datetime:      record.Datetime,
			Description:   record.Description,
			Amount:        record.Amount,
			Balance:       record.Balance,
			Category:      record.Category,
			Subcategory:   record.Subcategory,
			Payee:         record.Payee,
			Status:        record.Status,
			Type:          record.Type,
			IsRecurring:   record.IsRecurring,
			RecurringID:   record.RecurringID,
			Metadata:      record.Metadata,
		})
		inserted++
	}
	return inserted, nil
}

func (f *fakeStore) UpdateBankAccountBalance(ctx context.Context, id int64, balance string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balanceErr != nil {
		return f.balanceErr
	}
	f.balances[id] = balance
	return nil
}

func (f *fakeStore) UpdateBankAccountLastSynced(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lastSyncedErr != nil {
		return f.lastSyncedErr
	}
	f.lastSynced[id] = time.Now()
	return nil
}

func (f *fakeStore) hasExternalIDLocked(accountID int64, externalID string) bool {
	for _, tx := range f.transactions[accountID] {
		if tx.ExternalID != nil && *tx.ExternalID == externalID {
			return true
		}
	}
	return false
}

func (f *fakeStore) seedTransaction(accountID int64, externalID string, date time.Time, amount, description string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx := models.Transaction{
		BankAccountID: accountID,
		Date:          date,
		Datetime:      date,
		Description:   description,
		Amount:        amount,
		Status:        StatusCompleted,
		Type:          TypeDebit,
	}
	if externalID != "" {
		tx.ExternalID = &externalID
	}
	f.transactions[accountID] = append(f.transactions[accountID], tx)
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }
