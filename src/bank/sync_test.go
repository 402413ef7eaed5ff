package bank

import (
	"context"
	"testing"
	"time"

	"tarefo-server/src/models"
)

type fakeClient struct {
	info         *AccountInfo
	infoErr      error
	transactions []CanonicalTransaction
	txErr        error

	gotStart time.Time
	gotEnd   time.Time
}

func (f *fakeClient) GetAccountInfo(ctx context.Context) (*AccountInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return f.info, nil
}

func (f *fakeClient) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]CanonicalTransaction, error) {
	f.gotStart, f.gotEnd = startDate, endDate
	if f.txErr != nil {
		return nil, f.txErr
	}
	return f.transactions, nil
}

func seedSyncFixtures(store *fakeStore) {
	expiry := time.Now().Add(time.Hour)
	store.banks[1] = &models.Bank{ID: 1, Name: "Banco Teste", Code: "341", APIBaseURL: "http://bank.test", APIType: models.APITypeOpenBanking}
	store.accounts[7] = &models.BankAccount{
		ID:            7,
		UserID:        1,
		BankID:        1,
		AccountNumber: "12345-6",
		AccessToken:   strPtr("access-1"),
		RefreshToken:  strPtr("refresh-1"),
		TokenExpiry:   &expiry,
		IsActive:      true,
	}
}

func newTestSyncer(store *fakeStore, client Client) *Syncer {
	syncer := NewSyncer(SyncerConfig{Store: store})
	syncer.newClient = func(apiType string, cfg ClientConfig) (Client, error) {
		return client, nil
	}
	return syncer
}

func TestSyncAccountFullRun(t *testing.T) {
	store := newFakeStore()
	seedSyncFixtures(store)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	store.seedTransaction(7, "tx-2", day, "-10.00", "known")

	client := &fakeClient{
		info: &AccountInfo{Balance: 2500.75},
		transactions: []CanonicalTransaction{
			canonical("tx-1", day, -25.50, "a"),
			canonical("tx-2", day, -10.00, "known"),
			canonical("tx-3", day, 99.90, "b"),
		},
	}
	syncer := newTestSyncer(store, client)

	start := day.AddDate(0, 0, -5)
	end := day.AddDate(0, 0, 5)
	result, err := syncer.SyncAccount(context.Background(), 7, &start, &end)
	if err != nil {
		t.Fatalf("SyncAccount: %v", err)
	}
	if !result.Success {
		t.Errorf("success=false, reason %q", result.Reason)
	}
	if result.TransactionsSynced != 2 {
		t.Errorf("transactions_synced %d, want 2", result.TransactionsSynced)
	}
	if !result.BalanceUpdated {
		t.Error("balance_updated=false")
	}
	if got := store.balances[7]; got != "2500.75" {
		t.Errorf("stored balance %q, want 2500.75", got)
	}
	if _, ok := store.lastSynced[7]; !ok {
		t.Error("last_synced_at not updated")
	}
	if !client.gotStart.Equal(start) || !client.gotEnd.Equal(end) {
		t.Errorf("fetch window %v..%v, want %v..%v", client.gotStart, client.gotEnd, start, end)
	}
}

func TestSyncAccountDefaultWindowIsTrailingMonth(t *testing.T) {
	store := newFakeStore()
	seedSyncFixtures(store)
	client := &fakeClient{info: &AccountInfo{Balance: 1}}
	syncer := newTestSyncer(store, client)

	fixed := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	syncer.now = func() time.Time { return fixed }

	if _, err := syncer.SyncAccount(context.Background(), 7, nil, nil); err != nil {
		t.Fatalf("SyncAccount: %v", err)
	}
	if !client.gotEnd.Equal(fixed) {
		t.Errorf("window end %v, want now", client.gotEnd)
	}
	if !client.gotStart.Equal(fixed.AddDate(0, -1, 0)) {
		t.Errorf("window start %v, want one month back", client.gotStart)
	}
}

func TestSyncAccountAuthExpired(t *testing.T) {
	store := newFakeStore()
	seedSyncFixtures(store)
	expired := time.Now().Add(-time.Hour)
	store.accounts[7].TokenExpiry = &expired
	store.accounts[7].RefreshToken = nil

	client := &fakeClient{info: &AccountInfo{Balance: 1}}
	syncer := newTestSyncer(store, client)

	result, err := syncer.SyncAccount(context.Background(), 7, nil, nil)
	if err != nil {
		t.Fatalf("auth failure must fold into the result, got error %v", err)
	}
	if result.Success {
		t.Error("success=true for expired auth")
	}
	if result.Reason != "needs_reauthentication" {
		t.Errorf("reason %q, want needs_reauthentication", result.Reason)
	}
	if result.TransactionsSynced != 0 || result.BalanceUpdated {
		t.Errorf("work performed past auth gate: %+v", result)
	}
}

func TestSyncAccountBalanceFetchFails(t *testing.T) {
	store := newFakeStore()
	seedSyncFixtures(store)
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	client := &fakeClient{
		infoErr: ErrUpstreamUnavailable,
		transactions: []CanonicalTransaction{
			canonical("tx-1", day, -25.50, "a"),
			canonical("tx-2", day, 10.00, "b"),
		},
	}
	syncer := newTestSyncer(store, client)

	result, err := syncer.SyncAccount(context.Background(), 7, nil, nil)
	if err != nil {
		t.Fatalf("SyncAccount: %v", err)
	}
	if result.Success {
		t.Error("success=true with failed balance step")
	}
	// Inserted transactions survive the balance failure.
	if result.TransactionsSynced != 2 {
		t.Errorf("transactions_synced %d, want 2", result.TransactionsSynced)
	}
	if result.BalanceUpdated {
		t.Error("balance_updated=true")
	}
	if result.Reason != "upstream_unavailable" {
		t.Errorf("reason %q", result.Reason)
	}
	if got := len(store.transactions[7]); got != 2 {
		t.Errorf("store holds %d rows, want 2", got)
	}
}

func TestSyncAccountTransactionFetchFailsBalanceStillRefreshes(t *testing.T) {
	store := newFakeStore()
	seedSyncFixtures(store)

	client := &fakeClient{
		info:  &AccountInfo{Balance: 77.10},
		txErr: ErrUpstreamUnavailable,
	}
	syncer := newTestSyncer(store, client)

	result, err := syncer.SyncAccount(context.Background(), 7, nil, nil)
	if err != nil {
		t.Fatalf("SyncAccount: %v", err)
	}
	if result.Success {
		t.Error("success=true with failed transaction step")
	}
	if !result.BalanceUpdated {
		t.Error("balance step skipped after transaction failure")
	}
	if got := store.balances[7]; got != "77.10" {
		t.Errorf("stored balance %q", got)
	}
	if _, ok := store.lastSynced[7]; ok {
		t.Error("last_synced_at advanced despite failed fetch")
	}
}

func TestSyncAccountUnknownAccount(t *testing.T) {
	store := newFakeStore()
	syncer := newTestSyncer(store, &fakeClient{})

	_, err := syncer.SyncAccount(context.Background(), 404, nil, nil)
	if !IsNotFound(err) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestSyncAccountsSweepContinuesPastFailures(t *testing.T) {
	store := newFakeStore()
	seedSyncFixtures(store)

	broken := time.Now().Add(-time.Hour)
	store.accounts[8] = &models.BankAccount{
		ID:            8,
		BankID:        1,
		AccountNumber: "55555-0",
		AccessToken:   strPtr("stale"),
		TokenExpiry:   &broken,
		IsActive:      true,
	}

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	client := &fakeClient{
		info:         &AccountInfo{Balance: 1},
		transactions: []CanonicalTransaction{canonical("tx-1", day, 5, "a")},
	}
	syncer := newTestSyncer(store, client)

	outcomes := syncer.SyncAccounts(context.Background(), []int64{7, 8, 404})
	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}

	if outcomes[0].Err != nil || outcomes[0].Result == nil || !outcomes[0].Result.Success {
		t.Errorf("healthy account outcome %+v", outcomes[0])
	}
	if outcomes[1].Err != nil || outcomes[1].Result == nil || outcomes[1].Result.Success {
		t.Errorf("expired account outcome %+v", outcomes[1])
	}
	if outcomes[1].Result.Reason != "needs_reauthentication" {
		t.Errorf("expired account reason %q", outcomes[1].Result.Reason)
	}
	if !IsNotFound(outcomes[2].Err) {
		t.Errorf("missing account outcome %+v", outcomes[2])
	}
}
