package bank

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tarefo-server/src/models"
)

// SyncResult is the structured outcome of one account sync. Errors inside
// the run are folded into Success/Reason here instead of propagating, so a
// batch sweep keeps going when one account fails.
type SyncResult struct {
	Success            bool   `json:"success"`
	TransactionsSynced int    `json:"transactions_synced"`
	BalanceUpdated     bool   `json:"balance_updated"`
	Reason             string `json:"reason,omitempty"`
}

// AccountSyncOutcome pairs an account with its sweep result.
type AccountSyncOutcome struct {
	BankAccountID int64       `json:"bank_account_id"`
	Result        *SyncResult `json:"result,omitempty"`
	Error         string      `json:"error,omitempty"`
	Err           error       `json:"-"`
}

// Syncer composes token lifecycle, upstream fetch and reconciliation into a
// per-account synchronization run.
type Syncer struct {
	store       Store
	tokens      *TokenManager
	reconciler  *Reconciler
	httpClient  *http.Client
	logger      *zap.Logger
	metrics     *Metrics
	concurrency int
	now         func() time.Time

	// newClient is swapped by tests to stub the upstream.
	newClient func(apiType string, cfg ClientConfig) (Client, error)

	mu           sync.Mutex
	accountLocks map[int64]*sync.Mutex
	breakers     map[int64]*gobreaker.CircuitBreaker
}

type SyncerConfig struct {
	Store       Store
	HTTPClient  *http.Client
	Logger      *zap.Logger
	Metrics     *Metrics
	Concurrency int
}

func NewSyncer(cfg SyncerConfig) *Syncer {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("sync")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	return &Syncer{
		store:        cfg.Store,
		tokens:       NewTokenManager(cfg.Store, httpClient, logger, cfg.Metrics),
		reconciler:   NewReconciler(cfg.Store, logger),
		httpClient:   httpClient,
		logger:       logger,
		metrics:      cfg.Metrics,
		concurrency:  concurrency,
		now:          time.Now,
		newClient:    NewClient,
		accountLocks: make(map[int64]*sync.Mutex),
		breakers:     make(map[int64]*gobreaker.CircuitBreaker),
	}
}

// SyncAccount runs one full synchronization for a bank account: token
// validation, transaction fetch + reconciliation, then balance refresh.
// Transaction and balance steps fail independently; a partial outcome is a
// valid result, not an error. The returned error is non-nil only when the
// account or its bank does not exist.
//
// Concurrent calls for the same account serialize on an in-process lock;
// concurrent reconciliation would race the externalId dedup check.
func (s *Syncer) SyncAccount(ctx context.Context, bankAccountID int64, startDate, endDate *time.Time) (*SyncResult, error) {
	lock := s.accountLock(bankAccountID)
	lock.Lock()
	defer lock.Unlock()

	logger := s.logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.Int64("bank_account_id", bankAccountID),
	)

	account, err := s.store.GetBankAccount(ctx, bankAccountID)
	if err != nil {
		return nil, fmt.Errorf("bank account %d: %w", bankAccountID, err)
	}
	bankRow, err := s.store.GetBank(ctx, account.BankID)
	if err != nil {
		return nil, fmt.Errorf("bank %d: %w", account.BankID, err)
	}

	pair, err := s.tokens.EnsureValidToken(ctx, account, bankRow)
	if err != nil {
		// Not retryable here: surface "reconnect your bank" and stop.
		result := &SyncResult{Success: false, Reason: Classify(err)}
		s.metrics.SyncCompleted(result.Reason)
		logger.Warn("sync stopped before fetch", zap.String("reason", result.Reason))
		return result, nil
	}

	client, err := s.newClient(bankRow.APIType, ClientConfig{
		BaseURL:       bankRow.APIBaseURL,
		AccountNumber: account.AccountNumber,
		AccessToken:   pair.AccessToken,
		HTTPClient:    s.httpClient,
		Breaker:       s.breaker(bankRow),
		Logger:        logger,
		Metrics:       s.metrics,
	})
	if err != nil {
		result := &SyncResult{Success: false, Reason: Classify(err)}
		s.metrics.SyncCompleted(result.Reason)
		return result, nil
	}

	// Default window: the trailing month.
	end := s.now()
	if endDate != nil {
		end = *endDate
	}
	start := end.AddDate(0, -1, 0)
	if startDate != nil {
		start = *startDate
	}

	result := &SyncResult{Success: true}

	fetched, err := client.GetTransactions(ctx, start, end)
	if err != nil {
		result.Success = false
		result.Reason = Classify(err)
		logger.Warn("transaction fetch failed", zap.String("reason", result.Reason), zap.Error(err))
	} else {
		delta, err := s.reconciler.Reconcile(ctx, bankAccountID, &start, &end, fetched)
		if err != nil {
			result.Success = false
			result.Reason = Classify(err)
			logger.Error("reconciliation failed", zap.Error(err))
		} else {
			result.TransactionsSynced = delta.Inserted
			s.metrics.TransactionsInserted(delta.Inserted)
			if err := s.store.UpdateBankAccountLastSynced(ctx, bankAccountID); err != nil {
				result.Success = false
				result.Reason = Classify(ErrPersistence)
				logger.Error("updating last_synced_at failed", zap.Error(err))
			}
		}
	}

	// Balance refresh runs regardless of the transaction step; a sync with
	// zero new transactions still refreshes the balance, and a failed fetch
	// does not roll back inserted transactions.
	info, err := client.GetAccountInfo(ctx)
	if err != nil {
		result.Success = false
		if result.Reason == "" {
			result.Reason = Classify(err)
		}
		logger.Warn("balance fetch failed", zap.String("reason", Classify(err)), zap.Error(err))
	} else {
		balance := strconv.FormatFloat(info.Balance, 'f', 2, 64)
		if err := s.store.UpdateBankAccountBalance(ctx, bankAccountID, balance); err != nil {
			result.Success = false
			if result.Reason == "" {
				result.Reason = Classify(ErrPersistence)
			}
			logger.Error("balance update failed", zap.Error(err))
		} else {
			result.BalanceUpdated = true
		}
	}

	if result.Success {
		s.metrics.SyncCompleted("ok")
	} else {
		s.metrics.SyncCompleted(result.Reason)
	}
	logger.Info("account sync finished",
		zap.Bool("success", result.Success),
		zap.Int("transactions_synced", result.TransactionsSynced),
		zap.Bool("balance_updated", result.BalanceUpdated),
	)
	return result, nil
}

// SyncAccounts sweeps the given accounts with bounded concurrency. One
// account failing never aborts the others; cancelling the context stops
// scheduling further accounts while already-running syncs finish their
// account-atomic work.
func (s *Syncer) SyncAccounts(ctx context.Context, bankAccountIDs []int64) []AccountSyncOutcome {
	outcomes := make([]AccountSyncOutcome, len(bankAccountIDs))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)

	for i, id := range bankAccountIDs {
		i, id := i, id
		if ctx.Err() != nil {
			outcomes[i] = AccountSyncOutcome{BankAccountID: id, Error: ctx.Err().Error(), Err: ctx.Err()}
			continue
		}
		group.Go(func() error {
			result, err := s.SyncAccount(ctx, id, nil, nil)
			outcome := AccountSyncOutcome{BankAccountID: id, Result: result, Err: err}
			if err != nil {
				outcome.Error = err.Error()
			}
			outcomes[i] = outcome
			return nil
		})
	}

	_ = group.Wait()
	return outcomes
}

func (s *Syncer) accountLock(bankAccountID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.accountLocks[bankAccountID]
	if !ok {
		lock = &sync.Mutex{}
		s.accountLocks[bankAccountID] = lock
	}
	return lock
}

// breaker returns the per-bank circuit breaker, creating it on first use.
// Shared across accounts of the same bank so repeated upstream failures trip
// once for the institution.
func (s *Syncer) breaker(bankRow *models.Bank) *gobreaker.CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	cb, ok := s.breakers[bankRow.ID]
	if !ok {
		cb = NewUpstreamBreaker(bankRow.Code, s.logger)
		s.breakers[bankRow.ID] = cb
	}
	return cb
}
