package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"tarefo-server/src/models"
)

// Reconciler computes the insert-only delta between freshly fetched
// transactions and what the store already holds. The sync path never updates
// or deletes existing rows.
type Reconciler struct {
	store  Store
	logger *zap.Logger
}

func NewReconciler(store Store, logger *zap.Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger.Named("reconcile")}
}

// InsertDelta reports what a reconciliation run persisted.
type InsertDelta struct {
	Inserted int
	Records  []models.InsertTransaction
}

// Reconcile filters fetched transactions down to those not yet persisted for
// the account, then bulk-inserts the remainder. Dedup key is the upstream
// externalId; transactions the upstream never assigned an id are matched on
// a (date, amount, description) fingerprint instead, so repeated syncs of an
// id-less feed do not accumulate duplicates. Idempotent: a second call with
// the same fetched set inserts nothing.
func (r *Reconciler) Reconcile(ctx context.Context, bankAccountID int64, start, end *time.Time, fetched []CanonicalTransaction) (InsertDelta, error) {
	existing, err := r.store.TransactionsByBankAccountID(ctx, bankAccountID, start, end)
	if err != nil {
		return InsertDelta{}, fmt.Errorf("loading persisted transactions for account %d: %w", bankAccountID, ErrPersistence)
	}

	knownIDs := make(map[string]struct{}, len(existing))
	knownPrints := make(map[string]struct{})
	for _, tx := range existing {
		if tx.ExternalID != nil && *tx.ExternalID != "" {
			knownIDs[*tx.ExternalID] = struct{}{}
			continue
		}
		knownPrints[fingerprint(tx.Date, tx.Amount, tx.Description)] = struct{}{}
	}

	var records []models.InsertTransaction
	for _, tx := range fetched {
		if tx.ID != "" {
			if _, known := knownIDs[tx.ID]; known {
				continue
			}
			// Guard against upstreams repeating an id within one window.
			knownIDs[tx.ID] = struct{}{}
		} else {
			print := fingerprint(tx.Date, formatDecimal(tx.Amount), tx.Description)
			if _, known := knownPrints[print]; known {
				continue
			}
			knownPrints[print] = struct{}{}
		}
		records = append(records, toInsertRecord(bankAccountID, tx))
	}

	if len(records) == 0 {
		return InsertDelta{}, nil
	}

	inserted, err := r.store.CreateTransactions(ctx, records)
	if err != nil {
		return InsertDelta{}, fmt.Errorf("inserting %d transactions for account %d: %w", len(records), bankAccountID, ErrPersistence)
	}

	r.logger.Info("reconciliation inserted transactions",
		zap.Int64("bank_account_id", bankAccountID),
		zap.Int("fetched", len(fetched)),
		zap.Int("inserted", inserted),
	)
	return InsertDelta{Inserted: inserted, Records: records}, nil
}

func toInsertRecord(bankAccountID int64, tx CanonicalTransaction) models.InsertTransaction {
	record := models.InsertTransaction{
		BankAccountID: bankAccountID,
		Date:          tx.Date,
		Datetime:      tx.Datetime,
		Description:   tx.Description,
		Amount:        formatDecimal(tx.Amount),
		Category:      tx.Category,
		Subcategory:   tx.Subcategory,
		Payee:         tx.Payee,
		Status:        tx.Status,
		Type:          tx.Type,
		IsRecurring:   false,
	}
	if tx.ID != "" {
		id := tx.ID
		record.ExternalID = &id
	}
	if tx.Balance != nil {
		balance := formatDecimal(*tx.Balance)
		record.Balance = &balance
	}
	if tx.Metadata != nil {
		if raw, err := json.Marshal(tx.Metadata); err == nil {
			record.Metadata = raw
		}
	}
	return record
}

func formatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func fingerprint(date time.Time, amount, description string) string {
	return date.Format("2006-01-02") + "|" + amount + "|" + description
}
