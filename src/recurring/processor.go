package recurring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"tarefo-server/src/models"
)

// Store is the persistence surface the processor consumes.
type Store interface {
	DueRecurringTransactions(ctx context.Context, now time.Time) ([]models.RecurringTransaction, error)
	CreateTransactions(ctx context.Context, records []models.InsertTransaction) (int, error)
	MarkRecurringProcessed(ctx context.Context, id int64, processedAt, nextOccurrence time.Time) error
	DeactivateRecurringTransaction(ctx context.Context, id int64) error
}

// Processor materializes due recurring definitions into transactions and
// advances their schedule. Triggered by a periodic sweep, not a loop of its
// own.
type Processor struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

func NewProcessor(store Store, logger *zap.Logger) *Processor {
	return &Processor{
		store:  store,
		logger: logger.Named("recurring"),
		now:    time.Now,
	}
}

// ProcessDue handles every active definition whose nextOccurrence has
// arrived: a transaction is written for definitions linked to a bank
// account, lastProcessedDate advances to the occurrence, and the next
// occurrence is computed from the processed date rather than the wall clock.
// Definitions past their end date are deactivated instead of rescheduled.
// Returns the number of definitions processed.
func (p *Processor) ProcessDue(ctx context.Context) (int, error) {
	now := p.now()
	due, err := p.store.DueRecurringTransactions(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("loading due recurring transactions: %w", err)
	}

	processed := 0
	for _, def := range due {
		if err := p.processOne(ctx, def); err != nil {
			// One bad definition must not starve the rest of the sweep.
			p.logger.Error("processing recurring transaction failed",
				zap.Int64("recurring_id", def.ID),
				zap.Error(err),
			)
			continue
		}
		processed++
	}
	return processed, nil
}

func (p *Processor) processOne(ctx context.Context, def models.RecurringTransaction) error {
	occurrence := def.NextOccurrence

	if def.BankAccountID != nil {
		record := buildOccurrenceRecord(def, occurrence)
		if _, err := p.store.CreateTransactions(ctx, []models.InsertTransaction{record}); err != nil {
			return fmt.Errorf("materializing occurrence: %w", err)
		}
	}

	next := NextOccurrence(def.Frequency, def.StartDate, occurrence)
	if def.EndDate != nil && next.After(*def.EndDate) {
		if err := p.store.DeactivateRecurringTransaction(ctx, def.ID); err != nil {
			return fmt.Errorf("deactivating exhausted definition: %w", err)
		}
		p.logger.Info("recurring transaction exhausted",
			zap.Int64("recurring_id", def.ID),
			zap.Time("end_date", *def.EndDate),
		)
		return nil
	}

	if err := p.store.MarkRecurringProcessed(ctx, def.ID, occurrence, next); err != nil {
		return fmt.Errorf("advancing schedule: %w", err)
	}
	return nil
}

func buildOccurrenceRecord(def models.RecurringTransaction, occurrence time.Time) models.InsertTransaction {
	txType := "credit"
	if strings.HasPrefix(strings.TrimSpace(def.Amount), "-") {
		txType = "debit"
	}

	recurringID := def.ID
	record := models.InsertTransaction{
		BankAccountID: *def.BankAccountID,
		Date:          occurrence,
		Datetime:      occurrence,
		Description:   def.Title,
		Amount:        def.Amount,
		Category:      def.Category,
		Payee:         def.Payee,
		Status:        "pending",
		Type:          txType,
		IsRecurring:   true,
		RecurringID:   &recurringID,
	}
	return record
}
