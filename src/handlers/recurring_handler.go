package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tarefo-server/src/bank"
	sqlstore "tarefo-server/src/db/sql"
	"tarefo-server/src/models"
	"tarefo-server/src/recurring"
)

func GetRecurringTransactions(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		recs, err := store.RecurringTransactionsByUserID(r.Context(), userID)
		if err != nil {
			logger.Error("listing recurring transactions failed", zap.Int64("user_id", userID), zap.Error(err))
			http.Error(w, "failed to list recurring transactions", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(recs)
	}
}

type recurringRequest struct {
	BankAccountID *int64  `json:"bank_account_id"`
	Title         string  `json:"title"`
	Description   *string `json:"description"`
	Amount        string  `json:"amount"`
	Frequency     string  `json:"frequency"`
	StartDate     string  `json:"start_date"`
	EndDate       *string `json:"end_date"`
	DayOfMonth    *int    `json:"day_of_month"`
	DayOfWeek     *int    `json:"day_of_week"`
	Category      *string `json:"category"`
	Payee         *string `json:"payee"`
}

func CreateRecurringTransaction(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		var req recurringRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if req.Title == "" || req.Amount == "" {
			http.Error(w, "title and amount are required", http.StatusBadRequest)
			return
		}
		if !recurring.ValidFrequency(req.Frequency) {
			http.Error(w, "invalid frequency", http.StatusBadRequest)
			return
		}
		startDate, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			http.Error(w, "invalid start_date", http.StatusBadRequest)
			return
		}
		var endDate *time.Time
		if req.EndDate != nil {
			parsed, err := time.Parse("2006-01-02", *req.EndDate)
			if err != nil {
				http.Error(w, "invalid end_date", http.StatusBadRequest)
				return
			}
			endDate = &parsed
		}
		if req.BankAccountID != nil {
			if ownedAccount(w, r, store, logger, *req.BankAccountID) == nil {
				return
			}
		}

		rec := &models.RecurringTransaction{
			UserID:        userID,
			BankAccountID: req.BankAccountID,
			Title:         req.Title,
			Description:   req.Description,
			Amount:        req.Amount,
			Frequency:     req.Frequency,
			StartDate:     startDate,
			EndDate:       endDate,
			DayOfMonth:    req.DayOfMonth,
			DayOfWeek:     req.DayOfWeek,
			Category:      req.Category,
			Payee:         req.Payee,
			NextOccurrence: recurring.NextOccurrence(req.Frequency, startDate, time.Now()),
		}

		created, err := store.CreateRecurringTransaction(r.Context(), rec)
		if err != nil {
			logger.Error("creating recurring transaction failed", zap.Int64("user_id", userID), zap.Error(err))
			http.Error(w, "failed to create recurring transaction", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	}
}

func UpdateRecurringTransaction(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		id, err := strconv.ParseInt(chi.URLParam(r, "recurring_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid recurring id", http.StatusBadRequest)
			return
		}

		rec, err := store.GetRecurringTransaction(r.Context(), id)
		if err != nil {
			if bank.IsNotFound(err) {
				http.Error(w, "recurring transaction not found", http.StatusNotFound)
				return
			}
			logger.Error("loading recurring transaction failed", zap.Int64("recurring_id", id), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if rec.UserID != userID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req recurringRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		scheduleChanged := false
		if req.Title != "" {
			rec.Title = req.Title
		}
		if req.Amount != "" {
			rec.Amount = req.Amount
		}
		if req.Frequency != "" {
			if !recurring.ValidFrequency(req.Frequency) {
				http.Error(w, "invalid frequency", http.StatusBadRequest)
				return
			}
			if req.Frequency != rec.Frequency {
				rec.Frequency = req.Frequency
				scheduleChanged = true
			}
		}
		if req.StartDate != "" {
			startDate, err := time.Parse("2006-01-02", req.StartDate)
			if err != nil {
				http.Error(w, "invalid start_date", http.StatusBadRequest)
				return
			}
			if !startDate.Equal(rec.StartDate) {
				rec.StartDate = startDate
				scheduleChanged = true
			}
		}
		if req.EndDate != nil {
			parsed, err := time.Parse("2006-01-02", *req.EndDate)
			if err != nil {
				http.Error(w, "invalid end_date", http.StatusBadRequest)
				return
			}
			rec.EndDate = &parsed
		}
		if req.BankAccountID != nil {
			if ownedAccount(w, r, store, logger, *req.BankAccountID) == nil {
				return
			}
			rec.BankAccountID = req.BankAccountID
		}
		if req.Description != nil {
			rec.Description = req.Description
		}
		if req.Category != nil {
			rec.Category = req.Category
		}
		if req.Payee != nil {
			rec.Payee = req.Payee
		}
		if req.DayOfMonth != nil {
			rec.DayOfMonth = req.DayOfMonth
		}
		if req.DayOfWeek != nil {
			rec.DayOfWeek = req.DayOfWeek
		}

		// Frequency or start date edits reset the schedule.
		if scheduleChanged {
			rec.NextOccurrence = recurring.NextOccurrence(rec.Frequency, rec.StartDate, time.Now())
		}

		if err := store.UpdateRecurringTransaction(r.Context(), rec); err != nil {
			logger.Error("updating recurring transaction failed", zap.Int64("recurring_id", id), zap.Error(err))
			http.Error(w, "failed to update recurring transaction", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(rec)
	}
}

func DeleteRecurringTransaction(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		id, err := strconv.ParseInt(chi.URLParam(r, "recurring_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid recurring id", http.StatusBadRequest)
			return
		}

		rec, err := store.GetRecurringTransaction(r.Context(), id)
		if err != nil {
			if bank.IsNotFound(err) {
				http.Error(w, "recurring transaction not found", http.StatusNotFound)
				return
			}
			logger.Error("loading recurring transaction failed", zap.Int64("recurring_id", id), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if rec.UserID != userID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		if err := store.DeactivateRecurringTransaction(r.Context(), id); err != nil {
			logger.Error("deactivating recurring transaction failed", zap.Int64("recurring_id", id), zap.Error(err))
			http.Error(w, "failed to delete recurring transaction", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ProcessDueRecurring triggers the recurring sweep. Admin-only; normally
// invoked by an external scheduler.
func ProcessDueRecurring(processor *recurring.Processor, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		processed, err := processor.ProcessDue(r.Context())
		if err != nil {
			logger.Error("recurring sweep failed", zap.Error(err))
			http.Error(w, "failed to process recurring transactions", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int{"processed": processed})
	}
}
