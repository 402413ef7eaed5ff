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
	"tarefo-server/src/util"
)

func GetAccountTransactions(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "account_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid account id", http.StatusBadRequest)
			return
		}
		if ownedAccount(w, r, store, logger, id) == nil {
			return
		}

		startDate, err := util.ParseDateParam(r.URL.Query().Get("startDate"))
		if err != nil {
			http.Error(w, "invalid startDate", http.StatusBadRequest)
			return
		}
		endDate, err := util.ParseDateParam(r.URL.Query().Get("endDate"))
		if err != nil {
			http.Error(w, "invalid endDate", http.StatusBadRequest)
			return
		}

		transactions, err := store.TransactionsByBankAccountID(r.Context(), id, startDate, endDate)
		if err != nil {
			logger.Error("listing account transactions failed", zap.Int64("bank_account_id", id), zap.Error(err))
			http.Error(w, "failed to list transactions", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(transactions)
	}
}

func GetTransactions(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
				limit = n
			}
		}
		offset := 0
		if v := r.URL.Query().Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		startDate, err := util.ParseDateParam(r.URL.Query().Get("startDate"))
		if err != nil {
			http.Error(w, "invalid startDate", http.StatusBadRequest)
			return
		}
		endDate, err := util.ParseDateParam(r.URL.Query().Get("endDate"))
		if err != nil {
			http.Error(w, "invalid endDate", http.StatusBadRequest)
			return
		}

		transactions, err := store.TransactionsByUserID(r.Context(), userID, startDate, endDate, limit, offset)
		if err != nil {
			logger.Error("listing transactions failed", zap.Int64("user_id", userID), zap.Error(err))
			http.Error(w, "failed to list transactions", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(transactions)
	}
}

type createTransactionRequest struct {
	BankAccountID int64   `json:"bank_account_id"`
	Date          string  `json:"date"`
	Description   string  `json:"description"`
	Amount        string  `json:"amount"`
	Category      *string `json:"category"`
	Subcategory   *string `json:"subcategory"`
	Payee         *string `json:"payee"`
	Notes         *string `json:"notes"`
}

// CreateTransaction records a manual entry. This is the user-edit path; rows
// created here carry no external id and are never touched by sync.
func CreateTransaction(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if ownedAccount(w, r, store, logger, req.BankAccountID) == nil {
			return
		}

		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		amount, err := strconv.ParseFloat(req.Amount, 64)
		if err != nil {
			http.Error(w, "invalid amount", http.StatusBadRequest)
			return
		}

		txType := "credit"
		if amount < 0 {
			txType = "debit"
		}

		created, err := store.CreateTransaction(r.Context(), models.InsertTransaction{
			BankAccountID: req.BankAccountID,
			Date:          date,
			Datetime:      date,
			Description:   req.Description,
			Amount:        req.Amount,
			Category:      req.Category,
			Subcategory:   req.Subcategory,
			Payee:         req.Payee,
			Notes:         req.Notes,
			Status:        "completed",
			Type:          txType,
		})
		if err != nil {
			logger.Error("creating transaction failed", zap.Int64("bank_account_id", req.BankAccountID), zap.Error(err))
			http.Error(w, "failed to create transaction", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	}
}

type updateTransactionRequest struct {
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Subcategory *string `json:"subcategory"`
	Notes       *string `json:"notes"`
}

func UpdateTransaction(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "transaction_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid transaction id", http.StatusBadRequest)
			return
		}

		tx, err := store.GetTransaction(r.Context(), id)
		if err != nil {
			if bank.IsNotFound(err) {
				http.Error(w, "transaction not found", http.StatusNotFound)
				return
			}
			logger.Error("loading transaction failed", zap.Int64("transaction_id", id), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if ownedAccount(w, r, store, logger, tx.BankAccountID) == nil {
			return
		}

		var req updateTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		updated, err := store.UpdateTransaction(r.Context(), id, req.Description, req.Category, req.Subcategory, req.Notes)
		if err != nil {
			logger.Error("updating transaction failed", zap.Int64("transaction_id", id), zap.Error(err))
			http.Error(w, "failed to update transaction", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(updated)
	}
}

func DeleteTransaction(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "transaction_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid transaction id", http.StatusBadRequest)
			return
		}

		tx, err := store.GetTransaction(r.Context(), id)
		if err != nil {
			if bank.IsNotFound(err) {
				http.Error(w, "transaction not found", http.StatusNotFound)
				return
			}
			logger.Error("loading transaction failed", zap.Int64("transaction_id", id), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if ownedAccount(w, r, store, logger, tx.BankAccountID) == nil {
			return
		}

		if err := store.DeleteTransaction(r.Context(), id); err != nil {
			logger.Error("deleting transaction failed", zap.Int64("transaction_id", id), zap.Error(err))
			http.Error(w, "failed to delete transaction", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
