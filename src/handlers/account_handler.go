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

// ownedAccount loads an account and checks it belongs to the requesting
// user. Writes the response on failure and returns nil.
func ownedAccount(w http.ResponseWriter, r *http.Request, store *sqlstore.Store, logger *zap.Logger, accountID int64) *models.BankAccount {
	userID := r.Context().Value("user_id").(int64)
	account, err := store.GetBankAccount(r.Context(), accountID)
	if err != nil {
		if bank.IsNotFound(err) {
			http.Error(w, "bank account not found", http.StatusNotFound)
			return nil
		}
		logger.Error("loading bank account failed", zap.Int64("bank_account_id", accountID), zap.Error(err))
		http.Error(w, "failed to load bank account", http.StatusInternalServerError)
		return nil
	}
	if account.UserID != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return nil
	}
	return account
}

func GetAccounts(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		accounts, err := store.BankAccountsByUserID(r.Context(), userID)
		if err != nil {
			logger.Error("listing bank accounts failed", zap.Int64("user_id", userID), zap.Error(err))
			http.Error(w, "failed to list bank accounts", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(accounts)
	}
}

func GetAccount(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "account_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid account id", http.StatusBadRequest)
			return
		}
		account := ownedAccount(w, r, store, logger, id)
		if account == nil {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(account)
	}
}

type createAccountRequest struct {
	BankID        int64   `json:"bank_id"`
	AccountType   string  `json:"account_type"`
	AccountName   string  `json:"account_name"`
	AccountNumber string  `json:"account_number"`
	Agency        *string `json:"agency"`
	CurrencyCode  string  `json:"currency_code"`
	AccessToken   *string `json:"access_token"`
	RefreshToken  *string `json:"refresh_token"`
	TokenExpiry   *string `json:"token_expiry"`
}

func CreateAccount(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		var req createAccountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if req.BankID == 0 || req.AccountName == "" || req.AccountNumber == "" {
			http.Error(w, "bank_id, account_name and account_number are required", http.StatusBadRequest)
			return
		}
		if _, err := store.GetBank(r.Context(), req.BankID); err != nil {
			if bank.IsNotFound(err) {
				http.Error(w, "bank not found", http.StatusBadRequest)
				return
			}
			logger.Error("loading bank failed", zap.Int64("bank_id", req.BankID), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		currency := req.CurrencyCode
		if currency == "" {
			currency = "BRL"
		}

		account := &models.BankAccount{
			UserID:        userID,
			BankID:        req.BankID,
			AccountType:   req.AccountType,
			AccountName:   req.AccountName,
			AccountNumber: req.AccountNumber,
			Agency:        req.Agency,
			CurrencyCode:  currency,
			AccessToken:   req.AccessToken,
			RefreshToken:  req.RefreshToken,
		}
		if req.TokenExpiry != nil {
			expiry, err := time.Parse(time.RFC3339, *req.TokenExpiry)
			if err != nil {
				http.Error(w, "invalid token_expiry", http.StatusBadRequest)
				return
			}
			account.TokenExpiry = &expiry
		}

		created, err := store.CreateBankAccount(r.Context(), account)
		if err != nil {
			logger.Error("creating bank account failed", zap.Int64("user_id", userID), zap.Error(err))
			http.Error(w, "failed to create bank account", http.StatusInternalServerError)
			return
		}

		logger.Info("bank account linked",
			zap.Int64("bank_account_id", created.ID),
			zap.Int64("user_id", userID),
			zap.Int64("bank_id", created.BankID),
		)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	}
}

func DeleteAccount(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		id, err := strconv.ParseInt(chi.URLParam(r, "account_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid account id", http.StatusBadRequest)
			return
		}
		if err := store.DeactivateBankAccount(r.Context(), id, userID); err != nil {
			if bank.IsNotFound(err) {
				http.Error(w, "bank account not found", http.StatusNotFound)
				return
			}
			logger.Error("deactivating bank account failed", zap.Int64("bank_account_id", id), zap.Error(err))
			http.Error(w, "failed to delete bank account", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SyncAccount runs a full synchronization for one account and reports the
// structured outcome. Partial success (transactions without balance, or the
// reverse) comes back with success=false and the step results filled in.
func SyncAccount(store *sqlstore.Store, syncer *bank.Syncer, logger *zap.Logger) http.HandlerFunc {
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

		result, err := syncer.SyncAccount(r.Context(), id, startDate, endDate)
		if err != nil {
			if bank.IsNotFound(err) {
				http.Error(w, "bank account not found", http.StatusNotFound)
				return
			}
			logger.Error("account sync failed", zap.Int64("bank_account_id", id), zap.Error(err))
			http.Error(w, "failed to sync account", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

// SyncAllAccounts sweeps every active linked account. Admin-only.
func SyncAllAccounts(store *sqlstore.Store, syncer *bank.Syncer, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := store.ActiveBankAccountIDs(r.Context())
		if err != nil {
			logger.Error("listing active accounts failed", zap.Error(err))
			http.Error(w, "failed to list accounts", http.StatusInternalServerError)
			return
		}

		outcomes := syncer.SyncAccounts(r.Context(), ids)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(outcomes)
	}
}
