package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tarefo-server/src/bank"
	sqlstore "tarefo-server/src/db/sql"
	"tarefo-server/src/models"
)

func GetBanks(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		banks, err := store.AllBanks(r.Context())
		if err != nil {
			logger.Error("listing banks failed", zap.Error(err))
			http.Error(w, "failed to list banks", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(banks)
	}
}

func GetBank(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "bank_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid bank id", http.StatusBadRequest)
			return
		}
		row, err := store.GetBank(r.Context(), id)
		if err != nil {
			if bank.IsNotFound(err) {
				http.Error(w, "bank not found", http.StatusNotFound)
				return
			}
			logger.Error("loading bank failed", zap.Int64("bank_id", id), zap.Error(err))
			http.Error(w, "failed to load bank", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(row)
	}
}

type bankRequest struct {
	Name       string  `json:"name"`
	Code       string  `json:"code"`
	APIBaseURL string  `json:"api_base_url"`
	APIType    string  `json:"api_type"`
	IconURL    *string `json:"icon_url"`
	IsActive   *bool   `json:"is_active"`
}

func (req *bankRequest) valid() bool {
	if req.Name == "" || req.Code == "" || req.APIBaseURL == "" {
		return false
	}
	return req.APIType == models.APITypeOpenBanking || req.APIType == models.APITypeDirect
}

func CreateBank(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.valid() {
			http.Error(w, "invalid bank payload", http.StatusBadRequest)
			return
		}

		row, err := store.CreateBank(r.Context(), &models.Bank{
			Name:       req.Name,
			Code:       req.Code,
			APIBaseURL: req.APIBaseURL,
			APIType:    req.APIType,
			IconURL:    req.IconURL,
		})
		if err != nil {
			logger.Error("creating bank failed", zap.String("code", req.Code), zap.Error(err))
			http.Error(w, "failed to create bank", http.StatusInternalServerError)
			return
		}

		logger.Info("bank created", zap.Int64("bank_id", row.ID), zap.String("code", row.Code))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(row)
	}
}

func UpdateBank(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "bank_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid bank id", http.StatusBadRequest)
			return
		}

		var req bankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !req.valid() {
			http.Error(w, "invalid bank payload", http.StatusBadRequest)
			return
		}

		row := &models.Bank{
			ID:         id,
			Name:       req.Name,
			Code:       req.Code,
			APIBaseURL: req.APIBaseURL,
			APIType:    req.APIType,
			IconURL:    req.IconURL,
			IsActive:   true,
		}
		if req.IsActive != nil {
			row.IsActive = *req.IsActive
		}

		if err := store.UpdateBank(r.Context(), row); err != nil {
			if bank.IsNotFound(err) {
				http.Error(w, "bank not found", http.StatusNotFound)
				return
			}
			logger.Error("updating bank failed", zap.Int64("bank_id", id), zap.Error(err))
			http.Error(w, "failed to update bank", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(row)
	}
}

func DeleteBank(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "bank_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid bank id", http.StatusBadRequest)
			return
		}
		if err := store.DeleteBank(r.Context(), id); err != nil {
			if bank.IsNotFound(err) {
				http.Error(w, "bank not found", http.StatusNotFound)
				return
			}
			logger.Error("deleting bank failed", zap.Int64("bank_id", id), zap.Error(err))
			http.Error(w, "failed to delete bank", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
