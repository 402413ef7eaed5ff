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
)

func GetCategories(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		cats, err := store.CategoriesForUser(r.Context(), userID)
		if err != nil {
			logger.Error("listing categories failed", zap.Int64("user_id", userID), zap.Error(err))
			http.Error(w, "failed to list categories", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cats)
	}
}

func CreateCategory(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		var req struct {
			Name     string  `json:"name"`
			ParentID *int64  `json:"parent_id"`
			Type     string  `json:"type"`
			Icon     *string `json:"icon"`
			Color    *string `json:"color"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}
		if req.Type != bank.TypeDebit && req.Type != bank.TypeCredit {
			http.Error(w, "type must be debit or credit", http.StatusBadRequest)
			return
		}

		cat := &models.Category{
			Name:     req.Name,
			ParentID: req.ParentID,
			Type:     req.Type,
			Icon:     req.Icon,
			Color:    req.Color,
			UserID:   &userID,
		}
		created, err := store.CreateCategory(r.Context(), cat)
		if err != nil {
			logger.Error("creating category failed", zap.Int64("user_id", userID), zap.Error(err))
			http.Error(w, "failed to create category", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	}
}

func DeleteCategory(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		id, err := strconv.ParseInt(chi.URLParam(r, "category_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid category id", http.StatusBadRequest)
			return
		}
		if err := store.DeleteCategory(r.Context(), id, userID); err != nil {
			if bank.IsNotFound(err) {
				http.Error(w, "category not found", http.StatusNotFound)
				return
			}
			logger.Error("deleting category failed", zap.Int64("category_id", id), zap.Error(err))
			http.Error(w, "failed to delete category", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func GetFinancialGoals(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		goals, err := store.FinancialGoalsByUserID(r.Context(), userID)
		if err != nil {
			logger.Error("listing financial goals failed", zap.Int64("user_id", userID), zap.Error(err))
			http.Error(w, "failed to list financial goals", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(goals)
	}
}

type goalRequest struct {
	Title         string  `json:"title"`
	Description   *string `json:"description"`
	TargetAmount  string  `json:"target_amount"`
	CurrentAmount string  `json:"current_amount"`
	StartDate     string  `json:"start_date"`
	TargetDate    *string `json:"target_date"`
	Category      *string `json:"category"`
	Status        string  `json:"status"`
	Priority      string  `json:"priority"`
}

func CreateFinancialGoal(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)

		var req goalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if req.Title == "" || req.TargetAmount == "" {
			http.Error(w, "title and target_amount are required", http.StatusBadRequest)
			return
		}

		startDate := time.Now()
		if req.StartDate != "" {
			parsed, err := time.Parse("2006-01-02", req.StartDate)
			if err != nil {
				http.Error(w, "invalid start_date", http.StatusBadRequest)
				return
			}
			startDate = parsed
		}
		var targetDate *time.Time
		if req.TargetDate != nil {
			parsed, err := time.Parse("2006-01-02", *req.TargetDate)
			if err != nil {
				http.Error(w, "invalid target_date", http.StatusBadRequest)
				return
			}
			targetDate = &parsed
		}

		goal := &models.FinancialGoal{
			UserID:        userID,
			Title:         req.Title,
			Description:   req.Description,
			TargetAmount:  req.TargetAmount,
			CurrentAmount: req.CurrentAmount,
			StartDate:     startDate,
			TargetDate:    targetDate,
			Category:      req.Category,
			Status:        req.Status,
			Priority:      req.Priority,
		}
		if goal.CurrentAmount == "" {
			goal.CurrentAmount = "0.00"
		}
		if goal.Status == "" {
			goal.Status = "active"
		}
		if goal.Priority == "" {
			goal.Priority = "medium"
		}

		created, err := store.CreateFinancialGoal(r.Context(), goal)
		if err != nil {
			logger.Error("creating financial goal failed", zap.Int64("user_id", userID), zap.Error(err))
			http.Error(w, "failed to create financial goal", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(created)
	}
}

func UpdateFinancialGoal(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		id, err := strconv.ParseInt(chi.URLParam(r, "goal_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid goal id", http.StatusBadRequest)
			return
		}

		goal, err := store.GetFinancialGoal(r.Context(), id)
		if err != nil {
			if bank.IsNotFound(err) {
				http.Error(w, "financial goal not found", http.StatusNotFound)
				return
			}
			logger.Error("loading financial goal failed", zap.Int64("goal_id", id), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		if goal.UserID != userID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req goalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if req.Title != "" {
			goal.Title = req.Title
		}
		if req.TargetAmount != "" {
			goal.TargetAmount = req.TargetAmount
		}
		if req.CurrentAmount != "" {
			goal.CurrentAmount = req.CurrentAmount
		}
		if req.Status != "" {
			goal.Status = req.Status
		}
		if req.Priority != "" {
			goal.Priority = req.Priority
		}
		if req.Description != nil {
			goal.Description = req.Description
		}
		if req.Category != nil {
			goal.Category = req.Category
		}
		if req.TargetDate != nil {
			parsed, err := time.Parse("2006-01-02", *req.TargetDate)
			if err != nil {
				http.Error(w, "invalid target_date", http.StatusBadRequest)
				return
			}
			goal.TargetDate = &parsed
		}

		if err := store.UpdateFinancialGoal(r.Context(), goal); err != nil {
			logger.Error("updating financial goal failed", zap.Int64("goal_id", id), zap.Error(err))
			http.Error(w, "failed to update financial goal", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(goal)
	}
}

func DeleteFinancialGoal(store *sqlstore.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		id, err := strconv.ParseInt(chi.URLParam(r, "goal_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid goal id", http.StatusBadRequest)
			return
		}
		if err := store.DeleteFinancialGoal(r.Context(), id, userID); err != nil {
			if bank.IsNotFound(err) {
				http.Error(w, "financial goal not found", http.StatusNotFound)
				return
			}
			logger.Error("deleting financial goal failed", zap.Int64("goal_id", id), zap.Error(err))
			http.Error(w, "failed to delete financial goal", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
