package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tarefo-server/src/bank"
	sqlstore "tarefo-server/src/db/sql"
	"tarefo-server/src/models"
	"tarefo-server/src/util"
)

func issueToken(user *models.User, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"exp":      time.Now().Add(time.Hour * 168).Unix(),
	})
	return token.SignedString([]byte(secret))
}

func Register(store *sqlstore.Store, secret string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		req.Email = strings.TrimSpace(req.Email)
		req.Username = strings.TrimSpace(req.Username)

		if !util.ValidateEmail(req.Email) {
			http.Error(w, "invalid email format", http.StatusBadRequest)
			return
		}
		if !util.ValidateUsername(req.Username) {
			http.Error(w, "username must be between 3 and 30 characters", http.StatusBadRequest)
			return
		}
		if !util.ValidatePassword(req.Password) {
			http.Error(w, "password must be at least 8 characters with uppercase, lowercase and digit", http.StatusBadRequest)
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("hashing password failed", zap.String("username", req.Username), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		user, err := store.CreateUser(r.Context(), req.Username, req.Email, string(hashed))
		if err != nil {
			if strings.Contains(err.Error(), "duplicate key") {
				http.Error(w, "email or username already exists", http.StatusConflict)
				return
			}
			logger.Error("creating user failed", zap.String("username", req.Username), zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		tokenString, err := issueToken(user, secret)
		if err != nil {
			logger.Error("signing token failed", zap.Int64("user_id", user.ID), zap.Error(err))
			http.Error(w, "error generating token", http.StatusInternalServerError)
			return
		}

		logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"token": tokenString})
	}
}

func Login(store *sqlstore.Store, secret string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		user, err := store.GetUserByUsername(r.Context(), strings.TrimSpace(req.Username))
		if err != nil {
			if bank.IsNotFound(err) {
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
				return
			}
			logger.Error("loading user failed", zap.Error(err))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}

		tokenString, err := issueToken(user, secret)
		if err != nil {
			logger.Error("signing token failed", zap.Int64("user_id", user.ID), zap.Error(err))
			http.Error(w, "error generating token", http.StatusInternalServerError)
			return
		}

		logger.Info("user logged in", zap.Int64("user_id", user.ID))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"token": tokenString})
	}
}
