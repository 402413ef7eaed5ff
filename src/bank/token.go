package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"tarefo-server/src/models"
)

// TokenPair holds the current access/refresh tokens for an account.
// SENSITIVE: never log either value.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenManager validates and refreshes per-account OAuth tokens. Token
// updates are the only store writes it performs.
type TokenManager struct {
	store      Store
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *Metrics
	now        func() time.Time
}

func NewTokenManager(store Store, httpClient *http.Client, logger *zap.Logger, metrics *Metrics) *TokenManager {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &TokenManager{
		store:      store,
		httpClient: httpClient,
		logger:     logger.Named("tokens"),
		metrics:    metrics,
		now:        time.Now,
	}
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// EnsureValidToken returns tokens usable for upstream calls, refreshing them
// first when the stored expiry has passed. Returns ErrAuthExpired when no
// refresh token is stored or the refresh endpoint rejects the call; no
// partial token state is written on that path.
func (m *TokenManager) EnsureValidToken(ctx context.Context, account *models.BankAccount, bank *models.Bank) (TokenPair, error) {
	current := TokenPair{}
	if account.AccessToken != nil {
		current.AccessToken = *account.AccessToken
	}
	if account.RefreshToken != nil {
		current.RefreshToken = *account.RefreshToken
	}

	// Expiry unset or in the future: current tokens stand as-is.
	if account.TokenExpiry == nil || account.TokenExpiry.After(m.now()) {
		if current.AccessToken == "" {
			return TokenPair{}, fmt.Errorf("account %d has no access token: %w", account.ID, ErrAuthExpired)
		}
		return current, nil
	}

	if current.RefreshToken == "" {
		m.metrics.TokenRefresh("no_refresh_token")
		return TokenPair{}, fmt.Errorf("account %d token expired with no refresh token: %w", account.ID, ErrAuthExpired)
	}

	refreshed, err := m.refresh(ctx, bank, current.RefreshToken)
	if err != nil {
		m.metrics.TokenRefresh("failed")
		m.logger.Warn("token refresh failed",
			zap.Int64("account_id", account.ID),
			zap.Int64("bank_id", bank.ID),
			zap.Error(err),
		)
		return TokenPair{}, err
	}

	pair := TokenPair{AccessToken: refreshed.AccessToken, RefreshToken: refreshed.RefreshToken}
	// The response may omit a rotated refresh token; retain the old one.
	if pair.RefreshToken == "" {
		pair.RefreshToken = current.RefreshToken
	}

	update := models.TokenUpdate{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
	if refreshed.ExpiresIn > 0 {
		expiry := m.now().Add(time.Duration(refreshed.ExpiresIn) * time.Second)
		update.TokenExpiry = &expiry
	}

	if err := m.store.UpdateBankAccountTokens(ctx, account.ID, update); err != nil {
		m.metrics.TokenRefresh("persist_failed")
		return TokenPair{}, fmt.Errorf("persisting refreshed tokens for account %d: %w", account.ID, ErrPersistence)
	}

	m.metrics.TokenRefresh("ok")
	m.logger.Info("access token refreshed",
		zap.Int64("account_id", account.ID),
		zap.Int64("bank_id", bank.ID),
	)
	return pair, nil
}

func (m *TokenManager) refresh(ctx context.Context, bank *models.Bank, refreshToken string) (*refreshResponse, error) {
	endpoint := strings.TrimSuffix(bank.APIBaseURL, "/") + "/auth/refresh"
	if bank.APIType == models.APITypeOpenBanking {
		endpoint = strings.TrimSuffix(bank.APIBaseURL, "/") + "/oauth/token"
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building refresh request: %w", ErrAuthExpired)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh call: %v: %w", err, ErrAuthExpired)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("refresh endpoint returned %d: %w", resp.StatusCode, ErrAuthExpired)
	}

	var parsed refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding refresh response: %w", ErrAuthExpired)
	}
	if parsed.AccessToken == "" {
		return nil, fmt.Errorf("refresh response missing access_token: %w", ErrAuthExpired)
	}

	return &parsed, nil
}
