package bank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"tarefo-server/src/models"
)

func testAccount(id int64, access, refresh string, expiry *time.Time) *models.BankAccount {
	account := &models.BankAccount{ID: id, BankID: 1, AccountNumber: "12345-6"}
	if access != "" {
		account.AccessToken = strPtr(access)
	}
	if refresh != "" {
		account.RefreshToken = strPtr(refresh)
	}
	account.TokenExpiry = expiry
	return account
}

func TestEnsureValidTokenCurrentTokensStand(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	store := newFakeStore()
	manager := NewTokenManager(store, server.Client(), zap.NewNop(), nil)
	bankRow := &models.Bank{ID: 1, APIBaseURL: server.URL, APIType: models.APITypeOpenBanking}

	cases := []struct {
		name   string
		expiry *time.Time
	}{
		{"nil expiry", nil},
		{"future expiry", timePtr(time.Now().Add(time.Hour))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			account := testAccount(10, "access-1", "refresh-1", tc.expiry)
			pair, err := manager.EnsureValidToken(context.Background(), account, bankRow)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if pair.AccessToken != "access-1" || pair.RefreshToken != "refresh-1" {
				t.Errorf("got pair %+v, want stored tokens", pair)
			}
		})
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("refresh endpoint called %d times, want 0", got)
	}
}

func TestEnsureValidTokenNoAccessToken(t *testing.T) {
	store := newFakeStore()
	manager := NewTokenManager(store, nil, zap.NewNop(), nil)
	bankRow := &models.Bank{ID: 1, APIBaseURL: "http://unused", APIType: models.APITypeDirect}

	account := testAccount(10, "", "", nil)
	_, err := manager.EnsureValidToken(context.Background(), account, bankRow)
	if !IsAuthExpired(err) {
		t.Fatalf("got %v, want ErrAuthExpired", err)
	}
}

func TestEnsureValidTokenExpiredWithoutRefreshToken(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	store := newFakeStore()
	manager := NewTokenManager(store, server.Client(), zap.NewNop(), nil)
	bankRow := &models.Bank{ID: 1, APIBaseURL: server.URL, APIType: models.APITypeOpenBanking}

	account := testAccount(10, "stale-access", "", timePtr(time.Now().Add(-time.Hour)))
	_, err := manager.EnsureValidToken(context.Background(), account, bankRow)
	if !IsAuthExpired(err) {
		t.Fatalf("got %v, want ErrAuthExpired", err)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("refresh endpoint called %d times, want 0", got)
	}
	if len(store.tokenUpdates[10]) != 0 {
		t.Errorf("token update persisted on failed path: %+v", store.tokenUpdates[10])
	}
}

func TestEnsureValidTokenRefreshesExpired(t *testing.T) {
	var gotPath, gotGrant, gotRefresh string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		r.ParseForm()
		gotGrant = r.FormValue("grant_type")
		gotRefresh = r.FormValue("refresh_token")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-2",
			"refresh_token": "refresh-2",
			"expires_in":    3600,
		})
	}))
	defer server.Close()

	store := newFakeStore()
	manager := NewTokenManager(store, server.Client(), zap.NewNop(), nil)
	bankRow := &models.Bank{ID: 1, APIBaseURL: server.URL, APIType: models.APITypeOpenBanking}

	account := testAccount(10, "access-1", "refresh-1", timePtr(time.Now().Add(-time.Minute)))
	pair, err := manager.EnsureValidToken(context.Background(), account, bankRow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.AccessToken != "access-2" || pair.RefreshToken != "refresh-2" {
		t.Errorf("got pair %+v, want refreshed tokens", pair)
	}
	if gotPath != "/oauth/token" {
		t.Errorf("open banking refresh hit %q, want /oauth/token", gotPath)
	}
	if gotGrant != "refresh_token" || gotRefresh != "refresh-1" {
		t.Errorf("refresh form grant_type=%q refresh_token=%q", gotGrant, gotRefresh)
	}

	updates := store.tokenUpdates[10]
	if len(updates) != 1 {
		t.Fatalf("got %d token updates, want 1", len(updates))
	}
	if updates[0].AccessToken != "access-2" || updates[0].RefreshToken != "refresh-2" {
		t.Errorf("persisted update %+v", updates[0])
	}
	if updates[0].TokenExpiry == nil || !updates[0].TokenExpiry.After(time.Now()) {
		t.Errorf("persisted expiry %v, want future time", updates[0].TokenExpiry)
	}
}

func TestEnsureValidTokenDirectAPIRefreshPath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]any{"access_token": "access-2"})
	}))
	defer server.Close()

	store := newFakeStore()
	manager := NewTokenManager(store, server.Client(), zap.NewNop(), nil)
	bankRow := &models.Bank{ID: 1, APIBaseURL: server.URL + "/", APIType: models.APITypeDirect}

	account := testAccount(10, "access-1", "refresh-1", timePtr(time.Now().Add(-time.Minute)))
	pair, err := manager.EnsureValidToken(context.Background(), account, bankRow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/auth/refresh" {
		t.Errorf("direct api refresh hit %q, want /auth/refresh", gotPath)
	}
	// Response omitted the refresh token; the old one must survive.
	if pair.RefreshToken != "refresh-1" {
		t.Errorf("got refresh token %q, want retained refresh-1", pair.RefreshToken)
	}
}

func TestEnsureValidTokenRefreshRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	store := newFakeStore()
	manager := NewTokenManager(store, server.Client(), zap.NewNop(), nil)
	bankRow := &models.Bank{ID: 1, APIBaseURL: server.URL, APIType: models.APITypeOpenBanking}

	account := testAccount(10, "access-1", "refresh-1", timePtr(time.Now().Add(-time.Minute)))
	_, err := manager.EnsureValidToken(context.Background(), account, bankRow)
	if !IsAuthExpired(err) {
		t.Fatalf("got %v, want ErrAuthExpired", err)
	}
	if len(store.tokenUpdates[10]) != 0 {
		t.Errorf("token update persisted after rejected refresh: %+v", store.tokenUpdates[10])
	}
}

func TestEnsureValidTokenPersistFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"access_token": "access-2", "refresh_token": "refresh-2"})
	}))
	defer server.Close()

	store := newFakeStore()
	store.updateTokensErr = ErrPersistence
	manager := NewTokenManager(store, server.Client(), zap.NewNop(), nil)
	bankRow := &models.Bank{ID: 1, APIBaseURL: server.URL, APIType: models.APITypeOpenBanking}

	account := testAccount(10, "access-1", "refresh-1", timePtr(time.Now().Add(-time.Minute)))
	_, err := manager.EnsureValidToken(context.Background(), account, bankRow)
	if Classify(err) != "persistence" {
		t.Fatalf("got %v (classified %q), want persistence failure", err, Classify(err))
	}
}
