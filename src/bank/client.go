package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"tarefo-server/src/models"
)

// ClientConfig carries everything a client strategy needs: the bank's base
// URL, the account's current access token, and shared plumbing.
type ClientConfig struct {
	BaseURL       string
	AccountNumber string
	AccessToken   string
	HTTPClient    *http.Client
	Breaker       *gobreaker.CircuitBreaker
	Logger        *zap.Logger
	Metrics       *Metrics
}

// NewClient selects the client strategy for the bank's API type. The
// selection happens once here; no method branches on the type again.
func NewClient(apiType string, cfg ClientConfig) (Client, error) {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	switch apiType {
	case models.APITypeOpenBanking:
		return &openBankingClient{cfg: cfg, logger: cfg.Logger.Named("openbanking")}, nil
	case models.APITypeDirect:
		return &directAPIClient{cfg: cfg, logger: cfg.Logger.Named("directapi")}, nil
	default:
		return nil, fmt.Errorf("unknown bank api type %q: %w", apiType, ErrDataShape)
	}
}

// NewUpstreamBreaker builds the circuit breaker wrapped around one bank's
// upstream calls. Trips after 5 consecutive failures, then probes again
// after 30 seconds.
func NewUpstreamBreaker(name string, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("upstream circuit breaker state changed",
				zap.String("bank", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// getJSON performs an authenticated GET against the upstream API and decodes
// the body into out. Network failures and non-2xx statuses map to
// ErrUpstreamUnavailable, undecodable bodies to ErrDataShape, so callers can
// always tell "fetch failed" apart from "nothing there".
func getJSON(ctx context.Context, cfg ClientConfig, apiType, endpoint, rawURL string, out any) error {
	do := func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("building request for %s: %w", endpoint, ErrUpstreamUnavailable)
		}
		if cfg.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+cfg.AccessToken)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := cfg.HTTPClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s: %v: %w", endpoint, err, ErrUpstreamUnavailable)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("%s returned %d: %w", endpoint, resp.StatusCode, ErrUpstreamUnavailable)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decoding %s response: %w", endpoint, ErrDataShape)
		}
		return nil, nil
	}

	var err error
	if cfg.Breaker != nil {
		_, err = cfg.Breaker.Execute(do)
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			err = fmt.Errorf("circuit open for %s: %w", endpoint, ErrUpstreamUnavailable)
		}
	} else {
		_, err = do()
	}

	cfg.Metrics.UpstreamRequest(apiType, endpoint, Classify(err))
	return err
}
