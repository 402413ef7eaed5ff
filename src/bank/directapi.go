package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// directAPIClient speaks the proprietary per-bank REST shape: flat /accounts
// and /transactions?from&to endpoints, signed amounts, optional fields.
// Numeric fields arrive as either JSON numbers or numeric strings depending
// on the bank, hence json.Number throughout.
type directAPIClient struct {
	cfg    ClientConfig
	logger *zap.Logger
}

type directAccountResponse struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	Number   string      `json:"number"`
	Agency   string      `json:"agency"`
	Balance  json.Number `json:"balance"`
	Currency string      `json:"currency"`
}

type directTransactionsResponse struct {
	Transactions []directTransaction `json:"transactions"`
}

type directTransaction struct {
	ID          string         `json:"id"`
	Date        string         `json:"date"`
	Datetime    string         `json:"datetime"`
	Description string         `json:"description"`
	Amount      json.Number    `json:"amount"`
	Balance     json.Number    `json:"balance"`
	Status      string         `json:"status"`
	Payee       string         `json:"payee"`
	Category    string         `json:"category"`
	Subcategory string         `json:"subcategory"`
	Metadata    map[string]any `json:"metadata"`
}

func (c *directAPIClient) GetAccountInfo(ctx context.Context) (*AccountInfo, error) {
	var parsed directAccountResponse
	if err := getJSON(ctx, c.cfg, "direct_api", "accounts", c.cfg.BaseURL+"/accounts", &parsed); err != nil {
		return nil, err
	}

	balance, err := parsed.Balance.Float64()
	if err != nil {
		return nil, fmt.Errorf("unparseable account balance %q: %w", parsed.Balance.String(), ErrDataShape)
	}

	currency := parsed.Currency
	if currency == "" {
		currency = "BRL"
	}

	info := &AccountInfo{
		AccountID:     parsed.ID,
		AccountType:   parsed.Type,
		AccountNumber: parsed.Number,
		Balance:       balance,
		CurrencyCode:  currency,
	}
	if parsed.Agency != "" {
		agency := parsed.Agency
		info.Agency = &agency
	}
	return info, nil
}

func (c *directAPIClient) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]CanonicalTransaction, error) {
	params := url.Values{
		"from": {startDate.Format("2006-01-02")},
		"to":   {endDate.Format("2006-01-02")},
	}
	endpoint := c.cfg.BaseURL + "/transactions?" + params.Encode()

	var parsed directTransactionsResponse
	if err := getJSON(ctx, c.cfg, "direct_api", "transactions", endpoint, &parsed); err != nil {
		return nil, err
	}

	transactions := make([]CanonicalTransaction, 0, len(parsed.Transactions))
	for _, raw := range parsed.Transactions {
		canonical, err := canonicalizeDirect(raw)
		if err != nil {
			c.logger.Warn("skipping malformed upstream transaction",
				zap.String("transaction_id", raw.ID),
				zap.String("date", raw.Date),
				zap.Error(err),
			)
			return nil, err
		}
		transactions = append(transactions, canonical)
	}
	return transactions, nil
}

func canonicalizeDirect(raw directTransaction) (CanonicalTransaction, error) {
	date, err := time.Parse("2006-01-02", raw.Date)
	if err != nil {
		return CanonicalTransaction{}, fmt.Errorf("unparseable date %q: %w", raw.Date, ErrDataShape)
	}

	amount, err := raw.Amount.Float64()
	if err != nil {
		return CanonicalTransaction{}, fmt.Errorf("unparseable amount %q: %w", raw.Amount.String(), ErrDataShape)
	}

	// Sign arrives from upstream; the type is derived from it.
	txType := TypeCredit
	if amount < 0 {
		txType = TypeDebit
	}

	datetime := date
	if raw.Datetime != "" {
		parsed, err := time.Parse(time.RFC3339, raw.Datetime)
		if err != nil {
			return CanonicalTransaction{}, fmt.Errorf("unparseable datetime %q: %w", raw.Datetime, ErrDataShape)
		}
		datetime = parsed
	}

	status := raw.Status
	if status == "" {
		status = StatusCompleted
	}

	canonical := CanonicalTransaction{
		ID:          raw.ID,
		Date:        date,
		Datetime:    datetime,
		Description: raw.Description,
		Amount:      amount,
		Type:        txType,
		Status:      status,
		Metadata:    raw.Metadata,
	}
	if raw.Balance != "" {
		balance, err := raw.Balance.Float64()
		if err != nil {
			return CanonicalTransaction{}, fmt.Errorf("unparseable running balance %q: %w", raw.Balance.String(), ErrDataShape)
		}
		canonical.Balance = &balance
	}
	if raw.Payee != "" {
		payee := raw.Payee
		canonical.Payee = &payee
	}
	if raw.Category != "" {
		category := raw.Category
		canonical.Category = &category
	}
	if raw.Subcategory != "" {
		subcategory := raw.Subcategory
		canonical.Subcategory = &subcategory
	}
	return canonical, nil
}
