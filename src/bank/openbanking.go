package bank

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// openBankingClient speaks the Open Banking Brasil account and transaction
// endpoints. Responses are parsed into typed wire structs up front; anything
// that does not fit the published shape fails with ErrDataShape instead of
// leaking partial data downstream.
type openBankingClient struct {
	cfg    ClientConfig
	logger *zap.Logger
}

type obAmount struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type obAccountsResponse struct {
	Data struct {
		Account []struct {
			AccountID       string   `json:"accountId"`
			AccountType     string   `json:"accountType"`
			AccountNumber   string   `json:"accountNumber"`
			Branch          string   `json:"branch"`
			AvailableAmount obAmount `json:"availableAmount"`
		} `json:"account"`
	} `json:"data"`
}

type obTransactionsResponse struct {
	Data struct {
		Transaction []obTransaction `json:"transaction"`
	} `json:"data"`
}

type obTransaction struct {
	TransactionID    string   `json:"transactionId"`
	BookingDate      string   `json:"bookingDate"`
	TransactionName  string   `json:"transactionName"`
	Amount           obAmount `json:"amount"`
	CreditDebitType  string   `json:"creditDebitType"`
	CounterpartyName string   `json:"counterpartyName"`
	CompletionDate   string   `json:"completionDate"`
	PaymentType      string   `json:"paymentType"`
}

func (c *openBankingClient) GetAccountInfo(ctx context.Context) (*AccountInfo, error) {
	var parsed obAccountsResponse
	endpoint := c.cfg.BaseURL + "/accounts/v1/accounts"
	if err := getJSON(ctx, c.cfg, "open_banking", "accounts", endpoint, &parsed); err != nil {
		return nil, err
	}

	if len(parsed.Data.Account) == 0 {
		return nil, fmt.Errorf("accounts response carries no account entries: %w", ErrDataShape)
	}

	account := parsed.Data.Account[0]
	balance, err := strconv.ParseFloat(account.AvailableAmount.Amount, 64)
	if err != nil {
		return nil, fmt.Errorf("unparseable availableAmount %q: %w", account.AvailableAmount.Amount, ErrDataShape)
	}

	info := &AccountInfo{
		AccountID:     account.AccountID,
		AccountType:   account.AccountType,
		AccountNumber: account.AccountNumber,
		Balance:       balance,
		CurrencyCode:  account.AvailableAmount.Currency,
	}
	if account.Branch != "" {
		branch := account.Branch
		info.Agency = &branch
	}
	return info, nil
}

func (c *openBankingClient) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]CanonicalTransaction, error) {
	params := url.Values{
		"fromBookingDate": {startDate.Format("2006-01-02")},
		"toBookingDate":   {endDate.Format("2006-01-02")},
	}
	endpoint := fmt.Sprintf("%s/transactions/v1/accounts/%s/transactions?%s",
		c.cfg.BaseURL, url.PathEscape(c.cfg.AccountNumber), params.Encode())

	var parsed obTransactionsResponse
	if err := getJSON(ctx, c.cfg, "open_banking", "transactions", endpoint, &parsed); err != nil {
		return nil, err
	}

	transactions := make([]CanonicalTransaction, 0, len(parsed.Data.Transaction))
	for _, raw := range parsed.Data.Transaction {
		canonical, err := canonicalizeOpenBanking(raw)
		if err != nil {
			c.logger.Warn("skipping malformed upstream transaction",
				zap.String("transaction_id", raw.TransactionID),
				zap.String("booking_date", raw.BookingDate),
				zap.Error(err),
			)
			return nil, err
		}
		transactions = append(transactions, canonical)
	}
	return transactions, nil
}

func canonicalizeOpenBanking(raw obTransaction) (CanonicalTransaction, error) {
	date, err := time.Parse("2006-01-02", raw.BookingDate)
	if err != nil {
		return CanonicalTransaction{}, fmt.Errorf("unparseable bookingDate %q: %w", raw.BookingDate, ErrDataShape)
	}

	amount, err := strconv.ParseFloat(raw.Amount.Amount, 64)
	if err != nil {
		return CanonicalTransaction{}, fmt.Errorf("unparseable amount %q: %w", raw.Amount.Amount, ErrDataShape)
	}

	txType := TypeCredit
	if raw.CreditDebitType == "DEBIT" {
		txType = TypeDebit
		amount = -amount
	}

	description := raw.TransactionName
	if description == "" {
		description = raw.CreditDebitType
	}

	canonical := CanonicalTransaction{
		ID:          raw.TransactionID,
		Date:        date,
		// The format carries no time of day; noon UTC keeps the value inside
		// the booking date in every plausible display timezone.
		Datetime:    date.Add(12 * time.Hour),
		Description: description,
		Amount:      amount,
		Type:        txType,
		// Reported transactions already booked.
		Status: StatusCompleted,
		Metadata: map[string]any{
			"completionDate": raw.CompletionDate,
			"currencyCode":   raw.Amount.Currency,
			"paymentType":    raw.PaymentType,
		},
	}
	if raw.CounterpartyName != "" {
		payee := raw.CounterpartyName
		canonical.Payee = &payee
	}
	return canonical, nil
}
