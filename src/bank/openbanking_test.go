package bank

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tarefo-server/src/models"
)

const obTransactionsBody = `{
	"data": {
		"transaction": [
			{
				"transactionId": "tx-001",
				"bookingDate": "2025-03-10",
				"transactionName": "PIX TRANSF JOAO",
				"amount": {"amount": "150.00", "currency": "BRL"},
				"creditDebitType": "DEBIT",
				"counterpartyName": "Joao Silva",
				"completionDate": "2025-03-10",
				"paymentType": "PIX"
			},
			{
				"transactionId": "tx-002",
				"bookingDate": "2025-03-11",
				"transactionName": "TED RECEBIDA",
				"amount": {"amount": "1200.50", "currency": "BRL"},
				"creditDebitType": "CREDIT",
				"counterpartyName": "",
				"completionDate": "2025-03-11",
				"paymentType": "TED"
			}
		]
	}
}`

func newTestClient(t *testing.T, apiType string, server *httptest.Server) Client {
	t.Helper()
	client, err := NewClient(apiType, ClientConfig{
		BaseURL:       server.URL,
		AccountNumber: "12345-6",
		AccessToken:   "token-1",
		HTTPClient:    server.Client(),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestOpenBankingGetAccountInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts/v1/accounts" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("Authorization header %q", got)
		}
		w.Write([]byte(`{
			"data": {
				"account": [
					{
						"accountId": "acc-1",
						"accountType": "CACC",
						"accountNumber": "12345-6",
						"branch": "0001",
						"availableAmount": {"amount": "2500.75", "currency": "BRL"}
					}
				]
			}
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, models.APITypeOpenBanking, server)
	info, err := client.GetAccountInfo(context.Background())
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if info.AccountID != "acc-1" || info.Balance != 2500.75 || info.CurrencyCode != "BRL" {
		t.Errorf("got info %+v", info)
	}
	if info.Agency == nil || *info.Agency != "0001" {
		t.Errorf("got agency %v, want 0001", info.Agency)
	}
}

func TestOpenBankingGetAccountInfoEmptyAccounts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"account": []}}`))
	}))
	defer server.Close()

	client := newTestClient(t, models.APITypeOpenBanking, server)
	_, err := client.GetAccountInfo(context.Background())
	if Classify(err) != "data_shape" {
		t.Fatalf("got %v, want ErrDataShape", err)
	}
}

func TestOpenBankingGetTransactions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("fromBookingDate"); got != "2025-03-01" {
			t.Errorf("fromBookingDate %q", got)
		}
		if got := r.URL.Query().Get("toBookingDate"); got != "2025-03-31" {
			t.Errorf("toBookingDate %q", got)
		}
		w.Write([]byte(obTransactionsBody))
	}))
	defer server.Close()

	client := newTestClient(t, models.APITypeOpenBanking, server)
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	transactions, err := client.GetTransactions(context.Background(), start, end)
	if err != nil {
		t.Fatalf("GetTransactions: %v", err)
	}
	if len(transactions) != 2 {
		t.Fatalf("got %d transactions, want 2", len(transactions))
	}

	debit := transactions[0]
	if debit.ID != "tx-001" {
		t.Errorf("id %q", debit.ID)
	}
	if debit.Amount != -150.00 || debit.Type != TypeDebit {
		t.Errorf("debit not negated: amount=%v type=%q", debit.Amount, debit.Type)
	}
	if debit.Payee == nil || *debit.Payee != "Joao Silva" {
		t.Errorf("payee %v", debit.Payee)
	}
	wantDatetime := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	if !debit.Datetime.Equal(wantDatetime) {
		t.Errorf("datetime %v, want noon on booking date", debit.Datetime)
	}
	if debit.Status != StatusCompleted {
		t.Errorf("status %q", debit.Status)
	}
	if debit.Metadata["paymentType"] != "PIX" {
		t.Errorf("metadata %v", debit.Metadata)
	}

	credit := transactions[1]
	if credit.Amount != 1200.50 || credit.Type != TypeCredit {
		t.Errorf("credit mangled: amount=%v type=%q", credit.Amount, credit.Type)
	}
	if credit.Payee != nil {
		t.Errorf("empty counterparty produced payee %q", *credit.Payee)
	}
}

func TestOpenBankingMalformedTransaction(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{
			"bad booking date",
			`{"data": {"transaction": [{"transactionId": "tx-1", "bookingDate": "10/03/2025", "amount": {"amount": "1.00"}, "creditDebitType": "DEBIT"}]}}`,
		},
		{
			"unparseable amount",
			`{"data": {"transaction": [{"transactionId": "tx-1", "bookingDate": "2025-03-10", "amount": {"amount": "abc"}, "creditDebitType": "DEBIT"}]}}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := newTestClient(t, models.APITypeOpenBanking, server)
			_, err := client.GetTransactions(context.Background(), time.Now().AddDate(0, -1, 0), time.Now())
			if Classify(err) != "data_shape" {
				t.Fatalf("got %v, want ErrDataShape", err)
			}
		})
	}
}

func TestOpenBankingDescriptionFallsBackToType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"transaction": [{"transactionId": "tx-1", "bookingDate": "2025-03-10", "transactionName": "", "amount": {"amount": "5.00"}, "creditDebitType": "CREDIT"}]}}`))
	}))
	defer server.Close()

	client := newTestClient(t, models.APITypeOpenBanking, server)
	transactions, err := client.GetTransactions(context.Background(), time.Now().AddDate(0, -1, 0), time.Now())
	if err != nil {
		t.Fatalf("GetTransactions: %v", err)
	}
	if transactions[0].Description != "CREDIT" {
		t.Errorf("description %q, want creditDebitType fallback", transactions[0].Description)
	}
}

func TestOpenBankingUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(t, models.APITypeOpenBanking, server)
	_, err := client.GetTransactions(context.Background(), time.Now().AddDate(0, -1, 0), time.Now())
	if Classify(err) != "upstream_unavailable" {
		t.Fatalf("got %v, want ErrUpstreamUnavailable", err)
	}
}

func TestNewClientUnknownAPIType(t *testing.T) {
	_, err := NewClient("soap", ClientConfig{BaseURL: "http://unused"})
	if Classify(err) != "data_shape" {
		t.Fatalf("got %v, want ErrDataShape", err)
	}
}
