package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/situationship/oracle/internal/fees"
	"github.com/situationship/oracle/internal/stripeconn"
)

type mockCheckout struct {
	accountID string
	amount    int64
	fee       int64
}

func (m *mockCheckout) CreateCheckoutSession(_ context.Context, accountID string, amountMinor int64, currency string, feeMinor int64, successURL string) (*stripeconn.CheckoutSession, error) {
	m.accountID = accountID
	m.amount = amountMinor
	m.fee = feeMinor
	return &stripeconn.CheckoutSession{ID: "cs_1", URL: "https://checkout.example.com/cs_1"}, nil
}

func newCheckoutHandler(t *testing.T, processor checkoutCreator) *CheckoutHandler {
	t.Helper()
	policy, err := fees.NewPolicy(fees.DefaultRateBps)
	require.NoError(t, err)
	return NewCheckoutHandler(processor, policy, "http://localhost:8080")
}

func TestCheckoutCreate(t *testing.T) {
	processor := &mockCheckout{}
	h := newCheckoutHandler(t, processor)

	body := `{"account_id":"acct_A","amount":500,"currency":"usd"}`
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	rr := httptest.NewRecorder()

	h.Create(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "acct_A", processor.accountID)
	assert.Equal(t, int64(500), processor.amount)
	assert.Equal(t, int64(50), processor.fee)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "https://checkout.example.com/cs_1", resp.Data.(map[string]any)["url"])
}

func TestCheckoutCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing account", body: `{"amount":500,"currency":"usd"}`},
		{name: "zero amount", body: `{"account_id":"acct_A","amount":0,"currency":"usd"}`},
		{name: "negative amount", body: `{"account_id":"acct_A","amount":-5,"currency":"usd"}`},
		{name: "missing currency", body: `{"account_id":"acct_A","amount":500}`},
		{name: "bad json", body: `{`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newCheckoutHandler(t, &mockCheckout{})

			req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			h.Create(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}
