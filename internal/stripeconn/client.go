package stripeconn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/situationship/oracle/internal/domain"
	"github.com/situationship/oracle/internal/logging"
)

// Account is the slice of the processor's account object this service reads.
type Account struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	BusinessProfile struct {
		Name string `json:"name"`
	} `json:"business_profile"`
}

// DisplayName is the best human-readable name the account object offers, or
// empty when the processor has none.
func (a *Account) DisplayName() string {
	if a.BusinessProfile.Name != "" {
		return a.BusinessProfile.Name
	}
	return a.Email
}

type AccountLink struct {
	URL string `json:"url"`
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Client is a minimal REST client for the processor API: account information
// for name resolution, express-account onboarding, and checkout sessions with
// an application fee routed to a connected account.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (c *Client) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	var account Account
	if err := c.do(ctx, http.MethodGet, "/v1/accounts/"+url.PathEscape(accountID), nil, &account); err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return &account, nil
}

func (c *Client) CreateExpressAccount(ctx context.Context) (*Account, error) {
	form := url.Values{}
	form.Set("type", "express")
	form.Set("capabilities[transfers][requested]", "true")

	var account Account
	if err := c.do(ctx, http.MethodPost, "/v1/accounts", form, &account); err != nil {
		return nil, fmt.Errorf("CreateExpressAccount: %w", err)
	}
	return &account, nil
}

func (c *Client) CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (*AccountLink, error) {
	form := url.Values{}
	form.Set("account", accountID)
	form.Set("refresh_url", refreshURL)
	form.Set("return_url", returnURL)
	form.Set("type", "account_onboarding")

	var link AccountLink
	if err := c.do(ctx, http.MethodPost, "/v1/account_links", form, &link); err != nil {
		return nil, fmt.Errorf("CreateAccountLink: %w", err)
	}
	return &link, nil
}

// CreateCheckoutSession builds a payment link for a single charge destined to
// a connected account, withholding feeMinor as the application fee.
func (c *Client) CreateCheckoutSession(ctx context.Context, accountID string, amountMinor int64, currency string, feeMinor int64, successURL string) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", successURL)
	form.Set("line_items[0][price_data][currency]", currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(amountMinor, 10))
	form.Set("line_items[0][price_data][product_data][name]", "Oracle reading")
	form.Set("line_items[0][quantity]", "1")
	form.Set("payment_intent_data[application_fee_amount]", strconv.FormatInt(feeMinor, 10))
	form.Set("payment_intent_data[transfer_data][destination]", accountID)

	var session CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, fmt.Errorf("CreateCheckoutSession: %w", err)
	}
	return &session, nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	logging.FromContext(ctx).Debug("processor response received",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
