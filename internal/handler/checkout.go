package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/situationship/oracle/internal/fees"
	"github.com/situationship/oracle/internal/logging"
	"github.com/situationship/oracle/internal/stripeconn"
)

type checkoutCreator interface {
	CreateCheckoutSession(ctx context.Context, accountID string, amountMinor int64, currency string, feeMinor int64, successURL string) (*stripeconn.CheckoutSession, error)
}

// CheckoutHandler creates a payment link for a reading with one oracle. The
// application fee is computed by the same policy that splits webhook charges.
type CheckoutHandler struct {
	processor checkoutCreator
	policy    *fees.Policy
	baseURL   string
}

func NewCheckoutHandler(processor checkoutCreator, policy *fees.Policy, baseURL string) *CheckoutHandler {
	return &CheckoutHandler{processor: processor, policy: policy, baseURL: baseURL}
}

type checkoutRequest struct {
	AccountID string `json:"account_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

func (req checkoutRequest) validate() []FieldError {
	var errs []FieldError
	if req.AccountID == "" {
		errs = append(errs, FieldError{Field: "account_id", Message: "required"})
	}
	if req.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be a positive integer in minor units"})
	}
	if req.Currency == "" {
		errs = append(errs, FieldError{Field: "currency", Message: "required"})
	}
	return errs
}

func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if fields := req.validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	// The fee on the checkout session is advisory; the ledger recomputes the
	// split when the charge webhook lands.
	feeMinor := req.Amount * h.policy.RateBps() / 10000

	session, err := h.processor.CreateCheckoutSession(r.Context(), req.AccountID, req.Amount, req.Currency, feeMinor, h.baseURL+"/")
	if err != nil {
		log.Error("failed to create checkout session", "account_id", req.AccountID, "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	log.Info("checkout session created", "account_id", req.AccountID, "session_id", session.ID)
	RespondSuccess(w, http.StatusCreated, map[string]string{"url": session.URL})
}
