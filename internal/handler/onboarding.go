package handler

import (
	"context"
	"net/http"

	"github.com/situationship/oracle/internal/logging"
	"github.com/situationship/oracle/internal/stripeconn"
)

type accountOnboarder interface {
	CreateExpressAccount(ctx context.Context) (*stripeconn.Account, error)
	CreateAccountLink(ctx context.Context, accountID, refreshURL, returnURL string) (*stripeconn.AccountLink, error)
}

// OnboardingHandler starts the processor-hosted onboarding flow for a new
// oracle. The ledger entry itself is created lazily on the first charge.
type OnboardingHandler struct {
	processor accountOnboarder
	baseURL   string
}

func NewOnboardingHandler(processor accountOnboarder, baseURL string) *OnboardingHandler {
	return &OnboardingHandler{processor: processor, baseURL: baseURL}
}

func (h *OnboardingHandler) Start(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	account, err := h.processor.CreateExpressAccount(r.Context())
	if err != nil {
		log.Error("failed to create connected account", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	link, err := h.processor.CreateAccountLink(r.Context(), account.ID, h.baseURL, h.baseURL+"/oracle-success")
	if err != nil {
		log.Error("failed to create onboarding link", "account_id", account.ID, "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	log.Info("onboarding started", "account_id", account.ID)
	http.Redirect(w, r, link.URL, http.StatusSeeOther)
}

func (h *OnboardingHandler) Success(w http.ResponseWriter, r *http.Request) {
	RespondSuccess(w, http.StatusOK, map[string]string{
		"message": "You're now an Oracle! You can receive payments.",
	})
}
