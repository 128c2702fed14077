package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/situationship/oracle/internal/domain"
	"github.com/situationship/oracle/internal/logging"
	"github.com/situationship/oracle/internal/stripeconn"
)

type earningsService interface {
	Record(ctx context.Context, event *stripeconn.Event) (domain.ApplyResult, error)
}

// WebhookHandler terminates the payment processor's webhook deliveries.
// Responses follow the processor contract rather than the dashboard envelope:
// 200 {"status":"success"} acknowledges, 400 rejects without retry value, and
// 5xx asks the processor to redeliver.
type WebhookHandler struct {
	earnings  earningsService
	secret    string
	tolerance time.Duration
}

func NewWebhookHandler(earnings earningsService, secret string, tolerance time.Duration) *WebhookHandler {
	return &WebhookHandler{earnings: earnings, secret: secret, tolerance: tolerance}
}

func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	// The signature covers the body byte-for-byte as delivered; it must not
	// be re-serialized before verification.
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		log.Error("failed to read webhook body", "error", err)
		RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	event, err := stripeconn.ConstructEvent(body, r.Header.Get(stripeconn.SignatureHeader), h.secret, h.tolerance)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSignatureInvalid):
			log.Warn("webhook signature verification failed", "error", err)
			RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid signature"})
		default:
			log.Warn("malformed webhook payload", "error", err)
			RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		}
		return
	}

	result, err := h.earnings.Record(r.Context(), event)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedPayload) {
			log.Warn("webhook charge payload invalid", "event_id", event.ID, "error", err)
			RespondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		// Not acknowledged: the processor will redeliver and the ledger apply
		// is idempotent, so retrying is safe.
		log.Error("failed to apply webhook event", "event_id", event.ID, "error", err)
		RespondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	log.Info("webhook acknowledged", "event_id", event.ID, "event_type", event.Type, "result", string(result))
	RespondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}
