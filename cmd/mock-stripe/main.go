// mock-stripe is a local stand-in for the payment processor. It serves the
// small slice of the accounts API the service consumes and can fire signed
// charge.succeeded webhooks at a running api instance, which makes the whole
// ledger path testable without processor credentials.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/situationship/oracle/internal/logging"
	"github.com/situationship/oracle/internal/stripeconn"
)

func main() {
	logging.Init("mock-stripe", "info", os.Getenv("APP_ENV"))

	secret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if secret == "" {
		secret = "whsec_mock"
	}
	target := os.Getenv("WEBHOOK_TARGET_URL")
	if target == "" {
		target = "http://localhost:8080/webhook"
	}

	srv := &mockProcessor{secret: secret, target: target}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /v1/accounts/{id}", srv.getAccount)
	mux.HandleFunc("POST /v1/accounts", srv.createAccount)
	mux.HandleFunc("POST /v1/account_links", srv.createAccountLink)
	mux.HandleFunc("POST /v1/checkout/sessions", srv.createCheckoutSession)
	mux.HandleFunc("POST /fire-charge", srv.fireCharge)

	slog.Info("mock processor started", "addr", ":8081", "webhook_target", target)
	if err := http.ListenAndServe(":8081", mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

type mockProcessor struct {
	secret string
	target string
}

func (m *mockProcessor) getAccount(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	writeJSON(w, http.StatusOK, map[string]any{
		"id":    id,
		"email": fmt.Sprintf("%s@example.com", strings.TrimPrefix(id, "acct_")),
		"business_profile": map[string]string{
			"name": "Oracle of " + strings.TrimPrefix(id, "acct_"),
		},
	})
}

func (m *mockProcessor) createAccount(w http.ResponseWriter, r *http.Request) {
	id := "acct_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	slog.Info("connected account created", "account_id", id)
	writeJSON(w, http.StatusOK, map[string]any{"id": id})
}

func (m *mockProcessor) createAccountLink(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad form"})
		return
	}
	account := r.PostForm.Get("account")
	writeJSON(w, http.StatusOK, map[string]string{
		"url": "http://localhost:8081/onboarding/" + account,
	})
}

func (m *mockProcessor) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	id := "cs_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	writeJSON(w, http.StatusOK, map[string]string{
		"id":  id,
		"url": "http://localhost:8081/pay/" + id,
	})
}

type fireChargeRequest struct {
	AccountID string `json:"account_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	EventID   string `json:"event_id"`
	Deliver   int    `json:"deliver"`
}

// fireCharge delivers a signed charge.succeeded event to the configured
// target. Setting deliver > 1 repeats the identical delivery, which is how
// the processor's at-least-once retries look to the receiver.
func (m *mockProcessor) fireCharge(w http.ResponseWriter, r *http.Request) {
	var req fireChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad body"})
		return
	}
	if req.EventID == "" {
		req.EventID = "evt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	}
	if req.Currency == "" {
		req.Currency = "usd"
	}
	if req.Deliver < 1 {
		req.Deliver = 1
	}

	payload, _ := json.Marshal(map[string]any{
		"id":   req.EventID,
		"type": "charge.succeeded",
		"data": map[string]any{
			"object": map[string]any{
				"id":          "ch_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
				"amount":      req.Amount,
				"currency":    req.Currency,
				"destination": req.AccountID,
				"created":     time.Now().Unix(),
			},
		},
	})
	sig := stripeconn.SignHeader(payload, time.Now().Unix(), m.secret)

	statuses := make([]int, 0, req.Deliver)
	for range req.Deliver {
		status, err := m.deliver(payload, sig)
		if err != nil {
			slog.Error("webhook delivery failed", "event_id", req.EventID, "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		statuses = append(statuses, status)
	}

	slog.Info("webhook delivered", "event_id", req.EventID, "deliveries", req.Deliver, "statuses", statuses)
	writeJSON(w, http.StatusOK, map[string]any{"event_id": req.EventID, "statuses": statuses})
}

func (m *mockProcessor) deliver(payload []byte, sig string) (int, error) {
	httpReq, err := http.NewRequest(http.MethodPost, m.target, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(stripeconn.SignatureHeader, sig)

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}
