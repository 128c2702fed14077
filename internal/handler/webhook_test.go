package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/situationship/oracle/internal/domain"
	"github.com/situationship/oracle/internal/stripeconn"
)

const testWebhookSecret = "whsec_test"

type mockEarnings struct {
	received *stripeconn.Event
	result   domain.ApplyResult
	err      error
}

func (m *mockEarnings) Record(_ context.Context, event *stripeconn.Event) (domain.ApplyResult, error) {
	m.received = event
	if m.err != nil {
		return "", m.err
	}
	return m.result, nil
}

func validEventBody() string {
	body, _ := json.Marshal(map[string]any{
		"id":   "evt_1",
		"type": "charge.succeeded",
		"data": map[string]any{
			"object": map[string]any{
				"id": "ch_1", "amount": 250, "currency": "usd", "destination": "acct_A",
			},
		},
	})
	return string(body)
}

func signed(body string) string {
	return stripeconn.SignHeader([]byte(body), time.Now().Unix(), testWebhookSecret)
}

func TestReceive(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupSig   func(body string) string
		result     domain.ApplyResult
		recordErr  error
		wantStatus int
		wantBody   map[string]string
		wantCalled bool
	}{
		{
			name:       "applied charge acknowledged",
			body:       validEventBody(),
			setupSig:   signed,
			result:     domain.ResultApplied,
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"status": "success"},
			wantCalled: true,
		},
		{
			name:       "duplicate delivery acknowledged",
			body:       validEventBody(),
			setupSig:   signed,
			result:     domain.ResultAlreadyApplied,
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"status": "success"},
			wantCalled: true,
		},
		{
			name:       "unrelated event acknowledged as no-op",
			body:       validEventBody(),
			setupSig:   signed,
			result:     domain.ResultSkipped,
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"status": "success"},
			wantCalled: true,
		},
		{
			name:       "missing signature rejected",
			body:       validEventBody(),
			setupSig:   func(string) string { return "" },
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]string{"error": "invalid signature"},
		},
		{
			name:       "wrong signature rejected",
			body:       validEventBody(),
			setupSig:   func(string) string { return "t=1,v1=deadbeef" },
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]string{"error": "invalid signature"},
		},
		{
			name: "tampered body rejected",
			body: strings.Replace(validEventBody(), "250", "999", 1),
			setupSig: func(string) string {
				return signed(validEventBody())
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]string{"error": "invalid signature"},
		},
		{
			name:       "signed garbage rejected as malformed",
			body:       "not-json",
			setupSig:   signed,
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]string{"error": "invalid payload"},
		},
		{
			name:       "malformed charge rejected",
			body:       validEventBody(),
			setupSig:   signed,
			recordErr:  fmt.Errorf("Record: %w", domain.ErrMalformedPayload),
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]string{"error": "invalid payload"},
			wantCalled: true,
		},
		{
			name:       "persistence failure is not acknowledged",
			body:       validEventBody(),
			setupSig:   signed,
			recordErr:  fmt.Errorf("Apply: commit: connection reset"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   map[string]string{"error": "internal error"},
			wantCalled: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			earnings := &mockEarnings{result: tc.result, err: tc.recordErr}
			h := NewWebhookHandler(earnings, testWebhookSecret, 5*time.Minute)

			req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(tc.body))
			if sig := tc.setupSig(tc.body); sig != "" {
				req.Header.Set(stripeconn.SignatureHeader, sig)
			}
			rr := httptest.NewRecorder()

			h.Receive(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tc.wantBody, resp)

			if tc.wantCalled {
				require.NotNil(t, earnings.received)
				assert.Equal(t, "evt_1", earnings.received.ID)
			} else {
				assert.Nil(t, earnings.received)
			}
		})
	}
}

func TestReceiveExpiredTimestampRejected(t *testing.T) {
	earnings := &mockEarnings{result: domain.ResultApplied}
	h := NewWebhookHandler(earnings, testWebhookSecret, 5*time.Minute)

	body := validEventBody()
	sig := stripeconn.SignHeader([]byte(body), time.Now().Add(-time.Hour).Unix(), testWebhookSecret)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set(stripeconn.SignatureHeader, sig)
	rr := httptest.NewRecorder()

	h.Receive(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Nil(t, earnings.received)
}
