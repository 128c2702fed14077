package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/situationship/oracle/internal/domain"
	"github.com/situationship/oracle/internal/logging"
)

type oracleReader interface {
	Get(ctx context.Context, accountID string) (*domain.Oracle, error)
	List(ctx context.Context) ([]domain.Oracle, error)
}

// OracleHandler exposes read-only earnings for the dashboard UI.
type OracleHandler struct {
	ledger oracleReader
}

func NewOracleHandler(ledger oracleReader) *OracleHandler {
	return &OracleHandler{ledger: ledger}
}

type oracleResponse struct {
	AccountID   string `json:"account_id"`
	DisplayName string `json:"display_name"`
	Earned      string `json:"earned"`
	PlatformCut string `json:"platform_cut"`
	FirstSeenAt string `json:"first_seen_at"`
	UpdatedAt   string `json:"updated_at"`
}

func toOracleResponse(o *domain.Oracle) oracleResponse {
	return oracleResponse{
		AccountID:   o.AccountID,
		DisplayName: o.DisplayName,
		Earned:      o.Earned.StringFixed(2),
		PlatformCut: o.PlatformCut.StringFixed(2),
		FirstSeenAt: o.FirstSeenAt.UTC().Format(time.RFC3339),
		UpdatedAt:   o.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *OracleHandler) List(w http.ResponseWriter, r *http.Request) {
	oracles, err := h.ledger.List(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list oracles", "error", err)
		RespondDomainError(w, err)
		return
	}

	resp := make([]oracleResponse, 0, len(oracles))
	for i := range oracles {
		resp = append(resp, toOracleResponse(&oracles[i]))
	}
	RespondSuccess(w, http.StatusOK, resp)
}

func (h *OracleHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")
	if accountID == "" {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	oracle, err := h.ledger.Get(r.Context(), accountID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	RespondSuccess(w, http.StatusOK, toOracleResponse(oracle))
}
