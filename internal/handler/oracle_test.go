package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/situationship/oracle/internal/domain"
)

type mockOracleReader struct {
	oracles map[string]*domain.Oracle
	listErr error
}

func (m *mockOracleReader) Get(_ context.Context, accountID string) (*domain.Oracle, error) {
	if o, ok := m.oracles[accountID]; ok {
		return o, nil
	}
	return nil, fmt.Errorf("Get: %w", domain.ErrNotFound)
}

func (m *mockOracleReader) List(context.Context) ([]domain.Oracle, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.Oracle, 0, len(m.oracles))
	for _, o := range m.oracles {
		out = append(out, *o)
	}
	return out, nil
}

func testOracle(accountID string) *domain.Oracle {
	return &domain.Oracle{
		AccountID:   accountID,
		DisplayName: "Madame Zostra",
		Earned:      decimal.New(250, -2),
		PlatformCut: decimal.New(25, -2),
		FirstSeenAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}
}

func newOracleMux(reader *mockOracleReader) *http.ServeMux {
	h := NewOracleHandler(reader)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /oracles", h.List)
	mux.HandleFunc("GET /oracles/{id}", h.Get)
	return mux
}

func TestOracleGet(t *testing.T) {
	mux := newOracleMux(&mockOracleReader{oracles: map[string]*domain.Oracle{
		"acct_A": testOracle("acct_A"),
	}})

	req := httptest.NewRequest(http.MethodGet, "/oracles/acct_A", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "acct_A", data["account_id"])
	assert.Equal(t, "Madame Zostra", data["display_name"])
	assert.Equal(t, "2.50", data["earned"])
	assert.Equal(t, "0.25", data["platform_cut"])
}

func TestOracleGetNotFound(t *testing.T) {
	mux := newOracleMux(&mockOracleReader{})

	req := httptest.NewRequest(http.MethodGet, "/oracles/acct_missing", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "RESOURCE_NOT_FOUND", resp.Error.Code)
}

func TestOracleList(t *testing.T) {
	mux := newOracleMux(&mockOracleReader{oracles: map[string]*domain.Oracle{
		"acct_A": testOracle("acct_A"),
		"acct_B": testOracle("acct_B"),
	}})

	req := httptest.NewRequest(http.MethodGet, "/oracles", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	assert.Len(t, resp.Data.([]any), 2)
}

func TestOracleListEmpty(t *testing.T) {
	mux := newOracleMux(&mockOracleReader{})

	req := httptest.NewRequest(http.MethodGet, "/oracles", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Len(t, resp.Data.([]any), 0)
}

func TestOracleListError(t *testing.T) {
	mux := newOracleMux(&mockOracleReader{listErr: fmt.Errorf("connection reset")})

	req := httptest.NewRequest(http.MethodGet, "/oracles", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
