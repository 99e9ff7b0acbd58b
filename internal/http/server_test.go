package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finpulse/internal/core"
	"finpulse/internal/engine"
	"finpulse/internal/log"
	"finpulse/internal/services"
)

type stubAPI struct {
	record   core.MetricsRecord
	insight  *core.RefinanceInsight
	resets   []string
	refreshs []string
}

func (a *stubAPI) Dashboard(_ context.Context, userID string) (core.MetricsRecord, error) {
	if userID != "user-1" {
		return core.MetricsRecord{}, fmt.Errorf("user %s: %w", userID, core.ErrSnapshotNotFound)
	}
	return a.record, nil
}

func (a *stubAPI) ApplyPayment(_ context.Context, userID, obligationID string, amount core.Money) (core.MetricsRecord, error) {
	if obligationID != "ob-loan" {
		return core.MetricsRecord{}, fmt.Errorf("obligation %s: %w", obligationID, core.ErrUnknownObligation)
	}
	if !amount.IsPositive() {
		return core.MetricsRecord{}, core.ErrInvalidAmount
	}
	return a.record, nil
}

func (a *stubAPI) SetBankEnabled(_ context.Context, _, bankID string, _ bool) (core.MetricsRecord, error) {
	if bankID != "alfa" {
		return core.MetricsRecord{}, fmt.Errorf("bank %s: %w", bankID, core.ErrUnknownBank)
	}
	return a.record, nil
}

func (a *stubAPI) RecordSpend(_ context.Context, _ string, amount core.Money) (core.MetricsRecord, error) {
	if !amount.IsPositive() {
		return core.MetricsRecord{}, core.ErrInvalidAmount
	}
	return a.record, nil
}

func (a *stubAPI) UpdateSettings(_ context.Context, _ string, settings engine.Settings) (core.MetricsRecord, error) {
	if !settings.Valid() {
		return core.MetricsRecord{}, services.ErrInvalidSettings
	}
	return a.record, nil
}

func (a *stubAPI) Refinance(_ context.Context, _ string) (*core.RefinanceInsight, error) {
	return a.insight, nil
}

func (a *stubAPI) RequestRefresh(_ context.Context, userID string) error {
	a.refreshs = append(a.refreshs, userID)
	return nil
}

func (a *stubAPI) ResetSession(userID string) {
	a.resets = append(a.resets, userID)
}

func testServer(t *testing.T, api *stubAPI) *Server {
	t.Helper()
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	s := NewServer(":0", api, logger)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func doRequest(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s := testServer(t, &stubAPI{})

	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(s, http.MethodGet, "/readyz", "").Code)
}

func TestDashboardEndpoint(t *testing.T) {
	api := &stubAPI{record: core.MetricsRecord{STSDaily: core.Money{Cents: 123_456}}}
	s := testServer(t, api)

	rec := doRequest(s, http.MethodGet, "/api/v1/dashboard?user_id=user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.JSONEq(t, "1234.56", string(body["sts_daily"]))
}

func TestDashboardMissingUser(t *testing.T) {
	s := testServer(t, &stubAPI{})

	rec := doRequest(s, http.MethodGet, "/api/v1/dashboard", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(s, http.MethodGet, "/api/v1/dashboard?user_id=nobody", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no bank data")
}

func TestApplyPaymentEndpoint(t *testing.T) {
	s := testServer(t, &stubAPI{})

	rec := doRequest(s, http.MethodPost, "/api/v1/payments",
		`{"user_id": "user-1", "obligation_id": "ob-loan", "amount": 1000.00}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/v1/payments",
		`{"user_id": "user-1", "obligation_id": "ghost", "amount": 1000.00}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/v1/payments",
		`{"user_id": "user-1", "obligation_id": "ob-loan", "amount": 0}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/v1/payments", `{"obligation_id": "ob-loan"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApplyPaymentRejectsBadJSON(t *testing.T) {
	s := testServer(t, &stubAPI{})

	rec := doRequest(s, http.MethodPost, "/api/v1/payments", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed JSON")

	rec = doRequest(s, http.MethodPost, "/api/v1/payments", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/v1/payments",
		`{"user_id": "user-1", "obligation_id": "ob-loan", "amount": 10, "extra": true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown field")
}

func TestBankToggleEndpoint(t *testing.T) {
	s := testServer(t, &stubAPI{})

	rec := doRequest(s, http.MethodPost, "/api/v1/banks/alfa/enabled",
		`{"user_id": "user-1", "enabled": false}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/v1/banks/ghost/enabled",
		`{"user_id": "user-1", "enabled": false}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// enabled must be present, not defaulted to false
	rec = doRequest(s, http.MethodPost, "/api/v1/banks/alfa/enabled", `{"user_id": "user-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSpendEndpoint(t *testing.T) {
	s := testServer(t, &stubAPI{})

	rec := doRequest(s, http.MethodPost, "/api/v1/spend", `{"user_id": "user-1", "amount": 25.00}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodPost, "/api/v1/spend", `{"user_id": "user-1", "amount": -5}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSettingsEndpoint(t *testing.T) {
	s := testServer(t, &stubAPI{})

	rec := doRequest(s, http.MethodPut, "/api/v1/settings",
		`{"user_id": "user-1", "strategy": "snowball", "risk": "aggressive", "goal": "pay_debts"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodPut, "/api/v1/settings",
		`{"user_id": "user-1", "strategy": "martingale", "risk": "balanced", "goal": "pay_debts"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRefinanceEndpoint(t *testing.T) {
	api := &stubAPI{}
	s := testServer(t, api)

	rec := doRequest(s, http.MethodGet, "/api/v1/refinance?user_id=user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"eligible":false`)

	api.insight = &core.RefinanceInsight{CurrentRatePct: 12.5, ProposedRatePct: 10.5}
	rec = doRequest(s, http.MethodGet, "/api/v1/refinance?user_id=user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"eligible":true`)
	assert.Contains(t, rec.Body.String(), `"proposed_rate_pct":10.5`)
}

func TestRefreshEndpoint(t *testing.T) {
	api := &stubAPI{}
	s := testServer(t, api)

	rec := doRequest(s, http.MethodPost, "/api/v1/refresh", `{"user_id": "user-1"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"user-1"}, api.refreshs)
}

func TestResetSessionEndpoint(t *testing.T) {
	api := &stubAPI{}
	s := testServer(t, api)

	rec := doRequest(s, http.MethodPost, "/api/v1/session/reset", `{"user_id": "user-1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"user-1"}, api.resets)
}

func TestSecurityHeadersApplied(t *testing.T) {
	s := testServer(t, &stubAPI{})

	rec := doRequest(s, http.MethodGet, "/healthz", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
