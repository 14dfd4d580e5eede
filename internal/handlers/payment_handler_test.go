package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxsuite/tax-filing-backend/internal/middleware"
	"github.com/taxsuite/tax-filing-backend/internal/models"
	"github.com/taxsuite/tax-filing-backend/internal/provider"
	"github.com/taxsuite/tax-filing-backend/internal/repository"
	"github.com/taxsuite/tax-filing-backend/internal/service"
)

type stubAdapter struct {
	name    string
	outcome provider.ChargeOutcome
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Charge(_ context.Context, _ float64) provider.ChargeOutcome {
	return s.outcome
}

// fakeAuth stands in for the JWT middleware: the caller identity comes from a
// header so tests can impersonate different users.
func fakeAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, c.GetHeader("X-Test-User"))
		c.Next()
	}
}

func paymentTestRouter() (*gin.Engine, *repository.MemoryPaymentRepository) {
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryPaymentRepository()
	registry := provider.NewRegistry(
		&stubAdapter{name: "card", outcome: provider.ChargeOutcome{
			Kind:        provider.OutcomeConfirmed,
			ProviderRef: "pi_test",
			ClientToken: "pi_test_secret",
		}},
		&stubAdapter{name: "wallet", outcome: provider.ChargeOutcome{
			Kind:        provider.OutcomeCompleted,
			ProviderRef: "wallet-test",
		}},
	)
	orc := service.NewOrchestrator(repo, registry, nil, nil, false, time.Second)
	h := NewPaymentHandler(orc)

	r := gin.New()
	group := r.Group("/api/payments", fakeAuth())
	group.POST("/charge", h.Charge)
	group.GET("/status/:id", h.GetStatus)
	group.GET("/user", h.ListMine)
	group.POST("/confirm/:id", h.Confirm)
	return r, repo
}

func doJSON(t *testing.T, r *gin.Engine, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", user)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestChargeEndpoint_Card(t *testing.T) {
	r, repo := paymentTestRouter()

	w := doJSON(t, r, http.MethodPost, "/api/payments/charge", "user-1",
		gin.H{"amount": 120.50, "paymentMethod": "CardProvider"})
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["paymentId"])
	assert.Equal(t, "Pending", resp["paymentStatus"])
	assert.Equal(t, "pi_test_secret", resp["clientContinuationToken"])

	assert.Equal(t, 1, repo.Len())
}

func TestChargeEndpoint_Wallet_NoContinuationToken(t *testing.T) {
	r, _ := paymentTestRouter()

	w := doJSON(t, r, http.MethodPost, "/api/payments/charge", "user-1",
		gin.H{"amount": 75, "paymentMethod": "WalletProvider"})
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Succeeded", resp["paymentStatus"])
	_, hasToken := resp["clientContinuationToken"]
	assert.False(t, hasToken)
}

func TestChargeEndpoint_Validation(t *testing.T) {
	r, repo := paymentTestRouter()

	cases := []gin.H{
		{"paymentMethod": "CardProvider"},               // missing amount
		{"amount": -5, "paymentMethod": "CardProvider"}, // negative
		{"amount": 50, "paymentMethod": "Cheque"},       // unsupported
		{"amount": 50},                                  // missing method
	}
	for _, body := range cases {
		w := doJSON(t, r, http.MethodPost, "/api/payments/charge", "user-1", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	assert.Equal(t, 0, repo.Len())
}

func TestStatusEndpoint_AccessControl(t *testing.T) {
	r, _ := paymentTestRouter()

	w := doJSON(t, r, http.MethodPost, "/api/payments/charge", "user-1",
		gin.H{"amount": 60, "paymentMethod": "CardProvider"})
	require.Equal(t, http.StatusAccepted, w.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	paymentID := created["paymentId"].(string)

	w = doJSON(t, r, http.MethodGet, "/api/payments/status/"+paymentID, "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "Pending", status["paymentStatus"])
	assert.Equal(t, 60.0, status["amount"])
	assert.Equal(t, "CardProvider", status["paymentMethod"])

	w = doJSON(t, r, http.MethodGet, "/api/payments/status/"+paymentID, "user-2", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/payments/status/nope", "user-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListEndpoint_OnlyOwnPayments(t *testing.T) {
	r, _ := paymentTestRouter()

	for _, user := range []string{"user-1", "user-1", "user-2"} {
		w := doJSON(t, r, http.MethodPost, "/api/payments/charge", user,
			gin.H{"amount": 10, "paymentMethod": "WalletProvider"})
		require.Equal(t, http.StatusAccepted, w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/payments/user", "user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payments []models.Payment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payments))
	assert.Len(t, payments, 2)
	for _, p := range payments {
		assert.Equal(t, "user-1", p.OwnerID)
	}
}

func TestConfirmEndpoint(t *testing.T) {
	r, _ := paymentTestRouter()

	w := doJSON(t, r, http.MethodPost, "/api/payments/charge", "user-1",
		gin.H{"amount": 80, "paymentMethod": "CardProvider"})
	require.Equal(t, http.StatusAccepted, w.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	paymentID := created["paymentId"].(string)

	w = doJSON(t, r, http.MethodPost, "/api/payments/confirm/"+paymentID, "user-1",
		gin.H{"providerRef": "pi_test", "approved": true})
	require.Equal(t, http.StatusOK, w.Code)
	var confirmed map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &confirmed))
	assert.Equal(t, "Succeeded", confirmed["paymentStatus"])

	// Second confirmation hits a terminal record.
	w = doJSON(t, r, http.MethodPost, "/api/payments/confirm/"+paymentID, "user-1",
		gin.H{"providerRef": "pi_test", "approved": false})
	assert.Equal(t, http.StatusConflict, w.Code)
}
