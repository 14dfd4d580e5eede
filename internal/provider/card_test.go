package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardAdapter_Charge_Confirmed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_key", r.Header.Get("Authorization"))

		var req cardIntentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(12050), req.Amount, "amount must be converted to cents")
		assert.Equal(t, "usd", req.Currency)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(cardIntentResponse{
			ID:           "pi_789",
			ClientSecret: "pi_789_secret",
			Status:       "requires_confirmation",
		})
	}))
	defer server.Close()

	adapter := NewCardAdapter(server.URL, "sk_test_key", 2*time.Second)
	outcome := adapter.Charge(context.Background(), 120.50)

	assert.Equal(t, OutcomeConfirmed, outcome.Kind)
	assert.Equal(t, "pi_789", outcome.ProviderRef)
	assert.Equal(t, "pi_789_secret", outcome.ClientToken)
}

func TestCardAdapter_Charge_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "invalid_request_error", "message": "Invalid API Key"},
		})
	}))
	defer server.Close()

	adapter := NewCardAdapter(server.URL, "sk_bad_key", 2*time.Second)
	outcome := adapter.Charge(context.Background(), 50)

	assert.Equal(t, OutcomeUnavailable, outcome.Kind)
	assert.Contains(t, outcome.Reason, "401")
	assert.Contains(t, outcome.Reason, "Invalid API Key")
	assert.Empty(t, outcome.ProviderRef)
}

func TestCardAdapter_Charge_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	adapter := NewCardAdapter(server.URL, "sk_test_key", time.Second)
	outcome := adapter.Charge(context.Background(), 50)

	assert.Equal(t, OutcomeUnavailable, outcome.Kind)
	assert.NotEmpty(t, outcome.Reason)
}

func TestCardAdapter_Charge_IncompleteIntent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"id": "pi_000"})
	}))
	defer server.Close()

	adapter := NewCardAdapter(server.URL, "sk_test_key", time.Second)
	outcome := adapter.Charge(context.Background(), 50)

	assert.Equal(t, OutcomeUnavailable, outcome.Kind)
}
