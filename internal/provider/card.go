package provider

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/taxsuite/tax-filing-backend/internal/telemetry"
)

// cardIntentRequest is the body sent to the hosted card API. Amount is in
// cents, as card processors expect.
type cardIntentRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// cardIntentResponse is the successful response from the intent endpoint.
type cardIntentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

// cardAPIError is the error envelope the card API returns on non-2xx.
type cardAPIError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CardAdapter creates a charge intent against a hosted card-payment API and
// hands the client a continuation token to complete authentication.
type CardAdapter struct {
	client  *resty.Client
	baseURL string
}

func NewCardAdapter(baseURL, apiKey string, timeout time.Duration) *CardAdapter {
	client := resty.New().
		SetAuthToken(apiKey).
		SetTimeout(timeout)
	return &CardAdapter{client: client, baseURL: baseURL}
}

func (a *CardAdapter) Name() string { return "card" }

func (a *CardAdapter) Charge(ctx context.Context, amount float64) ChargeOutcome {
	req := cardIntentRequest{
		Amount:   int64(math.Round(amount * 100)),
		Currency: "usd",
	}

	var intent cardIntentResponse
	var apiErr cardAPIError

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetResult(&intent).
		SetError(&apiErr).
		Post(a.baseURL + "/v1/payment_intents")

	if err != nil {
		// Network-level failure: DNS, connect, timeout.
		telemetry.Logger.Warn("card provider unreachable", zap.Error(err))
		return ChargeOutcome{Kind: OutcomeUnavailable, Reason: err.Error()}
	}

	if resp.IsError() {
		reason := fmt.Sprintf("card provider returned %s", resp.Status())
		if apiErr.Error.Message != "" {
			reason = fmt.Sprintf("%s: %s", reason, apiErr.Error.Message)
		}
		telemetry.Logger.Warn("card provider rejected request",
			zap.Int("status", resp.StatusCode()),
			zap.String("error_type", apiErr.Error.Type),
		)
		return ChargeOutcome{Kind: OutcomeUnavailable, Reason: reason}
	}

	if intent.ID == "" || intent.ClientSecret == "" {
		return ChargeOutcome{Kind: OutcomeUnavailable, Reason: "card provider returned an incomplete intent"}
	}

	return ChargeOutcome{
		Kind:        OutcomeConfirmed,
		ProviderRef: intent.ID,
		ClientToken: intent.ClientSecret,
	}
}
