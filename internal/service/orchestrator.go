package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/taxsuite/tax-filing-backend/internal/interfaces"
	"github.com/taxsuite/tax-filing-backend/internal/metrics"
	"github.com/taxsuite/tax-filing-backend/internal/models"
	"github.com/taxsuite/tax-filing-backend/internal/provider"
	"github.com/taxsuite/tax-filing-backend/internal/telemetry"
)

// DegradedRefPrefix tags synthetic provider references recorded when the
// provider was unreachable, so they are distinguishable from genuine ones.
const DegradedRefPrefix = "degraded-"

const confirmLockTTL = 30 * time.Second

// EventWriter publishes payment state-change events. *kafka.Writer satisfies
// it; tests inject a capturing implementation.
type EventWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// ChargeReceipt is what the caller gets back from CreateCharge.
type ChargeReceipt struct {
	PaymentID   string
	Status      models.PaymentStatus
	ProviderRef string
	ClientToken string
}

// Orchestrator turns a charge request into a persisted, reconciled Payment.
// The provisional record is durable before any provider is contacted, so a
// crash mid-dispatch never loses track of an attempted charge.
type Orchestrator struct {
	repo        interfaces.PaymentRepository
	providers   *provider.Registry
	redisClient *redis.Client
	events      EventWriter

	// degradedFallback records a payment as Succeeded with a synthetic
	// reference when the provider is unavailable. Off in production.
	degradedFallback bool
	providerTimeout  time.Duration
}

func NewOrchestrator(
	repo interfaces.PaymentRepository,
	providers *provider.Registry,
	redisClient *redis.Client,
	events EventWriter,
	degradedFallback bool,
	providerTimeout time.Duration,
) *Orchestrator {
	if providerTimeout <= 0 {
		providerTimeout = 10 * time.Second
	}
	return &Orchestrator{
		repo:             repo,
		providers:        providers,
		redisClient:      redisClient,
		events:           events,
		degradedFallback: degradedFallback,
		providerTimeout:  providerTimeout,
	}
}

// CreateCharge validates the request, provisions a Pending record, dispatches
// to the selected provider and reconciles the record with the outcome.
func (o *Orchestrator) CreateCharge(ctx context.Context, callerID string, amount float64, rawMethod string) (*ChargeReceipt, error) {
	if callerID == "" || amount <= 0 || rawMethod == "" {
		return nil, ErrInvalidRequest
	}
	method, ok := models.ParseMethod(rawMethod)
	if !ok {
		return nil, ErrUnsupportedMethod
	}
	adapter, ok := o.providers.ForMethod(method)
	if !ok {
		return nil, ErrUnsupportedMethod
	}

	now := time.Now().UTC()
	payment := &models.Payment{
		ID:        uuid.NewString(),
		OwnerID:   callerID,
		Amount:    amount,
		Method:    method,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := o.repo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("persisting provisional payment: %w", err)
	}
	o.publishStateChange(ctx, payment.ID, "", models.StatusPending, false)

	dispatchCtx, cancel := context.WithTimeout(ctx, o.providerTimeout)
	defer cancel()
	outcome := adapter.Charge(dispatchCtx, amount)

	receipt := &ChargeReceipt{PaymentID: payment.ID}

	switch outcome.Kind {
	case provider.OutcomeConfirmed:
		// Provider accepted the charge; the client completes it. The record
		// stays Pending with the provider reference attached.
		if _, err := o.repo.Reconcile(ctx, payment.ID, models.StatusPending, outcome.ProviderRef, false); err != nil {
			return nil, fmt.Errorf("recording provider reference: %w", err)
		}
		receipt.Status = models.StatusPending
		receipt.ProviderRef = outcome.ProviderRef
		receipt.ClientToken = outcome.ClientToken
		metrics.ChargesTotal.WithLabelValues(string(method), string(models.StatusPending)).Inc()

		telemetry.Logger.Info("charge confirmed by provider",
			zap.String("payment_id", payment.ID),
			zap.String("method", string(method)),
			zap.String("provider_ref", outcome.ProviderRef),
		)

	case provider.OutcomeCompleted:
		if err := o.transition(ctx, payment.ID, models.StatusSucceeded, outcome.ProviderRef, false); err != nil {
			return nil, err
		}
		receipt.Status = models.StatusSucceeded
		receipt.ProviderRef = outcome.ProviderRef
		metrics.ChargesTotal.WithLabelValues(string(method), string(models.StatusSucceeded)).Inc()

		telemetry.Logger.Info("charge settled by provider",
			zap.String("payment_id", payment.ID),
			zap.String("method", string(method)),
			zap.String("provider_ref", outcome.ProviderRef),
		)

	case provider.OutcomeUnavailable:
		if !o.degradedFallback {
			// The record stays Pending and is resolvable later via Confirm.
			receipt.Status = models.StatusPending
			metrics.ChargesTotal.WithLabelValues(string(method), string(models.StatusPending)).Inc()
			telemetry.Logger.Warn("provider unavailable, payment left pending",
				zap.String("payment_id", payment.ID),
				zap.String("method", string(method)),
				zap.String("reason", outcome.Reason),
			)
			break
		}

		syntheticRef := DegradedRefPrefix + uuid.NewString()
		if err := o.transition(ctx, payment.ID, models.StatusSucceeded, syntheticRef, true); err != nil {
			return nil, err
		}
		receipt.Status = models.StatusSucceeded
		receipt.ProviderRef = syntheticRef
		metrics.ChargesTotal.WithLabelValues(string(method), string(models.StatusSucceeded)).Inc()
		metrics.DegradedTransactionsTotal.Inc()

		telemetry.Logger.Warn("provider unavailable, degraded fallback applied",
			zap.String("payment_id", payment.ID),
			zap.String("method", string(method)),
			zap.String("provider_ref", syntheticRef),
			zap.String("reason", outcome.Reason),
			zap.Bool("degraded", true),
		)

	default:
		return nil, fmt.Errorf("unexpected charge outcome %q for payment %s", outcome.Kind, payment.ID)
	}

	return receipt, nil
}

// Confirm is the asynchronous reconciliation entry point: it drives a Pending
// payment to its terminal state once the client-side flow has finished.
func (o *Orchestrator) Confirm(ctx context.Context, callerID, paymentID, providerRef string, approved bool) (*models.Payment, error) {
	if providerRef == "" {
		return nil, ErrInvalidRequest
	}

	payment, err := o.getOwned(ctx, callerID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status.Terminal() {
		return nil, ErrConflict
	}
	if payment.ProviderRef != "" && payment.ProviderRef != providerRef {
		return nil, ErrInvalidRequest
	}

	if o.redisClient != nil {
		lockKey := fmt.Sprintf("payment_lock:%s", paymentID)
		locked, err := o.redisClient.SetNX(ctx, lockKey, "1", confirmLockTTL).Result()
		if err == nil && !locked {
			return nil, ErrConflict
		}
		defer o.redisClient.Del(ctx, lockKey)
	}

	status := models.StatusSucceeded
	if !approved {
		status = models.StatusFailed
	}

	rows, err := o.repo.Reconcile(ctx, paymentID, status, providerRef, false)
	if err != nil {
		return nil, fmt.Errorf("reconciling payment %s: %w", paymentID, err)
	}
	if rows == 0 {
		return nil, ErrConflict
	}
	o.publishStateChange(ctx, paymentID, models.StatusPending, status, false)

	telemetry.Logger.Info("payment reconciled",
		zap.String("payment_id", paymentID),
		zap.String("status", string(status)),
	)

	return o.repo.GetByID(ctx, paymentID)
}

// GetStatus returns the stored payment if the caller owns it.
func (o *Orchestrator) GetStatus(ctx context.Context, callerID, paymentID string) (*models.Payment, error) {
	payment, err := o.getOwned(ctx, callerID, paymentID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			metrics.PaymentQueriesTotal.WithLabelValues("not_found").Inc()
		case errors.Is(err, ErrForbidden):
			metrics.PaymentQueriesTotal.WithLabelValues("forbidden").Inc()
		}
		return nil, err
	}
	metrics.PaymentQueriesTotal.WithLabelValues("ok").Inc()
	return payment, nil
}

// ListMine returns the caller's payments, newest first.
func (o *Orchestrator) ListMine(ctx context.Context, callerID string) ([]models.Payment, error) {
	payments, err := o.repo.ListByOwner(ctx, callerID, 0)
	if err != nil {
		return nil, err
	}
	metrics.PaymentQueriesTotal.WithLabelValues("ok").Inc()
	return payments, nil
}

func (o *Orchestrator) getOwned(ctx context.Context, callerID, paymentID string) (*models.Payment, error) {
	payment, err := o.repo.GetByID(ctx, paymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if payment.OwnerID != callerID {
		return nil, ErrForbidden
	}
	return payment, nil
}

// transition finalizes a Pending payment and publishes the state change.
func (o *Orchestrator) transition(ctx context.Context, paymentID string, to models.PaymentStatus, providerRef string, degraded bool) error {
	rows, err := o.repo.Reconcile(ctx, paymentID, to, providerRef, degraded)
	if err != nil {
		return fmt.Errorf("reconciling payment %s: %w", paymentID, err)
	}
	if rows == 0 {
		return fmt.Errorf("invalid state transition to %s for payment %s", to, paymentID)
	}
	o.publishStateChange(ctx, paymentID, models.StatusPending, to, degraded)
	return nil
}

func (o *Orchestrator) publishStateChange(ctx context.Context, paymentID string, from, to models.PaymentStatus, degraded bool) {
	if o.events == nil {
		return
	}

	stateEvent := map[string]interface{}{
		"payment_id":     paymentID,
		"state":          to,
		"previous_state": from,
		"degraded":       degraded,
		"timestamp":      time.Now().UTC(),
	}
	eventJSON, _ := json.Marshal(stateEvent)

	if err := o.events.WriteMessages(ctx, kafka.Message{
		Key:   []byte(paymentID),
		Value: eventJSON,
	}); err != nil {
		telemetry.Logger.Error("failed to publish payment state change",
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
	}
}
