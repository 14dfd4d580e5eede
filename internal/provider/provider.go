// Package provider holds the adapters to external payment processors. Each
// adapter normalizes the processor's response into a tagged ChargeOutcome so
// the orchestrator reconciles every branch explicitly, including the
// provider-unreachable case.
package provider

import (
	"context"

	"github.com/taxsuite/tax-filing-backend/internal/models"
)

type OutcomeKind string

const (
	// OutcomeConfirmed: the provider accepted the charge but the client must
	// complete it (card flow). The payment stays Pending.
	OutcomeConfirmed OutcomeKind = "Confirmed"
	// OutcomeCompleted: the provider settled the charge synchronously
	// (wallet flow). The payment becomes Succeeded.
	OutcomeCompleted OutcomeKind = "Completed"
	// OutcomeUnavailable: the provider could not be reached or rejected the
	// request at the transport/authorization level. Distinct from a decline.
	OutcomeUnavailable OutcomeKind = "Unavailable"
)

// ChargeOutcome is the normalized result of a charge attempt.
type ChargeOutcome struct {
	Kind        OutcomeKind
	ProviderRef string // set for Confirmed and Completed
	ClientToken string // set for Confirmed: client-side continuation token
	Reason      string // set for Unavailable
}

// Adapter is the boundary to a single external payment processor.
type Adapter interface {
	Charge(ctx context.Context, amount float64) ChargeOutcome
	Name() string
}

// Registry maps the closed method enum to constructed adapters.
type Registry struct {
	card   Adapter
	wallet Adapter
}

func NewRegistry(card, wallet Adapter) *Registry {
	return &Registry{card: card, wallet: wallet}
}

// ForMethod selects the adapter for a recognized payment method. The switch
// is exhaustive over models.PaymentMethod; unknown values are rejected by
// validation before this point.
func (r *Registry) ForMethod(method models.PaymentMethod) (Adapter, bool) {
	switch method {
	case models.MethodCard:
		return r.card, true
	case models.MethodWallet:
		return r.wallet, true
	}
	return nil, false
}
