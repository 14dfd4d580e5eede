package provider

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// WalletAdapter settles the charge synchronously server-side; the wallet flow
// needs no client continuation step.
type WalletAdapter struct{}

func NewWalletAdapter() *WalletAdapter { return &WalletAdapter{} }

func (a *WalletAdapter) Name() string { return "wallet" }

func (a *WalletAdapter) Charge(_ context.Context, _ float64) ChargeOutcome {
	return ChargeOutcome{
		Kind:        OutcomeCompleted,
		ProviderRef: fmt.Sprintf("wallet-%s", uuid.NewString()),
	}
}
