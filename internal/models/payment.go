package models

import "time"

type PaymentStatus string

const (
	StatusPending   PaymentStatus = "Pending"
	StatusSucceeded PaymentStatus = "Succeeded"
	StatusFailed    PaymentStatus = "Failed"
)

// Terminal reports whether a status admits no further transitions.
func (s PaymentStatus) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

type PaymentMethod string

const (
	MethodCard   PaymentMethod = "CardProvider"
	MethodWallet PaymentMethod = "WalletProvider"
)

// ParseMethod maps the client-supplied method string onto the closed enum.
func ParseMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(s) {
	case MethodCard:
		return MethodCard, true
	case MethodWallet:
		return MethodWallet, true
	}
	return "", false
}

// Payment is a single charge attempt. OwnerID and Amount are immutable after
// creation; Status and ProviderRef are written only by the orchestrator's
// reconciliation step.
type Payment struct {
	ID          string        `json:"paymentId"`
	OwnerID     string        `json:"userId"`
	Amount      float64       `json:"amount"`
	Method      PaymentMethod `json:"paymentMethod"`
	ProviderRef string        `json:"providerRef,omitempty"`
	Degraded    bool          `json:"degraded,omitempty"`
	Status      PaymentStatus `json:"paymentStatus"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// PaymentFilter narrows admin payment listings. Zero values mean "any".
type PaymentFilter struct {
	Status  PaymentStatus
	OwnerID string
	Method  PaymentMethod
	Page    int
	Limit   int
}

// MethodStat is one row of the per-method payment aggregation.
type MethodStat struct {
	Method PaymentMethod `json:"paymentMethod"`
	Count  int           `json:"count"`
	Total  float64       `json:"total"`
}

// StatusStat is one row of the by-status payment aggregation.
type StatusStat struct {
	Status PaymentStatus `json:"paymentStatus"`
	Count  int           `json:"count"`
	Total  float64       `json:"total"`
}
