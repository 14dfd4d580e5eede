package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChargesTotal counts charge requests by method and resulting status.
	ChargesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tax_backend_charges_total",
		Help: "Charge requests by payment method and resulting status.",
	}, []string{"method", "status"})

	// DegradedTransactionsTotal counts payments recorded through the
	// degraded fallback. These are not genuine provider confirmations.
	DegradedTransactionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tax_backend_degraded_transactions_total",
		Help: "Payments marked Succeeded via the degraded provider-unavailable fallback.",
	})

	// PaymentQueriesTotal counts status/list lookups by outcome.
	PaymentQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tax_backend_payment_queries_total",
		Help: "Payment status and listing queries by outcome.",
	}, []string{"result"})
)
