package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PaymentMetrics holds the prometheus instruments for the checkout flow.
type PaymentMetrics struct {
	// Persisted transaction outcomes.
	TransactionsSavedTotal *prometheus.CounterVec

	// Writes dropped by the monotonic-status rule.
	TransactionsDroppedTotal *prometheus.CounterVec

	// Orders prepared and result tokens issued.
	OrdersPreparedTotal     prometheus.Counter
	ResultTokensIssuedTotal prometheus.Counter

	// SDK token exchanges with the upstream gateway.
	SDKTokenRequestsTotal *prometheus.CounterVec

	// End-to-end duration of the serialized save-transaction path.
	SaveTransactionDuration prometheus.Histogram
}

// NewPaymentMetrics registers and returns the payment metrics.
func NewPaymentMetrics() *PaymentMetrics {
	return &PaymentMetrics{
		TransactionsSavedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_saved_total",
				Help: "Persisted transaction writes by normalized status and currency",
			},
			[]string{"estado", "moneda"},
		),

		TransactionsDroppedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_dropped_total",
				Help: "Transaction writes ignored by the monotonic status rule",
			},
			[]string{"reason"},
		),

		OrdersPreparedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "orders_prepared_total",
				Help: "Orders prepared ahead of SDK invocation",
			},
		),

		ResultTokensIssuedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "result_tokens_issued_total",
				Help: "Result lookup tokens issued",
			},
		),

		SDKTokenRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sdk_token_requests_total",
				Help: "SDK access-token exchanges with the upstream gateway",
			},
			[]string{"outcome"},
		),

		SaveTransactionDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "save_transaction_duration_seconds",
				Help:    "Duration of the serialized transaction upsert",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}
