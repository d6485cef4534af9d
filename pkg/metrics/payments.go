package metrics

import "github.com/prometheus/client_golang/prometheus"

// PaymentMetrics tracks the reconciliation surface: confirmations arriving on
// either channel and the transitions they produce.
type PaymentMetrics struct {
	callbacks   *prometheus.CounterVec
	verifies    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	mismatches  prometheus.Counter
}

// Outcome labels recorded per confirmation.
const (
	OutcomeMarkedPaid  = "marked_paid"
	OutcomeAlreadyPaid = "already_paid"
	OutcomeIgnored     = "ignored"
	OutcomeNotFound    = "not_found"
	OutcomeError       = "error"
)

// NewPaymentMetrics registers the payment reconciliation metrics.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	callbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_callbacks_total",
		Help: "Gateway callbacks received, labelled by outcome.",
	}, []string{"outcome"})
	verifies := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifies_total",
		Help: "Client-initiated verify requests, labelled by outcome.",
	}, []string{"outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_status_transitions_total",
		Help: "Order payment status transitions, labelled by target status.",
	}, []string{"status"})
	mismatches := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payment_amount_mismatches_total",
		Help: "Confirmations whose reported amount differed from the order total.",
	})
	reg.MustRegister(callbacks, verifies, transitions, mismatches)
	return &PaymentMetrics{
		callbacks:   callbacks,
		verifies:    verifies,
		transitions: transitions,
		mismatches:  mismatches,
	}
}

// IncCallback increments the callback counter for an outcome.
func (p *PaymentMetrics) IncCallback(outcome string) {
	if p == nil || p.callbacks == nil {
		return
	}
	p.callbacks.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncVerify increments the verify counter for an outcome.
func (p *PaymentMetrics) IncVerify(outcome string) {
	if p == nil || p.verifies == nil {
		return
	}
	p.verifies.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncTransition increments the transition counter for a target status.
func (p *PaymentMetrics) IncTransition(status string) {
	if p == nil || p.transitions == nil {
		return
	}
	p.transitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncAmountMismatch records a confirmation whose amount disagreed with the order.
func (p *PaymentMetrics) IncAmountMismatch() {
	if p == nil || p.mismatches == nil {
		return
	}
	p.mismatches.Inc()
}
