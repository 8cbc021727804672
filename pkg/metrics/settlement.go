package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics tracks the value-moving activity of the engine.
type SettlementMetrics struct {
	purchases     *prometheus.CounterVec
	tips          *prometheus.CounterVec
	refunds       *prometheus.CounterVec
	withdrawals   *prometheus.CounterVec
	amounts       *prometheus.HistogramVec
	guardTrips    prometheus.Counter
	journalErrors prometheus.Counter
}

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	purchases := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_purchases_total",
		Help: "Completed ticket purchases.",
	}, []string{"currency"})
	tips := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_tips_total",
		Help: "Completed tips.",
	}, []string{"currency"})
	refunds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_refunds_total",
		Help: "Completed refund claims.",
	}, []string{"currency", "kind"})
	withdrawals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_withdrawals_total",
		Help: "Completed pending-balance withdrawals.",
	}, []string{"currency"})
	amounts := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "settlement_distributed_units",
		Help:    "Gross distributed amounts in smallest units.",
		Buckets: prometheus.ExponentialBuckets(1, 10, 12),
	}, []string{"currency"})
	guardTrips := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_reentrancy_guard_trips_total",
		Help: "Nested entries rejected by the reentrancy guard.",
	})
	journalErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_journal_append_errors_total",
		Help: "Journal appends that failed after the state transition committed.",
	})
	reg.MustRegister(purchases, tips, refunds, withdrawals, amounts, guardTrips, journalErrors)
	return &SettlementMetrics{
		purchases:     purchases,
		tips:          tips,
		refunds:       refunds,
		withdrawals:   withdrawals,
		amounts:       amounts,
		guardTrips:    guardTrips,
		journalErrors: journalErrors,
	}
}

// ObservePurchase records one completed purchase and its gross amount.
func (m *SettlementMetrics) ObservePurchase(currency string, gross int64) {
	if m == nil || m.purchases == nil {
		return
	}
	m.purchases.WithLabelValues(normalizeLabel(currency)).Inc()
	m.amounts.WithLabelValues(normalizeLabel(currency)).Observe(float64(gross))
}

// ObserveTip records one completed tip and its gross amount.
func (m *SettlementMetrics) ObserveTip(currency string, gross int64) {
	if m == nil || m.tips == nil {
		return
	}
	m.tips.WithLabelValues(normalizeLabel(currency)).Inc()
	m.amounts.WithLabelValues(normalizeLabel(currency)).Observe(float64(gross))
}

// ObserveRefund records one completed refund claim.
func (m *SettlementMetrics) ObserveRefund(currency, kind string) {
	if m == nil || m.refunds == nil {
		return
	}
	m.refunds.WithLabelValues(normalizeLabel(currency), normalizeLabel(kind)).Inc()
}

// ObserveWithdrawal records one completed withdrawal.
func (m *SettlementMetrics) ObserveWithdrawal(currency string) {
	if m == nil || m.withdrawals == nil {
		return
	}
	m.withdrawals.WithLabelValues(normalizeLabel(currency)).Inc()
}

// IncGuardTrip counts a rejected nested entry.
func (m *SettlementMetrics) IncGuardTrip() {
	if m == nil || m.guardTrips == nil {
		return
	}
	m.guardTrips.Inc()
}

// IncJournalError counts a failed journal append.
func (m *SettlementMetrics) IncJournalError() {
	if m == nil || m.journalErrors == nil {
		return
	}
	m.journalErrors.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
