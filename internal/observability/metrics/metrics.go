package metrics

import "github.com/prometheus/client_golang/prometheus"

// WorkflowMetrics exposes counters for the patient workflow.
type WorkflowMetrics struct {
	registrationsTotal prometheus.Counter
	transitionsTotal   *prometheus.CounterVec
	visitEntriesTotal  prometheus.Counter
}

func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	m := &WorkflowMetrics{
		registrationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "patients",
			Name:      "registrations_total",
			Help:      "Total patient registrations",
		}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "patients",
			Name:      "status_transitions_total",
			Help:      "Total patient status transitions",
		}, []string{"from", "to"}),
		visitEntriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "patients",
			Name:      "visit_entries_total",
			Help:      "Total audit trail entries appended",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.registrationsTotal, m.transitionsTotal, m.visitEntriesTotal)
	return m
}

func (m *WorkflowMetrics) ObserveRegistration() {
	if m == nil {
		return
	}
	m.registrationsTotal.Inc()
	m.visitEntriesTotal.Inc()
}

func (m *WorkflowMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to).Inc()
	m.visitEntriesTotal.Inc()
}

// BillingMetrics exposes counters for the billing ledger.
type BillingMetrics struct {
	billsCreatedTotal prometheus.Counter
	billStatusTotal   *prometheus.CounterVec
	revenueCents      prometheus.Counter
}

func NewBillingMetrics(reg prometheus.Registerer) *BillingMetrics {
	m := &BillingMetrics{
		billsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "billing",
			Name:      "bills_created_total",
			Help:      "Total bills created",
		}),
		billStatusTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "billing",
			Name:      "bill_status_total",
			Help:      "Total bill status transitions",
		}, []string{"status"}),
		revenueCents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "billing",
			Name:      "revenue_cents_total",
			Help:      "Total cents collected across paid bills",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.billsCreatedTotal, m.billStatusTotal, m.revenueCents)
	return m
}

func (m *BillingMetrics) ObserveBillCreated() {
	if m == nil {
		return
	}
	m.billsCreatedTotal.Inc()
}

func (m *BillingMetrics) ObserveBillStatus(status string, amountCents int64) {
	if m == nil {
		return
	}
	m.billStatusTotal.WithLabelValues(status).Inc()
	if status == "paid" && amountCents > 0 {
		m.revenueCents.Add(float64(amountCents))
	}
}
