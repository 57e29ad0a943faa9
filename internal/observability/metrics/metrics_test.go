package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWorkflowMetricsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWorkflowMetrics(reg)

	m.ObserveRegistration()
	m.ObserveTransition("waiting", "consulted")
	m.ObserveTransition("consulted", "prescribed")

	if got := testutil.ToFloat64(m.registrationsTotal); got != 1 {
		t.Fatalf("expected 1 registration, got %v", got)
	}
	if got := testutil.ToFloat64(m.visitEntriesTotal); got != 3 {
		t.Fatalf("expected 3 visit entries, got %v", got)
	}
	if got := testutil.ToFloat64(m.transitionsTotal.WithLabelValues("waiting", "consulted")); got != 1 {
		t.Fatalf("expected 1 waiting->consulted transition, got %v", got)
	}
}

func TestBillingMetricsRevenueOnlyOnPaid(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBillingMetrics(reg)

	m.ObserveBillCreated()
	m.ObserveBillStatus("paid", 10000)
	m.ObserveBillStatus("cancelled", 7500)

	if got := testutil.ToFloat64(m.revenueCents); got != 10000 {
		t.Fatalf("expected revenue only from paid bills, got %v", got)
	}
	if got := testutil.ToFloat64(m.billStatusTotal.WithLabelValues("cancelled")); got != 1 {
		t.Fatalf("expected 1 cancelled transition, got %v", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var w *WorkflowMetrics
	var b *BillingMetrics
	w.ObserveRegistration()
	w.ObserveTransition("a", "b")
	b.ObserveBillCreated()
	b.ObserveBillStatus("paid", 100)
}
