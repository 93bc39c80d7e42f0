package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestIncDBError(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newCheckoutMetrics(registry, Config{ServiceName: "kasir", Environment: "test"})

	m.IncDBError("db_lock_timeout")
	m.IncDBError("db_lock_timeout")
	m.IncDBError("")

	got := testutil.ToFloat64(m.dbErrors.WithLabelValues("db_lock_timeout"))
	if got != 2 {
		t.Fatalf("expected 2 lock timeouts, got %v", got)
	}
}

func TestObserveCheckoutUnknownOutcomeFallsBackToInternal(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newCheckoutMetrics(registry, Config{})

	m.ObserveCheckout("something_else", 10*time.Millisecond)
	m.ObserveCheckout(OutcomeSuccess, 20*time.Millisecond)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	counts := map[string]uint64{}
	for _, mf := range families {
		if mf.GetName() != "kasir_checkout_duration_seconds" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" {
					counts[label.GetValue()] = metric.GetHistogram().GetSampleCount()
				}
			}
		}
	}
	if counts[OutcomeInternal] != 1 || counts[OutcomeSuccess] != 1 {
		t.Fatalf("unexpected sample counts: %v", counts)
	}
}

func TestNilCheckoutMetricsIsSafe(t *testing.T) {
	var m *CheckoutMetrics
	m.ObserveCheckout(OutcomeSuccess, time.Millisecond)
	m.ObserveLockWait(LockResourceProducts, time.Millisecond)
	m.IncDBError("unknown")
	m.ObserveCartLines(3)
}
