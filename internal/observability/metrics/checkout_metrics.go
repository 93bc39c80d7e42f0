package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess      = "success"
	OutcomeReplayed     = "replayed"
	OutcomeValidation   = "validation_error"
	OutcomeBusinessRule = "business_rule_violation"
	OutcomeConcurrency  = "concurrency_conflict"
	OutcomeInternal     = "internal_error"
)

const (
	LockResourceProducts = "products"
)

// CheckoutMetrics is the Prometheus view of checkout latency and contention,
// scraped from /metrics.
type CheckoutMetrics struct {
	duration   *prometheus.HistogramVec
	lockWait   *prometheus.HistogramVec
	dbErrors   *prometheus.CounterVec
	cartLines  prometheus.Observer
	outcomeObs map[string]prometheus.Observer
}

var (
	checkoutMetricsOnce sync.Once
	checkoutMetrics     *CheckoutMetrics
)

// Checkout returns the process-wide registry on the default registerer.
func Checkout(cfg Config) *CheckoutMetrics {
	checkoutMetricsOnce.Do(func() {
		checkoutMetrics = newCheckoutMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return checkoutMetrics
}

func newCheckoutMetrics(registerer prometheus.Registerer, cfg Config) *CheckoutMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "kasir"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "kasir_checkout_duration_seconds",
		Help:        "Checkout latency by outcome.",
		Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		ConstLabels: constLabels,
	}, []string{"outcome"})
	lockWait := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "kasir_db_lock_wait_seconds",
		Help:        "Time spent acquiring SELECT FOR UPDATE row locks.",
		Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		ConstLabels: constLabels,
	}, []string{"resource"})
	dbErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "kasir_checkout_db_errors_total",
		Help:        "Checkout database errors by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"reason"})
	cartLines := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "kasir_checkout_cart_lines",
		Help:        "Number of lines per accepted cart.",
		Buckets:     []float64{1, 2, 3, 5, 8, 13, 21, 34},
		ConstLabels: constLabels,
	})

	registerer.MustRegister(duration, lockWait, dbErrors, cartLines)

	outcomeObs := map[string]prometheus.Observer{}
	for _, outcome := range []string{
		OutcomeSuccess,
		OutcomeReplayed,
		OutcomeValidation,
		OutcomeBusinessRule,
		OutcomeConcurrency,
		OutcomeInternal,
	} {
		outcomeObs[outcome] = duration.WithLabelValues(outcome)
	}

	return &CheckoutMetrics{
		duration:   duration,
		lockWait:   lockWait,
		dbErrors:   dbErrors,
		cartLines:  cartLines,
		outcomeObs: outcomeObs,
	}
}

// ObserveCheckout records one checkout call's latency.
func (m *CheckoutMetrics) ObserveCheckout(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	obs, ok := m.outcomeObs[outcome]
	if !ok {
		obs = m.outcomeObs[OutcomeInternal]
	}
	obs.Observe(elapsed.Seconds())
}

// ObserveLockWait records the wait for a row-lock batch on resource.
func (m *CheckoutMetrics) ObserveLockWait(resource string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.WithLabelValues(resource).Observe(elapsed.Seconds())
}

// IncDBError counts a database failure by reason, see db.ClassifyReason.
func (m *CheckoutMetrics) IncDBError(reason string) {
	if m == nil || reason == "" {
		return
	}
	m.dbErrors.WithLabelValues(reason).Inc()
}

func (m *CheckoutMetrics) ObserveCartLines(n int) {
	if m == nil {
		return
	}
	m.cartLines.Observe(float64(n))
}
