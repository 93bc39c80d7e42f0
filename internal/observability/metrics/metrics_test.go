package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("outcome", "success"),
		attribute.String("member_code", "M-001"),
		attribute.String("kind", "SALE"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "member_code" {
			t.Fatalf("member_code must not be exported as a label")
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordCheckout(context.Background(), "success")
	m.RecordReplay(context.Background(), "db")
	m.RecordStockMovements(context.Background(), "SALE", 2)
	m.RecordFailureWrite(context.Background(), "ok")
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{ServiceName: "kasir"}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	m.RecordCheckout(context.Background(), "success")
}
