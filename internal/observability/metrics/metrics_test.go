package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveReservation("reserved", 0.01)
	m.ObserveReservation("slot_taken", 0.02)
	m.ObserveReservation("slot_taken", 0.02)

	if got := testutil.ToFloat64(m.reservationsTotal.WithLabelValues("slot_taken")); got != 2 {
		t.Fatalf("expected 2 slot_taken, got %v", got)
	}
}

func TestLifecycleMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLifecycleMetrics(reg)
	m.ObserveTransition("pending", "confirmed", "applied")

	if got := testutil.ToFloat64(m.transitionsTotal.WithLabelValues("pending", "confirmed", "applied")); got != 1 {
		t.Fatalf("expected 1 transition, got %v", got)
	}
}

func TestNotificationMetricsStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewNotificationMetrics(reg)
	m.ObserveEmit("appointment_confirmed", "sqs", nil)
	m.ObserveEmit("appointment_confirmed", "sqs", errors.New("boom"))

	if got := testutil.ToFloat64(m.emittedTotal.WithLabelValues("appointment_confirmed", "sqs", "error")); got != 1 {
		t.Fatalf("expected 1 error, got %v", got)
	}
}

func TestAssistantMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAssistantMetrics(reg)
	m.ObserveCall("article", "cached", 0.001)
}

func TestMetricsNilSafe(t *testing.T) {
	var b *BookingMetrics
	b.ObserveReservation("reserved", 0.1)
	var l *LifecycleMetrics
	l.ObserveTransition("pending", "cancelled", "applied")
	var a *AssistantMetrics
	a.ObserveCall("chat", "ok", 0.1)
	var n *NotificationMetrics
	n.ObserveEmit("manual_sms", "log", nil)
}
