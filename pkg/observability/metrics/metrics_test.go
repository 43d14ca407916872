package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveTransition("auth", "specialty")
	m.ObserveTransition("auth", "specialty")
	m.ObserveRemoteCall("authenticate", "ok", 0.2)
	m.ObserveNavigation("next", true)
	m.ObserveNavigation("next", false)
	m.ObserveBooking("Medicina general", true)

	if got := testutil.ToFloat64(m.transitions.WithLabelValues("auth", "specialty")); got != 2 {
		t.Fatalf("transitions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.remoteCalls.WithLabelValues("authenticate", "ok")); got != 1 {
		t.Fatalf("remote calls = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.navigations.WithLabelValues("next", "false")); got != 1 {
		t.Fatalf("rejected navigations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.bookings.WithLabelValues("Medicina general", "confirmed")); got != 1 {
		t.Fatalf("bookings = %v, want 1", got)
	}
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveTransition("a", "b")
	m.ObserveRemoteCall("book", "error", 0.1)
	m.ObserveNavigation("goto", true)
	m.ObserveBooking("x", false)
}
