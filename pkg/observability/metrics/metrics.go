package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking wizard.
type BookingMetrics struct {
	transitions   *prometheus.CounterVec
	remoteCalls   *prometheus.CounterVec
	remoteLatency *prometheus.HistogramVec
	navigations   *prometheus.CounterVec
	bookings      *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "wizard",
			Name:      "transitions_total",
			Help:      "Wizard step transitions",
		}, []string{"from", "to"}),
		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "remote",
			Name:      "calls_total",
			Help:      "Scheduling service round-trips by outcome",
		}, []string{"operation", "outcome"}),
		remoteLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "remote",
			Name:      "call_latency_seconds",
			Help:      "Latency of scheduling service round-trips",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		navigations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "pager",
			Name:      "navigations_total",
			Help:      "Slot page navigations by action and whether they were accepted",
		}, []string{"action", "accepted"}),
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "wizard",
			Name:      "bookings_total",
			Help:      "Booking confirmations by specialty and result",
		}, []string{"specialty", "result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitions, m.remoteCalls, m.remoteLatency, m.navigations, m.bookings)
	return m
}

func (m *BookingMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *BookingMetrics) ObserveRemoteCall(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.remoteCalls.WithLabelValues(operation, outcome).Inc()
	m.remoteLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *BookingMetrics) ObserveNavigation(action string, accepted bool) {
	if m == nil {
		return
	}
	label := "false"
	if accepted {
		label = "true"
	}
	m.navigations.WithLabelValues(action, label).Inc()
}

func (m *BookingMetrics) ObserveBooking(specialty string, ok bool) {
	if m == nil {
		return
	}
	result := "failed"
	if ok {
		result = "confirmed"
	}
	m.bookings.WithLabelValues(specialty, result).Inc()
}
