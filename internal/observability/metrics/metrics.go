package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "dentaai"

// NotificationMetrics counts notification intents handed to emitters.
type NotificationMetrics struct {
	emittedTotal *prometheus.CounterVec
}

func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	m := &NotificationMetrics{
		emittedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "emitted_total",
			Help:      "Total notification intents emitted",
		}, []string{"kind", "channel", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.emittedTotal)
	return m
}

func (m *NotificationMetrics) ObserveEmit(kind, channel string, err error) {
	if m == nil {
		return
	}
	m.emittedTotal.WithLabelValues(kind, channel, statusLabel(err)).Inc()
}

// BookingMetrics tracks reservation attempts and their latency.
type BookingMetrics struct {
	reservationsTotal *prometheus.CounterVec
	reserveLatency    prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		reservationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "reservations_total",
			Help:      "Total slot reservation attempts by outcome",
		}, []string{"outcome"}),
		reserveLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "reserve_latency_seconds",
			Help:      "Latency of check-and-reserve",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.reservationsTotal, m.reserveLatency)
	return m
}

// ObserveReservation records one attempt; outcome is reserved, slot_taken or error.
func (m *BookingMetrics) ObserveReservation(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.reservationsTotal.WithLabelValues(outcome).Inc()
	m.reserveLatency.Observe(seconds)
}

// LifecycleMetrics counts appointment status changes.
type LifecycleMetrics struct {
	transitionsTotal *prometheus.CounterVec
}

func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	m := &LifecycleMetrics{
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "appointments",
			Name:      "status_transitions_total",
			Help:      "Total appointment status transitions attempted",
		}, []string{"from", "to", "outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitionsTotal)
	return m
}

func (m *LifecycleMetrics) ObserveTransition(from, to, outcome string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(from, to, outcome).Inc()
}

// AssistantMetrics tracks text-generation calls.
type AssistantMetrics struct {
	callsTotal *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

func NewAssistantMetrics(reg prometheus.Registerer) *AssistantMetrics {
	m := &AssistantMetrics{
		callsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assistant",
			Name:      "calls_total",
			Help:      "Total assistant calls by operation and outcome",
		}, []string{"operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "assistant",
			Name:      "latency_seconds",
			Help:      "Latency of assistant calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.callsTotal, m.latency)
	return m
}

// ObserveCall records an assistant call; outcome is ok, fallback or cached.
func (m *AssistantMetrics) ObserveCall(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.callsTotal.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(seconds)
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
