package metrics

import "github.com/prometheus/client_golang/prometheus"

// IntakeMetrics exposes counters/histograms for the intake flows. All
// observe methods are nil-safe so callers can run without metrics wired.
type IntakeMetrics struct {
	inboundTotal    *prometheus.CounterVec
	leadSubmissions *prometheus.CounterVec
	broadcastTotal  *prometheus.CounterVec
	webhookLatency  *prometheus.HistogramVec
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intakebot",
			Subsystem: "conversation",
			Name:      "inbound_total",
			Help:      "Total inbound conversational turns",
		}, []string{"step", "status"}),
		leadSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intakebot",
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Total lead submissions to the lead store",
		}, []string{"status"}),
		broadcastTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intakebot",
			Subsystem: "broadcast",
			Name:      "send_total",
			Help:      "Total broadcast send attempts",
		}, []string{"status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "intakebot",
			Subsystem: "conversation",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of inbound webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.leadSubmissions, m.broadcastTotal, m.webhookLatency)
	return m
}

func (m *IntakeMetrics) ObserveInbound(step, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(step, status).Inc()
}

func (m *IntakeMetrics) ObserveLeadSubmission(status string) {
	if m == nil {
		return
	}
	m.leadSubmissions.WithLabelValues(status).Inc()
}

func (m *IntakeMetrics) ObserveBroadcastSend(status string) {
	if m == nil {
		return
	}
	m.broadcastTotal.WithLabelValues(status).Inc()
}

func (m *IntakeMetrics) ObserveWebhookLatency(status string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(status).Observe(seconds)
}
