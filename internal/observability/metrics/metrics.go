package metrics

import "github.com/prometheus/client_golang/prometheus"

// ReminderMetrics exposes counters/histograms for the appointment reminder
// sweep and notification delivery.
type ReminderMetrics struct {
	sweepsTotal        *prometheus.CounterVec
	remindersTotal     *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	sweepDuration      prometheus.Histogram
}

// NewReminderMetrics registers the collectors on reg (default registerer when nil).
func NewReminderMetrics(reg prometheus.Registerer) *ReminderMetrics {
	m := &ReminderMetrics{
		sweepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salestracker",
			Subsystem: "reminders",
			Name:      "sweeps_total",
			Help:      "Total reminder sweeps by outcome",
		}, []string{"status"}),
		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salestracker",
			Subsystem: "reminders",
			Name:      "processed_total",
			Help:      "Reminders handled by the sweep",
		}, []string{"result"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salestracker",
			Subsystem: "notifications",
			Name:      "sent_total",
			Help:      "Appointment emails by mode and result",
		}, []string{"mode", "result"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "salestracker",
			Subsystem: "reminders",
			Name:      "sweep_duration_seconds",
			Help:      "Wall time of one reminder sweep",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.sweepsTotal, m.remindersTotal, m.notificationsTotal, m.sweepDuration)
	return m
}

// ObserveSweep records one sweep with its per-item tallies.
func (m *ReminderMetrics) ObserveSweep(status string, sent, failed int, seconds float64) {
	if m == nil {
		return
	}
	m.sweepsTotal.WithLabelValues(status).Inc()
	m.remindersTotal.WithLabelValues("sent").Add(float64(sent))
	m.remindersTotal.WithLabelValues("failed").Add(float64(failed))
	m.sweepDuration.Observe(seconds)
}

// ObserveNotification records one appointment email attempt.
func (m *ReminderMetrics) ObserveNotification(mode string, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.notificationsTotal.WithLabelValues(mode, result).Inc()
}
