package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Actions counts public token actions by action and outcome (ok|bad_request|not_found|conflict|gone|error).
	Actions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practice_appointment_actions_total",
			Help: "Token-authenticated appointment actions",
		},
		[]string{"action", "result"},
	)

	// Mails counts outbound notification mails by type and result (ok|failed|invalid).
	Mails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practice_mails_total",
			Help: "Notification mails handed to the mail provider",
		},
		[]string{"type", "result"},
	)

	// Reminders counts reminder sweep outcomes per appointment (sent|failed).
	Reminders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "practice_reminders_total",
			Help: "Reminder sweep results per appointment",
		},
		[]string{"result"},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "practice_reminder_sweep_seconds",
			Help:    "Duration of one reminder sweep",
			Buckets: prometheus.DefBuckets,
		},
	)

	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "practice_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
