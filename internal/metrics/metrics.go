// Package metrics exposes alertd's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertd_events_received_total",
			Help: "Events received on the bus by topic.",
		},
		[]string{"topic"},
	)
	AlertsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertd_alerts_emitted_total",
			Help: "Alerts handed to notifiers by category.",
		},
		[]string{"category"},
	)
	AlertsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertd_alerts_suppressed_total",
			Help: "Alerts dropped by the suppression policy by category and reason.",
		},
		[]string{"category", "reason"},
	)
	NotifyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertd_notify_failures_total",
			Help: "Notifier delivery failures by notifier.",
		},
		[]string{"notifier"},
	)
	SessionHalted = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alertd_session_halted",
			Help: "1 once the server has been reported unreachable and all alerts are silenced.",
		},
	)
	EventsRateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "alertd_events_rate_limited_total",
			Help: "Events rejected by the ingestion rate limiter.",
		},
	)
)
