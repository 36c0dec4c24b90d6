// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventplanner_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code",
		},
		[]string{"route", "method", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventplanner_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	SignIns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventplanner_sign_ins_total",
			Help: "Sign-in attempts by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	AdminSignIns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventplanner_admin_sign_ins_total",
			Help: "Admin sign-in attempts by outcome",
		},
		[]string{"outcome"},
	)

	FlagsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventplanner_flags_submitted_total",
			Help: "Moderation flags accepted",
		},
	)

	FlagStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventplanner_flag_status_changes_total",
			Help: "Flag status writes by target status",
		},
		[]string{"status"},
	)

	EventsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventplanner_flagged_events_deleted_total",
			Help: "Events removed from the moderation dashboard",
		},
	)

	FeedSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventplanner_event_feed_subscribers",
			Help: "Open owned-events streams",
		},
	)
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)
