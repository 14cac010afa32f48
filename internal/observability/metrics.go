package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CharterTransitions counts lifecycle operations by action and outcome
	// (changed, unchanged, failed).
	CharterTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "muster_charter_transitions_total",
		Help: "Charter lifecycle operations by action and outcome",
	}, []string{"action", "outcome"})

	// RosterParseFailures counts rejected roster uploads by file format.
	RosterParseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "muster_roster_parse_failures_total",
		Help: "Roster uploads rejected by the parser",
	}, []string{"format"})

	// NotificationsSent counts delivered notifications by channel.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "muster_notifications_sent_total",
		Help: "Notifications delivered by channel",
	}, []string{"channel"})

	// NotificationFailures counts failed notifications by channel.
	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "muster_notification_failures_total",
		Help: "Notifications that could not be delivered",
	}, []string{"channel"})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "muster_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// AuditFailures counts audit events that could not be written.
	AuditFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "muster_audit_failures_total",
		Help: "Audit events that could not be persisted",
	})
)
