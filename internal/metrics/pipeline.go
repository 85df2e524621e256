package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsDiscovered counts ingested job postings by initial status.
	JobsDiscovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careerhuntin",
			Subsystem: "pipeline",
			Name:      "jobs_discovered_total",
			Help:      "Total job postings ingested by discovery, labeled by initial status.",
		},
		[]string{"status"},
	)

	// ExecutionEvents counts emitted execution events by type and outcome.
	ExecutionEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "careerhuntin",
			Subsystem: "pipeline",
			Name:      "execution_events_total",
			Help:      "Total execution events emitted, labeled by event type and status.",
		},
		[]string{"event_type", "status"},
	)

	// FollowUpsScheduled counts follow-up tasks created after outreach.
	FollowUpsScheduled = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "careerhuntin",
			Subsystem: "pipeline",
			Name:      "followups_scheduled_total",
			Help:      "Total follow-up tasks scheduled.",
		},
	)
)
