// Package metrics defines and registers all custom Prometheus metrics for the
// CRM API. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on import via
// promauto; HTTP request metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "crm"

// ── Task metrics ──────────────────────────────────────────────────────────────

// TasksCreatedTotal counts newly created tasks.
// Label:
//   - status: the initial status of the task (e.g. "PENDING")
var TasksCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_created_total",
		Help:      "Total number of tasks created, by initial status.",
	},
	[]string{"status"},
)

// TaskStatusTransitionsTotal counts status changes applied to tasks.
// Labels:
//   - from: the previous status
//   - to:   the new status
var TaskStatusTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_status_transitions_total",
		Help:      "Total number of task status transitions.",
	},
	[]string{"from", "to"},
)

// TaskAssignmentsTotal counts successful task assignments.
var TaskAssignmentsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_assignments_total",
		Help:      "Total number of task assignments.",
	},
)

// IdempotentReplaysTotal counts create requests answered from a previous result.
// Label:
//   - scope: "task" or "customer"
var IdempotentReplaysTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "idempotent_replays_total",
		Help:      "Total number of create requests replayed from an idempotency key.",
	},
	[]string{"scope"},
)

// ── Task activity metrics ─────────────────────────────────────────────────────

// TaskEventsProcessedTotal counts activity events persisted successfully.
// Label:
//   - type: the event type (e.g. "assigned")
var TaskEventsProcessedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_events_processed_total",
		Help:      "Total number of task activity events successfully processed.",
	},
	[]string{"type"},
)

// TaskEventsErrorsTotal counts activity events that failed processing.
// Label:
//   - reason: "insert_failed" or "publish_failed"
var TaskEventsErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_events_errors_total",
		Help:      "Total number of task activity events that failed processing.",
	},
	[]string{"reason"},
)

// TaskEventsDroppedTotal counts activity events discarded because their
// worker's queue was full.
var TaskEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_events_dropped_total",
		Help:      "Total number of task activity events dropped because a worker queue was full.",
	},
)

// TaskEventsQueueDepth tracks the number of events waiting in each worker channel.
var TaskEventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "task_events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// TaskEventProcessingDuration measures how long a single event takes to process.
var TaskEventProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "task_event_processing_duration_seconds",
		Help:      "Duration of task event processing from dequeue to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"type"},
)

// ── Account metrics ───────────────────────────────────────────────────────────

// AuthAttemptsTotal counts register/login outcomes.
// Labels:
//   - action: "register" or "login"
//   - result: "success", "conflict", "invalid_credentials", "inactive", "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of register and login attempts, by outcome.",
	},
	[]string{"action", "result"},
)

// CustomersCreatedTotal counts newly created customers.
var CustomersCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "customers_created_total",
		Help:      "Total number of customers created.",
	},
)
