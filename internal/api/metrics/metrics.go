// Package metrics defines and registers all custom Prometheus metrics for the
// consultation appointment API. It is the single source of truth for metric
// names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "consultation"

// ── Scheduling metrics ────────────────────────────────────────────────────────

// AppointmentsCreatedTotal counts successfully booked appointments.
var AppointmentsCreatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "appointments_created_total",
		Help:      "Total number of appointments successfully created.",
	},
)

// BookingConflictsTotal counts create/reschedule attempts rejected by the
// one-active-appointment-per-(book, date) invariant.
var BookingConflictsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "booking_conflicts_total",
		Help:      "Total number of booking attempts rejected due to a date conflict.",
	},
)

// TransitionsTotal counts applied state machine transitions.
// Label:
//   - to: the new appointment status (e.g. "confirmed")
var TransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transitions_total",
		Help:      "Total number of appointment status transitions applied, by target status.",
	},
	[]string{"to"},
)

// ── Notification metrics ──────────────────────────────────────────────────────

// NotificationsSentTotal counts persisted in-app notifications.
// Label:
//   - event: the appointment event that caused the fan-out ("created", "confirmed", "cancelled")
var NotificationsSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_sent_total",
		Help:      "Total number of in-app notifications persisted, by triggering event.",
	},
	[]string{"event"},
)

// NotificationDedupTotal counts delivery ledger decisions.
// Label:
//   - result: "hit" (duplicate, skipped), "miss" (new event) or "error" (ledger unavailable)
var NotificationDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notification_dedup_total",
		Help:      "Total number of delivery ledger checks, labelled by result.",
	},
	[]string{"result"},
)

// ── Email metrics ─────────────────────────────────────────────────────────────

// EmailsTotal counts outbound email attempts.
// Label:
//   - result: "sent" or "failed"
var EmailsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_total",
		Help:      "Total number of outbound email deliveries, by result.",
	},
	[]string{"result"},
)

// MailQueueDepth tracks the number of messages waiting in each mail worker
// channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of messages pending in each mail worker channel.",
	},
	[]string{"worker_id"},
)
