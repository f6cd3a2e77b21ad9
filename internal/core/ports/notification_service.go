package ports

import (
	"context"

	"github.com/bibliotech/consultation-api/internal/core/domain"
)

// NotificationDispatcher fans an appointment event out to the correct
// recipients. Implementations must be idempotent per (appointment id, event):
// a retried delivery never produces duplicate notifications.
type NotificationDispatcher interface {
	OnCreated(ctx context.Context, a *domain.Appointment) error
	OnTransition(ctx context.Context, a *domain.Appointment, from, to domain.AppointmentStatus) error
}

// NotificationService is the inbox surface exposed to the presentation layer.
type NotificationService interface {
	List(ctx context.Context, caller Caller, unreadOnly bool) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, caller Caller, id string) (*domain.Notification, error)
}

// EmailMessage is one outbound mail handed to the mail queue.
type EmailMessage struct {
	// Key shards the message onto a worker; messages sharing a key are sent
	// in order. The dispatcher uses the appointment id.
	Key     string
	To      string
	Subject string
	Body    string
}

// Mailer delivers a single email. Failures are logged by the queue and never
// surface to the triggering transition.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
}
