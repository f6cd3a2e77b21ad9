package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bibliotech/consultation-api/internal/api/metrics"
	"github.com/bibliotech/consultation-api/internal/core/domain"
	"github.com/bibliotech/consultation-api/internal/core/ports"
)

// Role-specific appointment lists the deep links point back to.
const (
	patronInboxURL    = "/my/appointments"
	triageInboxURL    = "/triage/appointments"
	librarianInboxURL = "/librarian/appointments"
)

// DeliveryLedger abstracts the idempotency store (Redis). An event is marked
// only after every recipient notification has been persisted, so a failed
// fan-out stays retriable without ever duplicating deliveries.
type DeliveryLedger interface {
	IsDelivered(ctx context.Context, appointmentID, event string) (bool, error)
	Mark(ctx context.Context, appointmentID, event string) error
}

// EmailEnqueuer hands outbound mail to the fire-and-forget mail queue.
type EmailEnqueuer interface {
	Enqueue(msg ports.EmailMessage)
}

// NotificationDispatcher owns the fan-out rules: which recipients learn about
// which appointment event, with which message and deep link.
type NotificationDispatcher struct {
	notifications ports.NotificationRepository
	users         ports.UserRepository
	ledger        DeliveryLedger
	mail          EmailEnqueuer
	log           zerolog.Logger
}

func NewNotificationDispatcher(
	notifications ports.NotificationRepository,
	users ports.UserRepository,
	ledger DeliveryLedger,
	mail EmailEnqueuer,
	log zerolog.Logger,
) *NotificationDispatcher {
	return &NotificationDispatcher{
		notifications: notifications,
		users:         users,
		ledger:        ledger,
		mail:          mail,
		log:           log,
	}
}

// OnCreated notifies every administration user about a new booking request.
func (d *NotificationDispatcher) OnCreated(ctx context.Context, a *domain.Appointment) error {
	const event = "created"
	if d.alreadyDelivered(ctx, a.ID, event) {
		return nil
	}

	admins, err := d.users.ListByRole(ctx, domain.RoleAdministration)
	if err != nil {
		return fmt.Errorf("dispatch %s: resolve recipients: %w", event, err)
	}

	message := fmt.Sprintf("%s %s requested a consultation of %q for %s.",
		a.Contact.FirstName, a.Contact.LastName, a.Book.Title, a.RequestedDate)
	for _, admin := range admins {
		if err := d.deliver(ctx, admin.ID, message, triageInboxURL, event); err != nil {
			return err
		}
	}

	d.markDelivered(ctx, a.ID, event)
	return nil
}

// OnTransition fans a status change out per the transition's recipient rules.
// Completion is a silent terminal state.
func (d *NotificationDispatcher) OnTransition(ctx context.Context, a *domain.Appointment, from, to domain.AppointmentStatus) error {
	event := string(to)
	switch to {
	case domain.StatusConfirmed:
		if d.alreadyDelivered(ctx, a.ID, event) {
			return nil
		}
		message := fmt.Sprintf("Your appointment for %q on %s has been confirmed.", a.Book.Title, a.RequestedDate)
		if err := d.deliver(ctx, a.OwnerID, message, patronInboxURL, event); err != nil {
			return err
		}
		if err := d.notifyLibrarians(ctx, a, event); err != nil {
			return err
		}
		d.markDelivered(ctx, a.ID, event)
		d.sendStatusEmail(a, to)
		return nil

	case domain.StatusCancelled:
		if d.alreadyDelivered(ctx, a.ID, event) {
			return nil
		}
		message := fmt.Sprintf("Your appointment for %q on %s has been cancelled.", a.Book.Title, a.RequestedDate)
		if err := d.deliver(ctx, a.OwnerID, message, patronInboxURL, event); err != nil {
			return err
		}
		d.markDelivered(ctx, a.ID, event)
		d.sendStatusEmail(a, to)
		return nil

	default:
		return nil
	}
}

func (d *NotificationDispatcher) notifyLibrarians(ctx context.Context, a *domain.Appointment, event string) error {
	librarians, err := d.users.ListByRole(ctx, domain.RoleLibrarian)
	if err != nil {
		return fmt.Errorf("dispatch %s: resolve recipients: %w", event, err)
	}
	message := fmt.Sprintf("Confirmed consultation of %q on %s. Please prepare the item.", a.Book.Title, a.RequestedDate)
	for _, librarian := range librarians {
		if err := d.deliver(ctx, librarian.ID, message, librarianInboxURL, event); err != nil {
			return err
		}
	}
	return nil
}

func (d *NotificationDispatcher) deliver(ctx context.Context, ownerID, message, url, event string) error {
	notification := &domain.Notification{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Message: message,
		URL:     url,
	}
	if err := d.notifications.Create(ctx, notification); err != nil {
		return fmt.Errorf("dispatch %s: persist notification: %w", event, err)
	}
	metrics.NotificationsSentTotal.WithLabelValues(event).Inc()
	return nil
}

// alreadyDelivered treats a ledger read failure as a miss: processing anyway
// matches the at-least-once contract, a lost check must not drop the event.
func (d *NotificationDispatcher) alreadyDelivered(ctx context.Context, appointmentID, event string) bool {
	delivered, err := d.ledger.IsDelivered(ctx, appointmentID, event)
	if err != nil {
		d.log.Warn().Err(err).Str("appointment_id", appointmentID).Str("event", event).
			Msg("delivery ledger check failed, processing anyway")
		metrics.NotificationDedupTotal.WithLabelValues("error").Inc()
		return false
	}
	if delivered {
		d.log.Debug().Str("appointment_id", appointmentID).Str("event", event).Msg("duplicate event skipped")
		metrics.NotificationDedupTotal.WithLabelValues("hit").Inc()
		return true
	}
	metrics.NotificationDedupTotal.WithLabelValues("miss").Inc()
	return false
}

func (d *NotificationDispatcher) markDelivered(ctx context.Context, appointmentID, event string) {
	if err := d.ledger.Mark(ctx, appointmentID, event); err != nil {
		d.log.Warn().Err(err).Str("appointment_id", appointmentID).Str("event", event).
			Msg("failed to mark delivery")
	}
}

// sendStatusEmail mirrors the in-app notification on the email side channel.
// Delivery is fire-and-forget via the mail queue.
func (d *NotificationDispatcher) sendStatusEmail(a *domain.Appointment, to domain.AppointmentStatus) {
	if a.Contact.Email == "" {
		return
	}
	d.mail.Enqueue(ports.EmailMessage{
		Key:     a.ID,
		To:      a.Contact.Email,
		Subject: fmt.Sprintf("Your appointment status: %s", to),
		Body: fmt.Sprintf("Hello %s,\n\nYour appointment for %q on %s is now %s.\n\nThe library",
			a.Contact.LastName, a.Book.Title, a.RequestedDate, to),
	})
}
