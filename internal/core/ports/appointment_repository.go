package ports

import (
	"context"

	"github.com/bibliotech/consultation-api/internal/core/domain"
)

// ListAppointmentsFilter narrows staff triage queries.
type ListAppointmentsFilter struct {
	Status domain.AppointmentStatus // optional; empty = all statuses
}

// AppointmentRepository defines persistence operations for appointments.
// The implementation owns the booking invariant: Create and Reschedule must
// check-and-write atomically, never as a separate read followed by an insert.
type AppointmentRepository interface {
	// Create inserts a pending appointment. Returns domain.ErrDateConflict
	// when another active appointment already holds (book_id, requested_date).
	Create(ctx context.Context, a *domain.Appointment) error

	FindByID(ctx context.Context, id string) (*domain.Appointment, error)

	// ListByOwner returns the owner's appointments, newest requested date first.
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Appointment, error)

	// List returns appointments for staff triage, newest created first.
	List(ctx context.Context, filter ListAppointmentsFilter) ([]*domain.Appointment, error)

	// Transition compare-and-sets the status: the update only applies while
	// the stored status still equals from. Racing writers serialize here; the
	// loser receives domain.ErrInvalidTransition. Returns the updated record.
	Transition(ctx context.Context, id string, from, to domain.AppointmentStatus) (*domain.Appointment, error)

	// Reschedule moves a pending appointment to a new date. The conflict
	// invariant is re-checked atomically against the new date; a violating
	// change returns domain.ErrDateConflict.
	Reschedule(ctx context.Context, id, newDate string) (*domain.Appointment, error)

	// SetAttendanceWindow records entry/exit times on a confirmed appointment.
	// Returns domain.ErrNotConfirmed when the appointment left that status.
	SetAttendanceWindow(ctx context.Context, id, entryTime, exitTime string) (*domain.Appointment, error)
}
