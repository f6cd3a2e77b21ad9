package ports

import (
	"context"

	"github.com/bibliotech/consultation-api/internal/core/domain"
)

// Caller identifies the authenticated actor on whose behalf an operation
// runs. It is always passed explicitly; the core never reads ambient state.
type Caller struct {
	ID    string
	Role  domain.Role
	Name  string
	Email string
	Phone string
}

// BookRef is how a patron identifies the book they want to consult: by title
// and, optionally, the inventory number printed on the item.
type BookRef struct {
	Title           string
	InventoryNumber string
}

// RequestAppointmentInput carries a patron's booking request.
type RequestAppointmentInput struct {
	Book           BookRef
	Date           string // YYYY-MM-DD
	Reason         string
	Message        string
	VisitorProfile string
	// Contact overrides; caller profile values are used when empty.
	FirstName string
	LastName  string
	Phone     string
}

// StatusGroup is one bucket of the staff triage view.
type StatusGroup struct {
	Status       domain.AppointmentStatus
	Appointments []*domain.Appointment
}

// AttendanceInput carries the librarian-recorded entry/exit times (HH:MM).
// Either field may be empty to leave the stored value untouched.
type AttendanceInput struct {
	EntryTime string
	ExitTime  string
}

// AppointmentService is the scheduling engine: it validates booking requests
// against the store, applies the role-gated state machine, and triggers
// notification fan-out.
type AppointmentService interface {
	RequestAppointment(ctx context.Context, caller Caller, input RequestAppointmentInput) (*domain.Appointment, error)
	Transition(ctx context.Context, caller Caller, id string, to domain.AppointmentStatus) (*domain.Appointment, error)
	Reschedule(ctx context.Context, caller Caller, id, newDate string) (*domain.Appointment, error)
	SetAttendanceWindow(ctx context.Context, caller Caller, id string, input AttendanceInput) (*domain.Appointment, error)
	ListMine(ctx context.Context, caller Caller) ([]*domain.Appointment, error)
	ListForTriage(ctx context.Context, caller Caller, status domain.AppointmentStatus) ([]StatusGroup, error)
}
