package domain

import (
	"errors"
	"fmt"
	"time"
)

// AppointmentStatus represents the lifecycle state of a consultation appointment.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// validTransitions defines the allowed state machine transitions.
// cancelled and completed are terminal.
var validTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
}

// transitionRoles maps each target status to the roles allowed to drive an
// appointment there. A patron may only reach cancelled on their own pending
// appointment; that ownership rule lives in CanTransition.
var transitionRoles = map[AppointmentStatus][]Role{
	StatusConfirmed: {RoleAdministration, RoleAdmin},
	StatusCancelled: {RoleAdministration, RoleAdmin, RolePatron},
	StatusCompleted: {RoleLibrarian},
}

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrForbidden           = errors.New("access forbidden")
	ErrDateConflict        = errors.New("book already has an active appointment for this date")
	ErrBookNotFound        = errors.New("book not found")
	ErrNotConfirmed        = errors.New("appointment is not confirmed")
)

// ConflictError reports a booking conflict together with alternative books in
// the same category, so the caller can offer them instead of failing dry.
type ConflictError struct {
	BookID       string
	Date         string
	Alternatives []Book
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("book %s already booked for %s", e.BookID, e.Date)
}

func (e *ConflictError) Unwrap() error { return ErrDateConflict }

// BookNotFoundError reports a failed catalog lookup together with alternative
// books in the requested category (when the category could be resolved).
type BookNotFoundError struct {
	Title        string
	Alternatives []Book
}

func (e *BookNotFoundError) Error() string {
	return fmt.Sprintf("book %q not found", e.Title)
}

func (e *BookNotFoundError) Unwrap() error { return ErrBookNotFound }

// CanTransitionTo reports whether a transition from the current status to next
// exists in the state machine.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition may ever leave this status.
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// IsActive reports whether the appointment counts toward the one-active-
// appointment-per-(book, date) invariant.
func (s AppointmentStatus) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanTransition decides whether the actor may drive an appointment from one
// status to another. Eligibility for the target status is checked before edge
// validity, so an actor who could never reach the target gets ErrForbidden
// while an eligible actor attempting an impossible edge gets
// ErrInvalidTransition.
func CanTransition(role Role, isOwner bool, from, to AppointmentStatus) error {
	eligible := false
	for _, r := range transitionRoles[to] {
		if r != role {
			continue
		}
		if role == RolePatron {
			// A patron may only cancel, and only their own request.
			eligible = isOwner && to == StatusCancelled
		} else {
			eligible = true
		}
		break
	}
	if !eligible {
		return ErrForbidden
	}

	if !from.CanTransitionTo(to) {
		return ErrInvalidTransition
	}

	// Staff-only edge: once confirmed, the patron can no longer back out.
	if role == RolePatron && from == StatusConfirmed {
		return ErrForbidden
	}

	return nil
}

// ContactSnapshot is captured at creation time so the appointment record
// survives later edits to the user profile.
type ContactSnapshot struct {
	FirstName string `json:"first_name" bson:"first_name"`
	LastName  string `json:"last_name" bson:"last_name"`
	Email     string `json:"email" bson:"email"`
	Phone     string `json:"phone" bson:"phone"`
}

// BookSnapshot archives the identifying fields of the requested book.
type BookSnapshot struct {
	Title           string `json:"title" bson:"title"`
	Author          string `json:"author,omitempty" bson:"author,omitempty"`
	InventoryNumber string `json:"inventory_number" bson:"inventory_number"`
	OldCode         string `json:"old_code,omitempty" bson:"old_code,omitempty"`
}

// Appointment is the core aggregate: a request to consult a specific physical
// book on a specific date.
type Appointment struct {
	ID              string            `json:"id" bson:"_id,omitempty"`
	BookID          string            `json:"book_id" bson:"book_id"`
	OwnerID         string            `json:"owner_id" bson:"owner_id"`
	RequestedDate   string            `json:"requested_date" bson:"requested_date"` // YYYY-MM-DD
	Status          AppointmentStatus `json:"status" bson:"status"`
	Active          bool              `json:"-" bson:"active"` // derived from Status; indexed
	Reason          string            `json:"reason" bson:"reason"`
	Message         string            `json:"message,omitempty" bson:"message,omitempty"`
	VisitorProfile  string            `json:"visitor_profile" bson:"visitor_profile"`
	Contact         ContactSnapshot   `json:"contact" bson:"contact"`
	Book            BookSnapshot      `json:"book" bson:"book"`
	EntryTime       string            `json:"entry_time,omitempty" bson:"entry_time,omitempty"` // HH:MM
	ExitTime        string            `json:"exit_time,omitempty" bson:"exit_time,omitempty"`   // HH:MM
	CreatedAt       time.Time         `json:"created_at" bson:"created_at"`
	StatusChangedAt time.Time         `json:"status_changed_at" bson:"status_changed_at"`
}

// DateFormat is the canonical layout of Appointment.RequestedDate.
const DateFormat = "2006-01-02"

// TimeFormat is the canonical layout of the entry/exit attendance times.
const TimeFormat = "15:04"
