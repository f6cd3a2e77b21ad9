package handler

import (
	"time"

	"github.com/bibliotech/consultation-api/internal/core/domain"
)

// --- Request types ---

type bookRefRequest struct {
	Title           string `json:"title"            validate:"required"`
	InventoryNumber string `json:"inventory_number"`
}

type createAppointmentRequest struct {
	Book           bookRefRequest `json:"book"            validate:"required"`
	Date           string         `json:"date"            validate:"required,datetime=2006-01-02"`
	Reason         string         `json:"reason"          validate:"required"`
	Message        string         `json:"message"`
	VisitorProfile string         `json:"visitor_profile" validate:"required,oneof=researcher_student professor_researcher academic professional project_owner other"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Phone          string         `json:"phone"`
}

type transitionRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed cancelled completed"`
}

type rescheduleRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type attendanceRequest struct {
	EntryTime string `json:"entry_time" validate:"omitempty,datetime=15:04"`
	ExitTime  string `json:"exit_time"  validate:"omitempty,datetime=15:04"`
}

// --- Response types ---
// Owned by the transport layer so the JSON contract is not coupled to
// internal service changes.

type contactResponse struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type bookSnapshotResponse struct {
	Title           string `json:"title"`
	Author          string `json:"author,omitempty"`
	InventoryNumber string `json:"inventory_number"`
	OldCode         string `json:"old_code,omitempty"`
}

type appointmentResponse struct {
	ID              string               `json:"id"`
	BookID          string               `json:"book_id"`
	OwnerID         string               `json:"owner_id"`
	RequestedDate   string               `json:"requested_date"`
	Status          string               `json:"status"`
	Reason          string               `json:"reason"`
	Message         string               `json:"message,omitempty"`
	VisitorProfile  string               `json:"visitor_profile"`
	Contact         contactResponse      `json:"contact"`
	Book            bookSnapshotResponse `json:"book"`
	EntryTime       string               `json:"entry_time,omitempty"`
	ExitTime        string               `json:"exit_time,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	StatusChangedAt time.Time            `json:"status_changed_at"`
}

type listAppointmentsResponse struct {
	Data []appointmentResponse `json:"data"`
}

type triageGroupResponse struct {
	Status       string                `json:"status"`
	Appointments []appointmentResponse `json:"appointments"`
}

type triageResponse struct {
	Groups []triageGroupResponse `json:"groups"`
}

func toAppointmentResponse(a *domain.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:             a.ID,
		BookID:         a.BookID,
		OwnerID:        a.OwnerID,
		RequestedDate:  a.RequestedDate,
		Status:         string(a.Status),
		Reason:         a.Reason,
		Message:        a.Message,
		VisitorProfile: a.VisitorProfile,
		Contact: contactResponse{
			FirstName: a.Contact.FirstName,
			LastName:  a.Contact.LastName,
			Email:     a.Contact.Email,
			Phone:     a.Contact.Phone,
		},
		Book: bookSnapshotResponse{
			Title:           a.Book.Title,
			Author:          a.Book.Author,
			InventoryNumber: a.Book.InventoryNumber,
			OldCode:         a.Book.OldCode,
		},
		EntryTime:       a.EntryTime,
		ExitTime:        a.ExitTime,
		CreatedAt:       a.CreatedAt,
		StatusChangedAt: a.StatusChangedAt,
	}
}

func toAppointmentResponses(appointments []*domain.Appointment) []appointmentResponse {
	out := make([]appointmentResponse, 0, len(appointments))
	for _, a := range appointments {
		out = append(out, toAppointmentResponse(a))
	}
	return out
}
