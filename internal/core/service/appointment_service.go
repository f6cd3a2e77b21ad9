package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bibliotech/consultation-api/internal/api/metrics"
	"github.com/bibliotech/consultation-api/internal/core/domain"
	"github.com/bibliotech/consultation-api/internal/core/ports"
)

// maxSuggestions caps the similar-item list offered on conflict or not-found.
const maxSuggestions = 5

// triageOrder fixes the group ordering of the staff triage view.
var triageOrder = []domain.AppointmentStatus{
	domain.StatusPending,
	domain.StatusConfirmed,
	domain.StatusCompleted,
	domain.StatusCancelled,
}

// AppointmentService is the scheduling engine. The conflict invariant itself
// lives in the repository; this layer resolves the book, applies the
// role-gated state machine and drives notification fan-out.
type AppointmentService struct {
	repo       ports.AppointmentRepository
	catalog    ports.CatalogRepository
	dispatcher ports.NotificationDispatcher
	logger     zerolog.Logger
}

func NewAppointmentService(
	repo ports.AppointmentRepository,
	catalog ports.CatalogRepository,
	dispatcher ports.NotificationDispatcher,
	logger zerolog.Logger,
) *AppointmentService {
	return &AppointmentService{repo: repo, catalog: catalog, dispatcher: dispatcher, logger: logger}
}

// RequestAppointment books a consultation slot for the caller. On a catalog
// miss or a date conflict the returned error carries up to five alternative
// books from the same category.
func (s *AppointmentService) RequestAppointment(ctx context.Context, caller ports.Caller, input ports.RequestAppointmentInput) (*domain.Appointment, error) {
	if caller.Role != domain.RolePatron {
		return nil, domain.ErrForbidden
	}
	if _, err := time.Parse(domain.DateFormat, input.Date); err != nil {
		return nil, fmt.Errorf("invalid requested date %q: %w", input.Date, err)
	}

	book, err := s.catalog.FindBook(ctx, input.Book.Title, input.Book.InventoryNumber)
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return nil, &domain.BookNotFoundError{
				Title:        input.Book.Title,
				Alternatives: s.suggestForMiss(ctx, input.Book.Title),
			}
		}
		return nil, err
	}

	now := time.Now().UTC()
	appointment := &domain.Appointment{
		ID:             uuid.NewString(),
		BookID:         book.ID,
		OwnerID:        caller.ID,
		RequestedDate:  input.Date,
		Status:         domain.StatusPending,
		Active:         true,
		Reason:         input.Reason,
		Message:        input.Message,
		VisitorProfile: input.VisitorProfile,
		Contact:        contactSnapshot(caller, input),
		Book: domain.BookSnapshot{
			Title:           book.Title,
			Author:          book.Author,
			InventoryNumber: book.InventoryNumber,
			OldCode:         book.OldCode,
		},
		CreatedAt:       now,
		StatusChangedAt: now,
	}

	if err := s.repo.Create(ctx, appointment); err != nil {
		if errors.Is(err, domain.ErrDateConflict) {
			metrics.BookingConflictsTotal.Inc()
			return nil, &domain.ConflictError{
				BookID:       book.ID,
				Date:         input.Date,
				Alternatives: s.suggestAlternatives(ctx, book.CategoryID, book.ID),
			}
		}
		s.logger.Error().Err(err).Str("book_id", book.ID).Msg("failed to create appointment")
		return nil, err
	}

	metrics.AppointmentsCreatedTotal.Inc()
	s.logger.Info().
		Str("appointment_id", appointment.ID).
		Str("book_id", book.ID).
		Str("date", input.Date).
		Msg("appointment requested")

	// Notification persistence is part of the booking contract; a failed
	// fan-out fails the request so the caller can retry (the delivery ledger
	// keeps the retry from duplicating notifications).
	if err := s.dispatcher.OnCreated(ctx, appointment); err != nil {
		return nil, fmt.Errorf("request appointment: notify: %w", err)
	}

	return appointment, nil
}

// Transition applies one state machine edge on behalf of the caller.
func (s *AppointmentService) Transition(ctx context.Context, caller ports.Caller, id string, to domain.AppointmentStatus) (*domain.Appointment, error) {
	appointment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	from := appointment.Status
	if err := domain.CanTransition(caller.Role, appointment.OwnerID == caller.ID, from, to); err != nil {
		return nil, err
	}

	updated, err := s.repo.Transition(ctx, id, from, to)
	if err != nil {
		return nil, err
	}

	metrics.TransitionsTotal.WithLabelValues(string(to)).Inc()
	s.logger.Info().
		Str("appointment_id", id).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("actor_role", string(caller.Role)).
		Msg("appointment transitioned")

	if err := s.dispatcher.OnTransition(ctx, updated, from, to); err != nil {
		return nil, fmt.Errorf("transition: notify: %w", err)
	}

	return updated, nil
}

// Reschedule moves a pending appointment to a new date. The conflict check
// re-runs atomically against the new date inside the repository.
func (s *AppointmentService) Reschedule(ctx context.Context, caller ports.Caller, id, newDate string) (*domain.Appointment, error) {
	if _, err := time.Parse(domain.DateFormat, newDate); err != nil {
		return nil, fmt.Errorf("invalid requested date %q: %w", newDate, err)
	}

	appointment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canReschedule(caller, appointment) {
		return nil, domain.ErrForbidden
	}

	updated, err := s.repo.Reschedule(ctx, id, newDate)
	if err != nil {
		if errors.Is(err, domain.ErrDateConflict) {
			metrics.BookingConflictsTotal.Inc()
			return nil, &domain.ConflictError{
				BookID:       appointment.BookID,
				Date:         newDate,
				Alternatives: s.suggestForAppointment(ctx, appointment),
			}
		}
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", id).
		Str("date", newDate).
		Msg("appointment rescheduled")
	return updated, nil
}

// SetAttendanceWindow records entry/exit times on a confirmed appointment.
// Completion stays a separate, explicit librarian action.
func (s *AppointmentService) SetAttendanceWindow(ctx context.Context, caller ports.Caller, id string, input ports.AttendanceInput) (*domain.Appointment, error) {
	if caller.Role != domain.RoleLibrarian {
		return nil, domain.ErrForbidden
	}
	for _, t := range []string{input.EntryTime, input.ExitTime} {
		if t == "" {
			continue
		}
		if _, err := time.Parse(domain.TimeFormat, t); err != nil {
			return nil, fmt.Errorf("invalid attendance time %q: %w", t, err)
		}
	}

	return s.repo.SetAttendanceWindow(ctx, id, input.EntryTime, input.ExitTime)
}

// ListMine returns the caller's own appointments, newest requested date first.
func (s *AppointmentService) ListMine(ctx context.Context, caller ports.Caller) ([]*domain.Appointment, error) {
	return s.repo.ListByOwner(ctx, caller.ID)
}

// ListForTriage returns the staff review queue grouped by status.
func (s *AppointmentService) ListForTriage(ctx context.Context, caller ports.Caller, status domain.AppointmentStatus) ([]ports.StatusGroup, error) {
	if !caller.Role.IsStaff() {
		return nil, domain.ErrForbidden
	}

	appointments, err := s.repo.List(ctx, ports.ListAppointmentsFilter{Status: status})
	if err != nil {
		return nil, err
	}

	buckets := make(map[domain.AppointmentStatus][]*domain.Appointment, len(triageOrder))
	for _, a := range appointments {
		buckets[a.Status] = append(buckets[a.Status], a)
	}

	groups := make([]ports.StatusGroup, 0, len(triageOrder))
	for _, st := range triageOrder {
		if status != "" && st != status {
			continue
		}
		groups = append(groups, ports.StatusGroup{Status: st, Appointments: buckets[st]})
	}
	return groups, nil
}

// canReschedule allows the owning patron and the confirming staff roles to
// change the date of a request.
func canReschedule(caller ports.Caller, a *domain.Appointment) bool {
	switch caller.Role {
	case domain.RoleAdministration, domain.RoleAdmin:
		return true
	case domain.RolePatron:
		return a.OwnerID == caller.ID
	}
	return false
}

func contactSnapshot(caller ports.Caller, input ports.RequestAppointmentInput) domain.ContactSnapshot {
	snapshot := domain.ContactSnapshot{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     caller.Email,
		Phone:     input.Phone,
	}
	if snapshot.FirstName == "" && snapshot.LastName == "" {
		snapshot.LastName = caller.Name
	}
	if snapshot.Phone == "" {
		snapshot.Phone = caller.Phone
	}
	return snapshot
}

// suggestAlternatives is best-effort: a catalog failure degrades to an empty
// list, never to a failed booking response.
func (s *AppointmentService) suggestAlternatives(ctx context.Context, categoryID, excludeID string) []domain.Book {
	if categoryID == "" {
		return nil
	}
	books, err := s.catalog.BooksInCategory(ctx, categoryID, excludeID, maxSuggestions)
	if err != nil {
		s.logger.Warn().Err(err).Str("category_id", categoryID).Msg("failed to load suggestions")
		return nil
	}
	return books
}

// suggestForMiss tries a title-only match to recover a category to suggest
// from when the exact (title, inventory number) lookup failed.
func (s *AppointmentService) suggestForMiss(ctx context.Context, title string) []domain.Book {
	book, err := s.catalog.FindBook(ctx, title, "")
	if err != nil {
		return nil
	}
	return s.suggestAlternatives(ctx, book.CategoryID, book.ID)
}

func (s *AppointmentService) suggestForAppointment(ctx context.Context, a *domain.Appointment) []domain.Book {
	book, err := s.catalog.FindBook(ctx, a.Book.Title, a.Book.InventoryNumber)
	if err != nil {
		return nil
	}
	return s.suggestAlternatives(ctx, book.CategoryID, book.ID)
}
