package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/bibliotech/consultation-api/internal/core/domain"
	"github.com/bibliotech/consultation-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

// stubAppointmentRepo mirrors the atomicity contract of the Mongo repository:
// conflict checks and compare-and-set transitions run under one lock.
type stubAppointmentRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Appointment
	createErr error // if set, Create returns this error
}

func newStubAppointmentRepo() *stubAppointmentRepo {
	return &stubAppointmentRepo{byID: make(map[string]*domain.Appointment)}
}

func cloneAppointment(a *domain.Appointment) *domain.Appointment {
	clone := *a
	return &clone
}

func (r *stubAppointmentRepo) hasActiveLocked(bookID, date, excludeID string) bool {
	for _, a := range r.byID {
		if a.ID != excludeID && a.BookID == bookID && a.RequestedDate == date && a.Status.IsActive() {
			return true
		}
	}
	return false
}

func (r *stubAppointmentRepo) Create(_ context.Context, a *domain.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if r.hasActiveLocked(a.BookID, a.RequestedDate, "") {
		return domain.ErrDateConflict
	}
	r.byID[a.ID] = cloneAppointment(a)
	return nil
}

func (r *stubAppointmentRepo) FindByID(_ context.Context, id string) (*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	return cloneAppointment(a), nil
}

func (r *stubAppointmentRepo) ListByOwner(_ context.Context, ownerID string) ([]*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Appointment
	for _, a := range r.byID {
		if a.OwnerID == ownerID {
			out = append(out, cloneAppointment(a))
		}
	}
	return out, nil
}

func (r *stubAppointmentRepo) List(_ context.Context, f ports.ListAppointmentsFilter) ([]*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Appointment
	for _, a := range r.byID {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, cloneAppointment(a))
	}
	return out, nil
}

func (r *stubAppointmentRepo) Transition(_ context.Context, id string, from, to domain.AppointmentStatus) (*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	if a.Status != from {
		// The compare-and-set filter missed: a concurrent writer got there first.
		return nil, domain.ErrInvalidTransition
	}
	a.Status = to
	a.Active = to.IsActive()
	a.StatusChangedAt = time.Now().UTC()
	return cloneAppointment(a), nil
}

func (r *stubAppointmentRepo) Reschedule(_ context.Context, id, newDate string) (*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	if a.Status != domain.StatusPending {
		return nil, domain.ErrInvalidTransition
	}
	if r.hasActiveLocked(a.BookID, newDate, id) {
		return nil, domain.ErrDateConflict
	}
	a.RequestedDate = newDate
	return cloneAppointment(a), nil
}

func (r *stubAppointmentRepo) SetAttendanceWindow(_ context.Context, id, entryTime, exitTime string) (*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	if a.Status != domain.StatusConfirmed {
		return nil, domain.ErrNotConfirmed
	}
	if entryTime != "" {
		a.EntryTime = entryTime
	}
	if exitTime != "" {
		a.ExitTime = exitTime
	}
	return cloneAppointment(a), nil
}

// stubCatalog serves a fixed set of books.
type stubCatalog struct {
	books []domain.Book
}

func (c *stubCatalog) FindBook(_ context.Context, title, inventoryNumber string) (*domain.Book, error) {
	for _, b := range c.books {
		if b.Title != title {
			continue
		}
		if inventoryNumber != "" && b.InventoryNumber != inventoryNumber {
			continue
		}
		clone := b
		return &clone, nil
	}
	return nil, domain.ErrBookNotFound
}

func (c *stubCatalog) BooksInCategory(_ context.Context, categoryID, excludeID string, limit int) ([]domain.Book, error) {
	var out []domain.Book
	for _, b := range c.books {
		if b.CategoryID != categoryID || b.ID == excludeID {
			continue
		}
		out = append(out, b)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// recordingDispatcher counts fan-out calls; failErr makes every call fail.
type recordingDispatcher struct {
	mu          sync.Mutex
	created     []string
	transitions []string
	failErr     error
}

func (d *recordingDispatcher) OnCreated(_ context.Context, a *domain.Appointment) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failErr != nil {
		return d.failErr
	}
	d.created = append(d.created, a.ID)
	return nil
}

func (d *recordingDispatcher) OnTransition(_ context.Context, a *domain.Appointment, from, to domain.AppointmentStatus) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failErr != nil {
		return d.failErr
	}
	d.transitions = append(d.transitions, fmt.Sprintf("%s:%s->%s", a.ID, from, to))
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

func testCatalog() *stubCatalog {
	return &stubCatalog{books: []domain.Book{
		{ID: "bk_1", Title: "Annales du Sahel", CategoryID: "cat_history", InventoryNumber: "INV-001"},
		{ID: "bk_2", Title: "Chroniques de Tombouctou", CategoryID: "cat_history", InventoryNumber: "INV-002"},
		{ID: "bk_3", Title: "Manuscrits anciens", CategoryID: "cat_history", InventoryNumber: "INV-003"},
		{ID: "bk_4", Title: "Atlas climatique", CategoryID: "cat_geo", InventoryNumber: "INV-004"},
	}}
}

func patron(id string) ports.Caller {
	return ports.Caller{ID: id, Role: domain.RolePatron, Name: "Traore", Email: id + "@example.com", Phone: "+223"}
}

func staff(role domain.Role) ports.Caller {
	return ports.Caller{ID: "staff_1", Role: role, Name: "Keita", Email: "staff@example.com"}
}

func bookingInput(title, date string) ports.RequestAppointmentInput {
	return ports.RequestAppointmentInput{
		Book:           ports.BookRef{Title: title},
		Date:           date,
		Reason:         "research",
		VisitorProfile: "researcher_student",
		FirstName:      "Awa",
		LastName:       "Traore",
	}
}

func newTestService() (*AppointmentService, *stubAppointmentRepo, *recordingDispatcher) {
	repo := newStubAppointmentRepo()
	dispatcher := &recordingDispatcher{}
	svc := NewAppointmentService(repo, testCatalog(), dispatcher, discardLogger)
	return svc, repo, dispatcher
}

// ---------------------------------------------------------------------------
// RequestAppointment tests
// ---------------------------------------------------------------------------

func TestRequestAppointment_Success(t *testing.T) {
	svc, repo, dispatcher := newTestService()

	a, err := svc.RequestAppointment(context.Background(), patron("u1"), bookingInput("Annales du Sahel", "2026-09-01"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.Status != domain.StatusPending {
		t.Errorf("expected status pending, got %s", a.Status)
	}
	if !a.Active {
		t.Error("new appointment must be active")
	}
	if a.BookID != "bk_1" {
		t.Errorf("expected book bk_1, got %s", a.BookID)
	}
	if a.Book.Title != "Annales du Sahel" {
		t.Errorf("book snapshot missing: %+v", a.Book)
	}
	if a.Contact.Email != "u1@example.com" {
		t.Errorf("contact snapshot must carry the caller email, got %q", a.Contact.Email)
	}
	if a.CreatedAt.IsZero() || a.StatusChangedAt.IsZero() {
		t.Error("timestamps must be set")
	}

	if _, ok := repo.byID[a.ID]; !ok {
		t.Error("appointment not persisted")
	}
	if len(dispatcher.created) != 1 || dispatcher.created[0] != a.ID {
		t.Errorf("expected one created fan-out for %s, got %v", a.ID, dispatcher.created)
	}
}

func TestRequestAppointment_StaffForbidden(t *testing.T) {
	svc, _, _ := newTestService()

	for _, role := range []domain.Role{domain.RoleLibrarian, domain.RoleAdministration, domain.RoleAdmin} {
		_, err := svc.RequestAppointment(context.Background(), staff(role), bookingInput("Annales du Sahel", "2026-09-01"))
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("role %s: expected ErrForbidden, got %v", role, err)
		}
	}
}

func TestRequestAppointment_InvalidDate(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.RequestAppointment(context.Background(), patron("u1"), bookingInput("Annales du Sahel", "01/09/2026"))
	if err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestRequestAppointment_BookMissSuggestsAlternatives(t *testing.T) {
	svc, _, _ := newTestService()

	input := bookingInput("Annales du Sahel", "2026-09-01")
	input.Book.InventoryNumber = "INV-999" // exact match fails, title-only succeeds

	_, err := svc.RequestAppointment(context.Background(), patron("u1"), input)

	var miss *domain.BookNotFoundError
	if !errors.As(err, &miss) {
		t.Fatalf("expected BookNotFoundError, got %v", err)
	}
	if len(miss.Alternatives) == 0 {
		t.Error("expected same-category alternatives on recoverable miss")
	}
	for _, b := range miss.Alternatives {
		if b.ID == "bk_1" {
			t.Error("alternatives must exclude the requested book itself")
		}
		if b.CategoryID != "cat_history" {
			t.Errorf("alternative outside category: %+v", b)
		}
	}
}

func TestRequestAppointment_UnknownTitleNoSuggestions(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.RequestAppointment(context.Background(), patron("u1"), bookingInput("No Such Book", "2026-09-01"))

	var miss *domain.BookNotFoundError
	if !errors.As(err, &miss) {
		t.Fatalf("expected BookNotFoundError, got %v", err)
	}
	if len(miss.Alternatives) != 0 {
		t.Errorf("no category to suggest from, got %v", miss.Alternatives)
	}
}

func TestRequestAppointment_DateConflict(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.RequestAppointment(context.Background(), patron("u1"), bookingInput("Annales du Sahel", "2026-09-01")); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}

	_, err := svc.RequestAppointment(context.Background(), patron("u2"), bookingInput("Annales du Sahel", "2026-09-01"))

	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if !errors.Is(err, domain.ErrDateConflict) {
		t.Error("ConflictError must unwrap to ErrDateConflict")
	}
	if conflict.BookID != "bk_1" || conflict.Date != "2026-09-01" {
		t.Errorf("conflict details wrong: %+v", conflict)
	}
	if len(conflict.Alternatives) == 0 {
		t.Error("expected same-category alternatives on conflict")
	}
	if len(conflict.Alternatives) > maxSuggestions {
		t.Errorf("at most %d suggestions, got %d", maxSuggestions, len(conflict.Alternatives))
	}
}

func TestRequestAppointment_SameBookDifferentDate(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.RequestAppointment(context.Background(), patron("u1"), bookingInput("Annales du Sahel", "2026-09-01")); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	if _, err := svc.RequestAppointment(context.Background(), patron("u2"), bookingInput("Annales du Sahel", "2026-09-02")); err != nil {
		t.Fatalf("different date must not conflict: %v", err)
	}
}

func TestRequestAppointment_CancelledSlotIsReusable(t *testing.T) {
	svc, _, _ := newTestService()

	first, err := svc.RequestAppointment(context.Background(), patron("u1"), bookingInput("Annales du Sahel", "2026-09-01"))
	if err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	if _, err := svc.Transition(context.Background(), patron("u1"), first.ID, domain.StatusCancelled); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if _, err := svc.RequestAppointment(context.Background(), patron("u2"), bookingInput("Annales du Sahel", "2026-09-01")); err != nil {
		t.Fatalf("cancelled appointment must release the slot: %v", err)
	}
}

func TestRequestAppointment_ConcurrentBookings_OneWins(t *testing.T) {
	svc, _, _ := newTestService()

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.RequestAppointment(context.Background(), patron(fmt.Sprintf("u%d", n)), bookingInput("Annales du Sahel", "2026-09-01"))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	succeeded, conflicted := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrDateConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("exactly one booking must win, got %d", succeeded)
	}
	if conflicted != attempts-1 {
		t.Errorf("expected %d conflicts, got %d", attempts-1, conflicted)
	}
}

func TestRequestAppointment_DispatcherFailureFailsBooking(t *testing.T) {
	svc, _, dispatcher := newTestService()
	dispatcher.failErr = errors.New("notification store down")

	_, err := svc.RequestAppointment(context.Background(), patron("u1"), bookingInput("Annales du Sahel", "2026-09-01"))
	if err == nil {
		t.Fatal("failed fan-out must fail the booking")
	}
}

// ---------------------------------------------------------------------------
// Transition tests
// ---------------------------------------------------------------------------

func seedAppointment(repo *stubAppointmentRepo, id, ownerID string, status domain.AppointmentStatus) *domain.Appointment {
	now := time.Now().UTC()
	a := &domain.Appointment{
		ID:            id,
		BookID:        "bk_1",
		OwnerID:       ownerID,
		RequestedDate: "2026-09-01",
		Status:        status,
		Active:        status.IsActive(),
		Book:          domain.BookSnapshot{Title: "Annales du Sahel"},
		Contact: domain.ContactSnapshot{
			LastName: "Traore",
			Email:    ownerID + "@example.com",
		},
		CreatedAt:       now,
		StatusChangedAt: now,
	}
	repo.byID[id] = a
	return a
}

func TestTransition_Confirm(t *testing.T) {
	svc, repo, dispatcher := newTestService()
	seedAppointment(repo, "ap_1", "u1", domain.StatusPending)

	updated, err := svc.Transition(context.Background(), staff(domain.RoleAdministration), "ap_1", domain.StatusConfirmed)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if updated.Status != domain.StatusConfirmed {
		t.Errorf("expected confirmed, got %s", updated.Status)
	}
	if len(dispatcher.transitions) != 1 || dispatcher.transitions[0] != "ap_1:pending->confirmed" {
		t.Errorf("unexpected fan-out: %v", dispatcher.transitions)
	}
}

func TestTransition_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Transition(context.Background(), staff(domain.RoleAdmin), "missing", domain.StatusConfirmed)
	if !errors.Is(err, domain.ErrAppointmentNotFound) {
		t.Fatalf("expected ErrAppointmentNotFound, got %v", err)
	}
}

func TestTransition_CompleteKeepsSilent(t *testing.T) {
	svc, repo, dispatcher := newTestService()
	seedAppointment(repo, "ap_1", "u1", domain.StatusConfirmed)

	_, err := svc.Transition(context.Background(), staff(domain.RoleLibrarian), "ap_1", domain.StatusCompleted)
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	// OnTransition is still invoked; the dispatcher decides completion is
	// silent. At the service level the call must simply not fail.
	if len(dispatcher.transitions) != 1 {
		t.Errorf("expected fan-out call, got %v", dispatcher.transitions)
	}
}

func TestTransition_RoleGateBeforeEdgeCheck(t *testing.T) {
	svc, repo, _ := newTestService()
	seedAppointment(repo, "ap_1", "u1", domain.StatusCompleted)

	// Patron on a terminal appointment: role ineligibility wins.
	_, err := svc.Transition(context.Background(), patron("u1"), "ap_1", domain.StatusConfirmed)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// Eligible role on the same terminal appointment: edge error.
	_, err = svc.Transition(context.Background(), staff(domain.RoleAdministration), "ap_1", domain.StatusCancelled)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestTransition_ConcurrentConfirms_OneWins(t *testing.T) {
	svc, repo, _ := newTestService()
	seedAppointment(repo, "ap_1", "u1", domain.StatusPending)

	const attempts = 4
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Transition(context.Background(), staff(domain.RoleAdministration), "ap_1", domain.StatusConfirmed)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInvalidTransition):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("exactly one confirm must win the compare-and-set, got %d", succeeded)
	}
}

func TestTransition_DispatcherFailurePropagates(t *testing.T) {
	svc, repo, dispatcher := newTestService()
	seedAppointment(repo, "ap_1", "u1", domain.StatusPending)
	dispatcher.failErr = errors.New("notification store down")

	_, err := svc.Transition(context.Background(), staff(domain.RoleAdministration), "ap_1", domain.StatusConfirmed)
	if err == nil {
		t.Fatal("failed fan-out must surface to the caller")
	}
}

// ---------------------------------------------------------------------------
// Reschedule tests
// ---------------------------------------------------------------------------

func TestReschedule_OwnerMovesPending(t *testing.T) {
	svc, repo, _ := newTestService()
	seedAppointment(repo, "ap_1", "u1", domain.StatusPending)

	updated, err := svc.Reschedule(context.Background(), patron("u1"), "ap_1", "2026-09-05")
	if err != nil {
		t.Fatalf("reschedule failed: %v", err)
	}
	if updated.RequestedDate != "2026-09-05" {
		t.Errorf("expected new date, got %s", updated.RequestedDate)
	}
}

func TestReschedule_OtherPatronForbidden(t *testing.T) {
	svc, repo, _ := newTestService()
	seedAppointment(repo, "ap_1", "u1", domain.StatusPending)

	_, err := svc.Reschedule(context.Background(), patron("u2"), "ap_1", "2026-09-05")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestReschedule_LibrarianForbidden(t *testing.T) {
	svc, repo, _ := newTestService()
	seedAppointment(repo, "ap_1", "u1", domain.StatusPending)

	_, err := svc.Reschedule(context.Background(), staff(domain.RoleLibrarian), "ap_1", "2026-09-05")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestReschedule_ConflictOnNewDate(t *testing.T) {
	svc, repo, _ := newTestService()
	seedAppointment(repo, "ap_1", "u1", domain.StatusPending)
	other := seedAppointment(repo, "ap_2", "u2", domain.StatusConfirmed)
	other.RequestedDate = "2026-09-05"

	_, err := svc.Reschedule(context.Background(), staff(domain.RoleAdministration), "ap_1", "2026-09-05")

	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Date != "2026-09-05" {
		t.Errorf("conflict date wrong: %+v", conflict)
	}
}

func TestReschedule_InvalidDate(t *testing.T) {
	svc, repo, _ := newTestService()
	seedAppointment(repo, "ap_1", "u1", domain.StatusPending)

	if _, err := svc.Reschedule(context.Background(), patron("u1"), "ap_1", "next tuesday"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

// ---------------------------------------------------------------------------
// Attendance tests
// ---------------------------------------------------------------------------

func TestSetAttendanceWindow_Librarian(t *testing.T) {
	svc, repo, _ := newTestService()
	seedAppointment(repo, "ap_1", "u1", domain.StatusConfirmed)

	updated, err := svc.SetAttendanceWindow(context.Background(), staff(domain.RoleLibrarian), "ap_1", ports.AttendanceInput{
		EntryTime: "09:30",
		ExitTime:  "11:00",
	})
	if err != nil {
		t.Fatalf("attendance failed: %v", err)
	}
	if updated.EntryTime != "09:30" || updated.ExitTime != "11:00" {
		t.Errorf("attendance window not recorded: %+v", updated)
	}
	if updated.Status != domain.StatusConfirmed {
		t.Error("recording attendance must not change the status")
	}
}

func TestSetAttendanceWindow_NonLibrarianForbidden(t *testing.T) {
	svc, repo, _ := newTestService()
	seedAppointment(repo, "ap_1", "u1", domain.StatusConfirmed)

	for _, caller := range []ports.Caller{patron("u1"), staff(domain.RoleAdministration), staff(domain.RoleAdmin)} {
		_, err := svc.SetAttendanceWindow(context.Background(), caller, "ap_1", ports.AttendanceInput{EntryTime: "09:30"})
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("role %s: expected ErrForbidden, got %v", caller.Role, err)
		}
	}
}

func TestSetAttendanceWindow_NotConfirmed(t *testing.T) {
	svc, repo, _ := newTestService()
	seedAppointment(repo, "ap_1", "u1", domain.StatusPending)

	_, err := svc.SetAttendanceWindow(context.Background(), staff(domain.RoleLibrarian), "ap_1", ports.AttendanceInput{EntryTime: "09:30"})
	if !errors.Is(err, domain.ErrNotConfirmed) {
		t.Fatalf("expected ErrNotConfirmed, got %v", err)
	}
}

func TestSetAttendanceWindow_InvalidTime(t *testing.T) {
	svc, repo, _ := newTestService()
	seedAppointment(repo, "ap_1", "u1", domain.StatusConfirmed)

	_, err := svc.SetAttendanceWindow(context.Background(), staff(domain.RoleLibrarian), "ap_1", ports.AttendanceInput{EntryTime: "9h30"})
	if err == nil {
		t.Fatal("expected error for malformed time")
	}
}

// ---------------------------------------------------------------------------
// Listing tests
// ---------------------------------------------------------------------------

func TestListMine_OnlyOwn(t *testing.T) {
	svc, repo, _ := newTestService()
	seedAppointment(repo, "ap_1", "u1", domain.StatusPending)
	seedAppointment(repo, "ap_2", "u2", domain.StatusPending)

	list, err := svc.ListMine(context.Background(), patron("u1"))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != "ap_1" {
		t.Errorf("expected only u1's appointment, got %v", list)
	}
}

func TestListForTriage_PatronForbidden(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.ListForTriage(context.Background(), patron("u1"), "")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestListForTriage_GroupsInTriageOrder(t *testing.T) {
	svc, repo, _ := newTestService()
	seedAppointment(repo, "ap_1", "u1", domain.StatusPending)
	a2 := seedAppointment(repo, "ap_2", "u2", domain.StatusConfirmed)
	a2.RequestedDate = "2026-09-02"
	a3 := seedAppointment(repo, "ap_3", "u3", domain.StatusCancelled)
	a3.RequestedDate = "2026-09-03"

	groups, err := svc.ListForTriage(context.Background(), staff(domain.RoleAdministration), "")
	if err != nil {
		t.Fatalf("triage failed: %v", err)
	}

	if len(groups) != len(triageOrder) {
		t.Fatalf("expected %d groups, got %d", len(triageOrder), len(groups))
	}
	for i, g := range groups {
		if g.Status != triageOrder[i] {
			t.Errorf("group %d: expected %s, got %s", i, triageOrder[i], g.Status)
		}
	}
	if len(groups[0].Appointments) != 1 || groups[0].Appointments[0].ID != "ap_1" {
		t.Errorf("pending group wrong: %v", groups[0].Appointments)
	}
}

func TestListForTriage_StatusFilter(t *testing.T) {
	svc, repo, _ := newTestService()
	seedAppointment(repo, "ap_1", "u1", domain.StatusPending)
	a2 := seedAppointment(repo, "ap_2", "u2", domain.StatusConfirmed)
	a2.RequestedDate = "2026-09-02"

	groups, err := svc.ListForTriage(context.Background(), staff(domain.RoleLibrarian), domain.StatusConfirmed)
	if err != nil {
		t.Fatalf("triage failed: %v", err)
	}
	if len(groups) != 1 || groups[0].Status != domain.StatusConfirmed {
		t.Fatalf("expected single confirmed group, got %v", groups)
	}
	if len(groups[0].Appointments) != 1 || groups[0].Appointments[0].ID != "ap_2" {
		t.Errorf("confirmed group wrong: %v", groups[0].Appointments)
	}
}
