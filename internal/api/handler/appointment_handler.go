package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bibliotech/consultation-api/internal/core/domain"
	"github.com/bibliotech/consultation-api/internal/core/ports"
)

// AppointmentHandler exposes the scheduling engine over HTTP. All error
// mapping happens in the central HTTPErrorHandler.
type AppointmentHandler struct {
	service ports.AppointmentService
}

func NewAppointmentHandler(service ports.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

// Create handles POST /v1/appointments.
//
// @Summary      Request a consultation appointment
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createAppointmentRequest  true  "Booking request"
// @Success      201   {object}  appointmentResponse
// @Failure      404   {object}  errorResponse  "book not found, with alternatives"
// @Failure      409   {object}  errorResponse  "date conflict, with alternatives"
// @Failure      422   {object}  errorResponse
// @Router       /v1/appointments [post]
func (h *AppointmentHandler) Create(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req createAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	appointment, err := h.service.RequestAppointment(c.Request().Context(), caller, ports.RequestAppointmentInput{
		Book: ports.BookRef{
			Title:           req.Book.Title,
			InventoryNumber: req.Book.InventoryNumber,
		},
		Date:           req.Date,
		Reason:         req.Reason,
		Message:        req.Message,
		VisitorProfile: req.VisitorProfile,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toAppointmentResponse(appointment))
}

// ListMine handles GET /v1/appointments — the caller's own appointments.
//
// @Summary      List my appointments
// @Tags         appointments
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listAppointmentsResponse
// @Router       /v1/appointments [get]
func (h *AppointmentHandler) ListMine(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	appointments, err := h.service.ListMine(c.Request().Context(), caller)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listAppointmentsResponse{Data: toAppointmentResponses(appointments)})
}

// Triage handles GET /v1/triage/appointments — the staff review queue.
//
// @Summary      List appointments for staff triage, grouped by status
// @Tags         appointments
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter to a single status"  Enums(pending, confirmed, cancelled, completed)
// @Success      200     {object}  triageResponse
// @Failure      403     {object}  errorResponse
// @Router       /v1/triage/appointments [get]
func (h *AppointmentHandler) Triage(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	groups, err := h.service.ListForTriage(c.Request().Context(), caller, domain.AppointmentStatus(c.QueryParam("status")))
	if err != nil {
		return err
	}

	resp := triageResponse{Groups: make([]triageGroupResponse, 0, len(groups))}
	for _, g := range groups {
		resp.Groups = append(resp.Groups, triageGroupResponse{
			Status:       string(g.Status),
			Appointments: toAppointmentResponses(g.Appointments),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// Transition handles PATCH /v1/appointments/:id/status.
//
// @Summary      Confirm, cancel or complete an appointment
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Appointment id"
// @Param        body  body      transitionRequest  true  "Target status"
// @Success      200   {object}  appointmentResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse  "invalid status transition"
// @Router       /v1/appointments/{id}/status [patch]
func (h *AppointmentHandler) Transition(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req transitionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	appointment, err := h.service.Transition(c.Request().Context(), caller, c.Param("id"), domain.AppointmentStatus(req.Status))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toAppointmentResponse(appointment))
}

// Reschedule handles PATCH /v1/appointments/:id/date.
//
// @Summary      Move a pending appointment to a new date
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Appointment id"
// @Param        body  body      rescheduleRequest  true  "New date"
// @Success      200   {object}  appointmentResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse  "date conflict, with alternatives"
// @Router       /v1/appointments/{id}/date [patch]
func (h *AppointmentHandler) Reschedule(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req rescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	appointment, err := h.service.Reschedule(c.Request().Context(), caller, c.Param("id"), req.Date)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toAppointmentResponse(appointment))
}

// Attendance handles PATCH /v1/appointments/:id/attendance — librarian-only
// entry/exit capture. Recording attendance never changes the status.
//
// @Summary      Record entry/exit times on a confirmed appointment
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Appointment id"
// @Param        body  body      attendanceRequest  true  "Attendance window"
// @Success      200   {object}  appointmentResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse  "appointment is not confirmed"
// @Router       /v1/appointments/{id}/attendance [patch]
func (h *AppointmentHandler) Attendance(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	var req attendanceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	appointment, err := h.service.SetAttendanceWindow(c.Request().Context(), caller, c.Param("id"), ports.AttendanceInput{
		EntryTime: req.EntryTime,
		ExitTime:  req.ExitTime,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toAppointmentResponse(appointment))
}
