package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bibliotech/consultation-api/internal/core/domain"
	"github.com/bibliotech/consultation-api/internal/core/ports"
)

// NotificationHandler exposes the per-user notification inbox.
type NotificationHandler struct {
	service ports.NotificationService
}

func NewNotificationHandler(service ports.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

type listNotificationsResponse struct {
	Data []*domain.Notification `json:"data"`
}

// List handles GET /v1/notifications. Pass ?unread=true to restrict the
// result to unread entries.
//
// @Summary      List my notifications, newest first
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        unread  query     bool  false  "Only unread notifications"
// @Success      200     {object}  listNotificationsResponse
// @Router       /v1/notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	unreadOnly := c.QueryParam("unread") == "true"
	notifications, err := h.service.List(c.Request().Context(), caller, unreadOnly)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listNotificationsResponse{Data: notifications})
}

// MarkRead handles PATCH /v1/notifications/:id/read. Only the owner of the
// notification may mark it read; anyone else gets a 403.
//
// @Summary      Mark one of my notifications as read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Notification id"
// @Success      200  {object}  domain.Notification
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	caller, err := ctxCaller(c)
	if err != nil {
		return err
	}

	notification, err := h.service.MarkRead(c.Request().Context(), caller, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, notification)
}
