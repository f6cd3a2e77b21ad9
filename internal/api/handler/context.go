package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bibliotech/consultation-api/internal/core/domain"
	"github.com/bibliotech/consultation-api/internal/core/ports"
)

// ctxCaller assembles the explicit Caller passed into every core operation
// from the claims injected by the Auth middleware. The core never reads
// ambient state; everything it needs about the actor travels in this value.
func ctxCaller(c echo.Context) (ports.Caller, error) {
	id, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	if id == "" || role == "" {
		return ports.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	if !domain.Role(role).Valid() {
		return ports.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "unknown role in token")
	}

	name, _ := c.Get("name").(string)
	email, _ := c.Get("email").(string)
	phone, _ := c.Get("phone").(string)

	return ports.Caller{
		ID:    id,
		Role:  domain.Role(role),
		Name:  name,
		Email: email,
		Phone: phone,
	}, nil
}
