package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bibliotech/consultation-api/internal/core/domain"
)

// RequireRole rejects requests whose authenticated role is not in the allowed
// set. It runs after Auth, which injects the role claim. Fine-grained checks
// (ownership, per-transition eligibility) stay in the core services; this
// gate only fences whole route groups.
func RequireRole(allowed ...domain.Role) echo.MiddlewareFunc {
	set := make(map[domain.Role]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get("role").(string)
			if _, ok := set[domain.Role(role)]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "access forbidden")
			}
			return next(c)
		}
	}
}
