package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tourdesk/internal/models"
)

// RequirePermissions checks the caller's scopes grant the action implied by
// the request method on resource.
func RequirePermissions(resource string) echo.MiddlewareFunc {
	return requireAction(resource, "")
}

// RequireAction is RequirePermissions with a fixed action, for custom routes
// whose method does not say what they do.
func RequireAction(resource, action string) echo.MiddlewareFunc {
	return requireAction(resource, action)
}

func requireAction(resource, fixed string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			action := fixed
			if action == "" {
				action = models.ActionForMethod(c.Request().Method)
			}
			if action == "" {
				return echo.NewHTTPError(http.StatusMethodNotAllowed, "Invalid request method")
			}
			if !models.Allows(GetScopes(c), resource, action) {
				log.Debug("Denied %s:%s to role %q", resource, action, GetUserRole(c))
				return echo.NewHTTPError(http.StatusForbidden, "This action is unauthorized.")
			}
			return next(c)
		}
	}
}
