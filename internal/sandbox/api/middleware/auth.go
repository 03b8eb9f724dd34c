package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"tourdesk/internal/sandbox/services"
	console "tourdesk/internal/utils/logger"
)

var log = console.New("AUTH-MIDDLEWARE")

// Context keys set by AuthMiddleware
const (
	ContextUserID = "userID"
	ContextEmail  = "email"
	ContextRole   = "role"
	ContextScopes = "scopes"
	ContextClaims = "claims"
)

type AuthMiddleware struct {
	auth *services.AuthService
}

func NewAuthMiddleware(auth *services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

func (m *AuthMiddleware) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthenticated.")
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			claims, err := m.auth.ParseJWT(c.Request().Context(), token)
			if err != nil {
				log.Debug("Rejected token: %v", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthenticated.")
			}

			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextEmail, claims.Email)
			c.Set(ContextRole, claims.Role)
			c.Set(ContextScopes, claims.Scopes)
			c.Set(ContextClaims, claims)
			return next(c)
		}
	}
}

// GetUserID Helper functions to get values from context
func GetUserID(c echo.Context) uint64 {
	if id, ok := c.Get(ContextUserID).(uint64); ok {
		return id
	}
	return 0
}

func GetUserRole(c echo.Context) string {
	if role, ok := c.Get(ContextRole).(string); ok {
		return role
	}
	return ""
}

func GetScopes(c echo.Context) []string {
	if scopes, ok := c.Get(ContextScopes).([]string); ok {
		return scopes
	}
	return nil
}

func GetClaims(c echo.Context) *services.Claims {
	if claims, ok := c.Get(ContextClaims).(*services.Claims); ok {
		return claims
	}
	return nil
}
