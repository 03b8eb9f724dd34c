package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"tourdesk/internal/models"
	"tourdesk/internal/sandbox/api/middleware"
	"tourdesk/internal/sandbox/services"
	console "tourdesk/internal/utils/logger"
)

type AuthHandler struct {
	db   *gorm.DB
	auth *services.AuthService
	log  *console.Logger
}

func NewAuthHandler(db *gorm.DB, auth *services.AuthService) *AuthHandler {
	return &AuthHandler{db: db, auth: auth, log: console.New("AUTH-HANDLER")}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string       `json:"token"`
	User      *models.User `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Login checks credentials and issues a bearer token
// @Summary Login user
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} map[string]LoginResponse "data: token, user, expires_at"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 422 {object} map[string]interface{} "Validation error"
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	issued, err := h.auth.Login(c.Request().Context(), req.Email, req.Password, c.RealIP(), c.Request().UserAgent())
	if errors.Is(err, services.ErrInvalidCredentials) {
		h.log.Warn("Failed login for %s", req.Email)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}
	if err != nil {
		return h.log.Error("Failed to issue token", err)
	}

	h.log.Success("%s signed in", issued.User.Email)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": LoginResponse{
			Token:     issued.Token,
			User:      issued.User,
			ExpiresAt: issued.ExpiresAt,
		},
		"message": "Signed in",
	})
}

// Logout revokes the caller's token
// @Summary Logout user
// @Tags auth
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthenticated.")
	}
	if err := h.auth.Revoke(c.Request().Context(), claims); err != nil {
		return h.log.Error("Failed to revoke token", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Signed out"})
}

// GetMe returns the current user
// @Summary Get current user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]models.User
// @Router /api/auth/me [get]
func (h *AuthHandler) GetMe(c echo.Context) error {
	var user models.User
	if err := h.db.WithContext(c.Request().Context()).First(&user, middleware.GetUserID(c)).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"user":   user,
			"scopes": middleware.GetScopes(c),
		},
	})
}
