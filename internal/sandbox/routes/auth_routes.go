package routes

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"tourdesk/internal/sandbox/handlers"
	"tourdesk/internal/sandbox/services"
)

func SetupAuthRoutes(api *echo.Group, db *gorm.DB, auth *services.AuthService, requireAuth echo.MiddlewareFunc) {
	authHandler := handlers.NewAuthHandler(db, auth)

	group := api.Group("/auth")

	// Public routes (no auth required)
	group.POST("/login", authHandler.Login)

	// Protected auth routes
	group.POST("/logout", authHandler.Logout, requireAuth)
	group.GET("/me", authHandler.GetMe, requireAuth)
}
