package api

import (
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "tourdesk/docs/swagger"
	"tourdesk/internal/sandbox/api/middleware"
	"tourdesk/internal/sandbox/api/registry"
	"tourdesk/internal/sandbox/routes"
	"tourdesk/internal/sandbox/services"
)

func (s *Server) registerRoutes(basePath string) {
	// Health check
	// @Summary Health check
	// @Description Check if the server is running
	// @Produce json
	// @Success 200 {object} map[string]string "OK"
	// @Router /health [get]
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)
	if local, ok := s.deps.Storage.(*services.LocalStorage); ok {
		s.echo.Static("/storage", local.Dir())
	}

	api := s.echo.Group(basePath)

	// @Summary CSRF handshake
	// @Description Sets the XSRF-TOKEN cookie echoed back in X-XSRF-TOKEN
	// @Success 204 "No content"
	// @Router /api/sanctum/csrf-cookie [get]
	api.GET("/sanctum/csrf-cookie", s.csrfHandshake)

	requireAuth := middleware.NewAuthMiddleware(s.auth).Middleware()
	routes.SetupAuthRoutes(api, s.db, s.auth, requireAuth)

	protected := api.Group("", requireAuth)
	registry.RegisterCRUDRoutes(protected, s.db, s.deps.Bus)
	routes.SetupCampaignRoutes(protected, s.deps.Campaigns)
	routes.SetupUploadRoutes(protected, s.deps.Storage)
}
