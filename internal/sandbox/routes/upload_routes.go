package routes

import (
	"github.com/labstack/echo/v4"

	"tourdesk/internal/models"
	"tourdesk/internal/sandbox/api/middleware"
	"tourdesk/internal/sandbox/handlers"
	"tourdesk/internal/sandbox/services"
	console "tourdesk/internal/utils/logger"
)

func SetupUploadRoutes(api *echo.Group, storage services.Storage) {
	log := console.New("UPLOAD-ROUTES")

	uploadHandler := handlers.NewUploadHandler(storage)
	fileGroup := api.Group("/files")
	fileGroup.POST("/upload", uploadHandler.UploadFile, middleware.RequireAction("files", models.ActionCreate))

	log.Debug("Upload routes initialized")
}

// SetupCampaignRoutes registers campaign actions next to the emails CRUD routes
func SetupCampaignRoutes(api *echo.Group, campaigns *services.CampaignService) {
	campaignHandler := handlers.NewCampaignHandler(campaigns)
	api.POST("/emails/:id/send", campaignHandler.Send, middleware.RequireAction("emails", models.ActionUpdate))
}
