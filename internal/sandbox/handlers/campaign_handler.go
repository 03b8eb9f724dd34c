package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"tourdesk/internal/sandbox/services"
)

type CampaignHandler struct {
	campaigns *services.CampaignService
}

func NewCampaignHandler(campaigns *services.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns}
}

// Send starts delivery of a draft or scheduled campaign
// @Summary Send campaign
// @Tags emails
// @Security BearerAuth
// @Param id path int true "Campaign ID"
// @Success 202 {object} map[string]string
// @Failure 404 {object} map[string]string "Not found"
// @Failure 409 {object} map[string]string "Already sent"
// @Router /api/emails/{id}/send [post]
func (h *CampaignHandler) Send(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id parameter")
	}
	if err := h.campaigns.Send(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, map[string]string{"message": "Campaign is being sent"})
}
