package handlers

import (
	"errors"
	"log"
	"net/http"

	"lumi/internal/common"
	"lumi/internal/services"

	"github.com/labstack/echo/v4"
)

type SettingsHandler struct {
	inviteSvc services.InviteService
}

func NewSettingsHandler(inviteSvc services.InviteService) *SettingsHandler {
	return &SettingsHandler{inviteSvc: inviteSvc}
}

type updateSettingsRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// UpdateSettings lets a client change their contact info; name is optional
// and left untouched when blank.
func (h *SettingsHandler) UpdateSettings(c echo.Context) error {
	userID, ok := common.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req updateSettingsRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}

	err := h.inviteSvc.UpdateContactInfo(c.Request().Context(), userID, req.Phone, req.Address, common.OptionalString(req.Name))
	if err != nil {
		if errors.Is(err, services.ErrContactInfoRequired) {
			return common.SendValidationError(c, "contact", err.Error())
		}
		log.Printf("Failed to update settings for %s: %v", userID, err)
		return common.SendServerError(c, "Unable to update settings")
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Settings updated"})
}
