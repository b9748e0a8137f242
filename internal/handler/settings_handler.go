package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ebta/enrollment-api/internal/models"
	"github.com/ebta/enrollment-api/internal/service"
	appErrors "github.com/ebta/enrollment-api/pkg/errors"
	"github.com/ebta/enrollment-api/pkg/response"
)

// SettingsHandler exposes the admin settings endpoints.
type SettingsHandler struct {
	settings *service.SettingsService
}

// NewSettingsHandler constructs SettingsHandler.
func NewSettingsHandler(settings *service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// wellKnownKeys are the settings exposed on the admin surface.
var wellKnownKeys = []string{
	models.SettingCurrentMonth,
	models.SettingEnrollmentOpen,
	models.SettingEnrollmentMessage,
}

// Get godoc
// @Summary Current settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	values := map[string]string{}
	for _, key := range wellKnownKeys {
		value, err := h.settings.Get(c.Request.Context(), key)
		if err != nil {
			if appErrors.FromError(err).Code == appErrors.ErrNotFound.Code {
				continue
			}
			response.Error(c, err)
			return
		}
		values[key] = value
	}
	response.JSON(c, http.StatusOK, values, nil)
}

type updateSettingsRequest struct {
	CurrentMonth      *string `json:"current_month"`
	EnrollmentOpen    *string `json:"enrollment_open"`
	EnrollmentMessage *string `json:"enrollment_message"`
}

// Update godoc
// @Summary Update settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body updateSettingsRequest true "Settings to update"
// @Success 200 {object} response.Envelope
// @Router /admin/settings [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	updates := map[string]*string{
		models.SettingCurrentMonth:      req.CurrentMonth,
		models.SettingEnrollmentOpen:    req.EnrollmentOpen,
		models.SettingEnrollmentMessage: req.EnrollmentMessage,
	}
	changed := map[string]string{}
	for key, value := range updates {
		if value == nil {
			continue
		}
		if err := h.settings.Set(c.Request.Context(), key, *value); err != nil {
			response.Error(c, err)
			return
		}
		changed[key] = *value
	}
	if len(changed) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "no settings provided"))
		return
	}
	response.JSON(c, http.StatusOK, changed, nil)
}
