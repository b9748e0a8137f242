package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ebta/enrollment-api/internal/service"
	"github.com/ebta/enrollment-api/pkg/response"
)

// StatusHandler serves the public enrollment status page.
type StatusHandler struct {
	status *service.StatusService
}

// NewStatusHandler constructs StatusHandler.
func NewStatusHandler(status *service.StatusService) *StatusHandler {
	return &StatusHandler{status: status}
}

// Status godoc
// @Summary Enrollment status
// @Tags Status
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param token query string false "Status token"
// @Success 200 {object} response.Envelope
// @Router /status/{id} [get]
func (h *StatusHandler) Status(c *gin.Context) {
	view, err := h.status.Status(c.Request.Context(), c.Param("id"), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
