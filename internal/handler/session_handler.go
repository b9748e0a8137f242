package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ebta/enrollment-api/internal/service"
	appErrors "github.com/ebta/enrollment-api/pkg/errors"
	"github.com/ebta/enrollment-api/pkg/response"
)

// SessionHandler exposes session QR generation and attendance check-in.
type SessionHandler struct {
	checkIn *service.CheckInService
	metrics *service.MetricsService
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(checkIn *service.CheckInService, metrics *service.MetricsService) *SessionHandler {
	return &SessionHandler{checkIn: checkIn, metrics: metrics}
}

// List godoc
// @Summary List active sessions
// @Tags Sessions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	sessions, err := h.checkIn.ListSessions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// QR godoc
// @Summary Today's check-in QR for a session
// @Tags Sessions
// @Produce png
// @Param id path string true "Session ID"
// @Success 200 {file} file
// @Router /admin/sessions/{id}/qr [get]
func (h *SessionHandler) QR(c *gin.Context) {
	qr, err := h.checkIn.SessionQR(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="checkin.png"`)
	c.Data(http.StatusOK, "image/png", qr.PNG)
}

// Describe godoc
// @Summary Session context for a check-in code
// @Tags Attendance
// @Produce json
// @Param code query string true "Signed check-in code"
// @Success 200 {object} response.Envelope
// @Router /attend [get]
func (h *SessionHandler) Describe(c *gin.Context) {
	info, err := h.checkIn.Describe(c.Request.Context(), c.Query("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

type checkInRequest struct {
	Code  string `json:"code"`
	Phone string `json:"phone"`
}

// CheckIn godoc
// @Summary Record attendance for a session
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body checkInRequest true "Check-in payload"
// @Success 201 {object} response.Envelope
// @Router /attend [post]
func (h *SessionHandler) CheckIn(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.checkIn.CheckIn(c.Request.Context(), req.Code, req.Phone)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.CountCheckIn()
	response.Created(c, result)
}

// Attendance godoc
// @Summary Attendance for a session and date
// @Tags Attendance
// @Produce json
// @Param sessionId query string true "Session ID"
// @Param date query string false "Date (YYYY-MM-DD, defaults to today)"
// @Success 200 {object} response.Envelope
// @Router /admin/attendance [get]
func (h *SessionHandler) Attendance(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "sessionId is required"))
		return
	}
	records, count, err := h.checkIn.Attendance(c.Request.Context(), sessionID, c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil, map[string]interface{}{"count": count})
}
