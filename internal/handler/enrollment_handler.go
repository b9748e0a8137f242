package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ebta/enrollment-api/internal/models"
	"github.com/ebta/enrollment-api/internal/service"
	"github.com/ebta/enrollment-api/pkg/response"
)

// EnrollmentHandler exposes the admin enrollment endpoints.
type EnrollmentHandler struct {
	admin    *service.AdminService
	approval *service.ApprovalService
	metrics  *service.MetricsService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(admin *service.AdminService, approval *service.ApprovalService, metrics *service.MetricsService) *EnrollmentHandler {
	return &EnrollmentHandler{admin: admin, approval: approval, metrics: metrics}
}

func enrollmentFilterFromQuery(c *gin.Context) models.EnrollmentFilter {
	var filter models.EnrollmentFilter
	filter.Month = c.Query("month")
	filter.Status = models.EnrollmentStatus(strings.ToUpper(c.Query("status")))
	filter.Grade = strings.ToUpper(c.Query("grade"))
	filter.Search = c.Query("search")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")
	return filter
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param month query string false "Filter by month (YYYY-MM)"
// @Param status query string false "Filter by status"
// @Param grade query string false "Filter by grade"
// @Param search query string false "Search name or phone"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	enrollments, pagination, err := h.admin.ListEnrollments(c.Request.Context(), enrollmentFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Approve godoc
// @Summary Approve an enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /admin/enrollments/{id}/approve [post]
func (h *EnrollmentHandler) Approve(c *gin.Context) {
	detail, err := h.approval.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.CountEnrollmentEvent("approved")
	response.JSON(c, http.StatusOK, detail, nil)
}

// Lapse godoc
// @Summary Lapse an enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /admin/enrollments/{id}/lapse [post]
func (h *EnrollmentHandler) Lapse(c *gin.Context) {
	detail, err := h.approval.Lapse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.CountEnrollmentEvent("lapsed")
	response.JSON(c, http.StatusOK, detail, nil)
}

// Export godoc
// @Summary Export enrollments
// @Tags Enrollments
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param month query string false "Filter by month (YYYY-MM)"
// @Param status query string false "Filter by status"
// @Success 200 {file} file
// @Router /admin/enrollments/export [get]
func (h *EnrollmentHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	content, contentType, err := h.admin.ExportEnrollments(c.Request.Context(), enrollmentFilterFromQuery(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	ext := "csv"
	if strings.Contains(contentType, "pdf") {
		ext = "pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="enrollments.%s"`, ext))
	c.Data(http.StatusOK, contentType, content)
}

// Registrations godoc
// @Summary List annual registrations
// @Tags Enrollments
// @Produce json
// @Param year query string false "Year (defaults to current)"
// @Success 200 {object} response.Envelope
// @Router /admin/registrations [get]
func (h *EnrollmentHandler) Registrations(c *gin.Context) {
	registrations, err := h.admin.ListRegistrations(c.Request.Context(), c.Query("year"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, registrations, nil)
}
