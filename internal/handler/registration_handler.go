package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ebta/enrollment-api/internal/service"
	appErrors "github.com/ebta/enrollment-api/pkg/errors"
	"github.com/ebta/enrollment-api/pkg/response"
)

// RegistrationHandler exposes the public enrollment endpoints.
type RegistrationHandler struct {
	registrar *service.RegistrationService
	metrics   *service.MetricsService
}

// NewRegistrationHandler constructs RegistrationHandler.
func NewRegistrationHandler(registrar *service.RegistrationService, metrics *service.MetricsService) *RegistrationHandler {
	return &RegistrationHandler{registrar: registrar, metrics: metrics}
}

// Register godoc
// @Summary Submit a monthly enrollment
// @Tags Registration
// @Accept mpfd
// @Produce json
// @Param full_name formData string true "Student full name"
// @Param phone formData string true "Student phone"
// @Param guardian_name formData string true "Guardian name"
// @Param guardian_phone formData string true "Guardian phone"
// @Param email formData string false "Email"
// @Param province formData string true "Province"
// @Param school formData string true "School"
// @Param subject_ids formData string true "Subject IDs (repeat or comma separated)"
// @Param pin formData string true "5 digit PIN"
// @Param amount_paid formData int true "Amount paid"
// @Param registration_paid formData bool false "Annual registration fee included"
// @Param proof_of_payment formData file true "Proof of payment (1-2 files)"
// @Success 201 {object} response.Envelope
// @Router /register [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart payload"))
		return
	}

	req := service.RegisterRequest{
		FullName:      c.PostForm("full_name"),
		Phone:         c.PostForm("phone"),
		GuardianName:  c.PostForm("guardian_name"),
		GuardianPhone: c.PostForm("guardian_phone"),
		Email:         c.PostForm("email"),
		Province:      c.PostForm("province"),
		School:        c.PostForm("school"),
		PIN:           c.PostForm("pin"),
		SubjectIDs:    subjectIDsFromForm(form.Value["subject_ids"]),
	}
	amount, err := strconv.Atoi(c.PostForm("amount_paid"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid amount paid"))
		return
	}
	req.AmountPaid = amount
	req.RegistrationPaid = parseBool(c.PostForm("registration_paid"))

	files := form.File["proof_of_payment"]
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload"))
			return
		}
		defer file.Close() //nolint:errcheck
		req.Files = append(req.Files, service.Upload{Filename: header.Filename, Reader: file})
	}

	result, err := h.registrar.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.NoChange {
		response.JSON(c, http.StatusOK, result, nil)
		return
	}
	for range result.Created {
		h.metrics.CountEnrollmentEvent("created")
	}
	response.Created(c, result)
}

// Quote godoc
// @Summary Fee quote for a grade and subject count
// @Tags Registration
// @Produce json
// @Param grade query string true "Grade code, e.g. G12"
// @Param count query int true "Subject count"
// @Success 200 {object} response.Envelope
// @Router /fees/quote [get]
func (h *RegistrationHandler) Quote(c *gin.Context) {
	grade := strings.ToUpper(c.Query("grade"))
	count, err := strconv.Atoi(c.Query("count"))
	if grade == "" || err != nil || count < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "grade and a positive count are required"))
		return
	}
	response.JSON(c, http.StatusOK, h.registrar.Quote(grade, count), nil)
}

// subjectIDsFromForm accepts repeated fields and comma separated values.
func subjectIDsFromForm(values []string) []string {
	var ids []string
	for _, value := range values {
		for _, id := range strings.Split(value, ",") {
			id = strings.TrimSpace(id)
			if id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
