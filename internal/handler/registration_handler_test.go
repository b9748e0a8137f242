package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebta/enrollment-api/internal/service"
)

func quoteTestHandler() *RegistrationHandler {
	registrar := service.NewRegistrationService(nil, nil, nil, nil, nil, service.NewFeeService(), nil, service.RegistrationConfig{}, nil, nil)
	return NewRegistrationHandler(registrar, nil)
}

func TestQuoteHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := quoteTestHandler()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/fees/quote?grade=g12&count=3", nil)
	c.Request = req

	handler.Quote(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data service.FeeQuote `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 750, envelope.Data.Subtotal)
	assert.Equal(t, 38, envelope.Data.Discount)
	assert.Equal(t, 712, envelope.Data.Total)
}

func TestQuoteHandlerRequiresParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := quoteTestHandler()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/fees/quote?grade=G12", nil)
	c.Request = req

	handler.Quote(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubjectIDsFromForm(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, subjectIDsFromForm([]string{"a", "b,c"}))
	assert.Equal(t, []string{"a"}, subjectIDsFromForm([]string{" a , "}))
	assert.Nil(t, subjectIDsFromForm(nil))
}

func TestParseBool(t *testing.T) {
	assert.True(t, parseBool("1"))
	assert.True(t, parseBool("true"))
	assert.True(t, parseBool("YES"))
	assert.False(t, parseBool(""))
	assert.False(t, parseBool("0"))
}

func TestRegisterRejectsInvalidAmount(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := quoteTestHandler()

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	require.NoError(t, form.WriteField("amount_paid", "seven"))
	require.NoError(t, form.Close())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/register", body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	c.Request = req

	handler.Register(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid amount paid")
}
