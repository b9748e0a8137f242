package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrapeMetrics(t *testing.T, m *MetricsService) string {
	t.Helper()
	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/metrics", nil)
	require.NoError(t, err)
	m.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestMetricsCountersAppearInScrape(t *testing.T) {
	m := NewMetricsService()

	m.CountEnrollmentEvent("created")
	m.CountEnrollmentEvent("created")
	m.CountEnrollmentEvent("approved")
	m.CountEnrollmentEvent("lapsed")
	m.CountCheckIn()
	m.CountNotification("email", "sent")
	m.CountNotification("sms", "failed")
	m.ObserveHTTPRequest(http.MethodPost, "/register", http.StatusCreated, 20*time.Millisecond)

	body := scrapeMetrics(t, m)
	assert.Contains(t, body, `enrollments_total{event="created"} 2`)
	assert.Contains(t, body, `enrollments_total{event="approved"} 1`)
	assert.Contains(t, body, `enrollments_total{event="lapsed"} 1`)
	assert.Contains(t, body, `check_ins_total 1`)
	assert.Contains(t, body, `notifications_total{channel="email",outcome="sent"} 1`)
	assert.Contains(t, body, `notifications_total{channel="sms",outcome="failed"} 1`)
	assert.Contains(t, body, `http_requests_total{method="POST",path="/register",status="201"} 1`)
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *MetricsService
	m.CountEnrollmentEvent("created")
	m.CountCheckIn()
	m.CountNotification("email", "sent")
	m.ObserveHTTPRequest(http.MethodGet, "/health", http.StatusOK, time.Millisecond)

	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, "/metrics", nil)
	require.NoError(t, err)
	m.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
