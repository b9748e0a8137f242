package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebta/enrollment-api/internal/models"
	appErrors "github.com/ebta/enrollment-api/pkg/errors"
	"github.com/ebta/enrollment-api/pkg/jobs"
)

type fakeApprovalEnrollments struct {
	detail   *models.EnrollmentDetail
	statuses map[string]models.EnrollmentStatus
}

func (f *fakeApprovalEnrollments) FindDetailByID(_ context.Context, id string) (*models.EnrollmentDetail, error) {
	if f.detail == nil || f.detail.ID != id {
		return nil, sql.ErrNoRows
	}
	copied := *f.detail
	return &copied, nil
}

func (f *fakeApprovalEnrollments) UpdateStatus(_ context.Context, id string, status models.EnrollmentStatus) error {
	if f.statuses == nil {
		f.statuses = map[string]models.EnrollmentStatus{}
	}
	f.statuses[id] = status
	return nil
}

type fakeApprovalStudents struct {
	student   *models.Student
	usedPINs  map[string]bool
	pinChecks int
	pinned    string
}

func (f *fakeApprovalStudents) FindByID(_ context.Context, id string) (*models.Student, error) {
	if f.student == nil || f.student.ID != id {
		return nil, sql.ErrNoRows
	}
	return f.student, nil
}

func (f *fakeApprovalStudents) PinInUse(_ context.Context, pin string) (bool, error) {
	f.pinChecks++
	return f.usedPINs[pin], nil
}

func (f *fakeApprovalStudents) UpdatePIN(_ context.Context, _, pin string) error {
	f.pinned = pin
	return nil
}

type fakeQueue struct {
	jobs       []jobs.Job
	enqueueErr error
}

func (f *fakeQueue) Enqueue(job jobs.Job) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func approvalDetail() *models.EnrollmentDetail {
	return &models.EnrollmentDetail{
		Enrollment: models.Enrollment{
			ID:        "enr-1",
			StudentID: "stu-1",
			Month:     "2025-03",
			Status:    models.EnrollmentStatusPending,
		},
		StudentName: "Thandi Nkosi",
		SubjectName: "Mathematics",
		Grade:       "G12",
	}
}

func TestApproveActivatesIssuesPinAndNotifies(t *testing.T) {
	enrollments := &fakeApprovalEnrollments{detail: approvalDetail()}
	email := "thandi@example.com"
	students := &fakeApprovalStudents{student: &models.Student{ID: "stu-1", FullName: "Thandi Nkosi", Phone: "0825550101", Email: &email}}
	queue := &fakeQueue{}
	svc := NewApprovalService(enrollments, students, queue, "https://portal.example.com", "https://portal.example.com/login", nil)

	detail, err := svc.Approve(context.Background(), "enr-1")

	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, detail.Status)
	assert.Equal(t, models.EnrollmentStatusActive, enrollments.statuses["enr-1"])

	require.Len(t, students.pinned, 5)
	assert.Regexp(t, `^\d{5}$`, students.pinned)

	require.Len(t, queue.jobs, 2)
	assert.Equal(t, JobTypeApprovalEmail, queue.jobs[0].Type)
	assert.Equal(t, JobTypeApprovalSMS, queue.jobs[1].Type)
	notification, ok := queue.jobs[0].Payload.(ApprovalNotification)
	require.True(t, ok)
	assert.Equal(t, students.pinned, notification.PIN)
	assert.Contains(t, notification.EmailBody(), "Mathematics")
	assert.Contains(t, notification.EmailBody(), "Grade 12")
	assert.Contains(t, notification.SMSBody(), notification.PIN)
}

func TestApproveKeepsExistingPin(t *testing.T) {
	enrollments := &fakeApprovalEnrollments{detail: approvalDetail()}
	pin := "54321"
	students := &fakeApprovalStudents{student: &models.Student{ID: "stu-1", FullName: "Thandi Nkosi", Phone: "0825550101", PIN: &pin}}
	queue := &fakeQueue{}
	svc := NewApprovalService(enrollments, students, queue, "", "", nil)

	_, err := svc.Approve(context.Background(), "enr-1")

	require.NoError(t, err)
	assert.Empty(t, students.pinned)
	assert.Zero(t, students.pinChecks)
	require.Len(t, queue.jobs, 1)
	notification := queue.jobs[0].Payload.(ApprovalNotification)
	assert.Equal(t, "54321", notification.PIN)
}

func TestApproveSkipsEmailWithoutAddress(t *testing.T) {
	enrollments := &fakeApprovalEnrollments{detail: approvalDetail()}
	students := &fakeApprovalStudents{student: &models.Student{ID: "stu-1", FullName: "Thandi Nkosi", Phone: "0825550101"}}
	queue := &fakeQueue{}
	svc := NewApprovalService(enrollments, students, queue, "", "", nil)

	_, err := svc.Approve(context.Background(), "enr-1")

	require.NoError(t, err)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobTypeApprovalSMS, queue.jobs[0].Type)
}

func TestApproveSurvivesQueueFailure(t *testing.T) {
	enrollments := &fakeApprovalEnrollments{detail: approvalDetail()}
	students := &fakeApprovalStudents{student: &models.Student{ID: "stu-1", FullName: "Thandi Nkosi", Phone: "0825550101"}}
	queue := &fakeQueue{enqueueErr: assert.AnError}
	svc := NewApprovalService(enrollments, students, queue, "", "", nil)

	detail, err := svc.Approve(context.Background(), "enr-1")

	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, detail.Status)
}

func TestApproveUnknownEnrollment(t *testing.T) {
	svc := NewApprovalService(&fakeApprovalEnrollments{}, &fakeApprovalStudents{}, &fakeQueue{}, "", "", nil)

	_, err := svc.Approve(context.Background(), "missing")

	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestLapseSetsStatusWithoutNotification(t *testing.T) {
	enrollments := &fakeApprovalEnrollments{detail: approvalDetail()}
	queue := &fakeQueue{}
	svc := NewApprovalService(enrollments, &fakeApprovalStudents{}, queue, "", "", nil)

	detail, err := svc.Lapse(context.Background(), "enr-1")

	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusLapsed, detail.Status)
	assert.Equal(t, models.EnrollmentStatusLapsed, enrollments.statuses["enr-1"])
	assert.Empty(t, queue.jobs)
}

func TestNotificationHandlerDispatches(t *testing.T) {
	sender := &fakeNotifier{}
	handler := NewNotificationHandler(sender, nil, nil)
	notification := ApprovalNotification{
		StudentName: "Thandi Nkosi",
		Phone:       "0825550101",
		Email:       "thandi@example.com",
		PIN:         "12345",
		SubjectName: "Mathematics",
		GradeLabel:  "Grade 12",
		Month:       "2025-03",
	}

	require.NoError(t, handler(context.Background(), jobs.Job{Type: JobTypeApprovalEmail, Payload: notification}))
	require.NoError(t, handler(context.Background(), jobs.Job{Type: JobTypeApprovalSMS, Payload: notification}))

	require.Len(t, sender.emails, 1)
	assert.Equal(t, "thandi@example.com", sender.emails[0].to)
	require.Len(t, sender.smses, 1)
	assert.Equal(t, "0825550101", sender.smses[0].to)
}

type sentMessage struct {
	to   string
	body string
}

type fakeNotifier struct {
	emails []sentMessage
	smses  []sentMessage
	smsErr error
}

func (f *fakeNotifier) SendEmail(_ context.Context, to, _ string, body string) error {
	f.emails = append(f.emails, sentMessage{to: to, body: body})
	return nil
}

func (f *fakeNotifier) SendSMS(_ context.Context, to, body string) error {
	if f.smsErr != nil {
		return f.smsErr
	}
	f.smses = append(f.smses, sentMessage{to: to, body: body})
	return nil
}

func TestNotificationHandlerRecordsDeliveryOutcomes(t *testing.T) {
	sender := &fakeNotifier{smsErr: errors.New("gateway down")}
	metrics := NewMetricsService()
	handler := NewNotificationHandler(sender, metrics, nil)
	notification := ApprovalNotification{
		StudentName: "Thandi Nkosi",
		Phone:       "0825550101",
		Email:       "thandi@example.com",
		PIN:         "12345",
		SubjectName: "Mathematics",
		GradeLabel:  "Grade 12",
		Month:       "2025-03",
	}

	require.NoError(t, handler(context.Background(), jobs.Job{Type: JobTypeApprovalEmail, Payload: notification}))
	require.Error(t, handler(context.Background(), jobs.Job{Type: JobTypeApprovalSMS, Payload: notification}))

	body := scrapeMetrics(t, metrics)
	assert.Contains(t, body, `notifications_total{channel="email",outcome="sent"} 1`)
	assert.Contains(t, body, `notifications_total{channel="sms",outcome="failed"} 1`)
}
