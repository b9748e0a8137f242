package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebta/enrollment-api/internal/models"
	appErrors "github.com/ebta/enrollment-api/pkg/errors"
	"github.com/ebta/enrollment-api/pkg/qrtoken"
)

type fakeSessionRepo struct {
	detail *models.SessionDetail
}

func (f *fakeSessionRepo) FindDetailByID(_ context.Context, id string) (*models.SessionDetail, error) {
	if f.detail == nil || f.detail.ID != id {
		return nil, sql.ErrNoRows
	}
	return f.detail, nil
}

func (f *fakeSessionRepo) ListActive(_ context.Context) ([]models.SessionDetail, error) {
	if f.detail == nil {
		return nil, nil
	}
	return []models.SessionDetail{*f.detail}, nil
}

type fakeCheckInStudents struct {
	student *models.Student
}

func (f *fakeCheckInStudents) FindByPhone(_ context.Context, phone string) (*models.Student, error) {
	if f.student == nil || f.student.Phone != phone {
		return nil, sql.ErrNoRows
	}
	return f.student, nil
}

type fakeActiveChecker struct {
	active     bool
	askedMonth string
}

func (f *fakeActiveChecker) ExistsActive(_ context.Context, _, _, month string) (bool, error) {
	f.askedMonth = month
	return f.active, nil
}

type fakeAttendance struct {
	created []*models.Attendance
	records []models.AttendanceRecord
}

func (f *fakeAttendance) Create(_ context.Context, attendance *models.Attendance) error {
	attendance.ID = "att-1"
	f.created = append(f.created, attendance)
	return nil
}

func (f *fakeAttendance) ListBySessionDate(_ context.Context, _, _ string) ([]models.AttendanceRecord, error) {
	return f.records, nil
}

func (f *fakeAttendance) CountBySessionDate(_ context.Context, _, _ string) (int, error) {
	return len(f.records), nil
}

type fakeMonthSource struct {
	month string
}

func (f *fakeMonthSource) CurrentMonth(_ context.Context) (string, error) {
	return f.month, nil
}

func checkInFixture(active bool) (*CheckInService, *fakeActiveChecker, *fakeAttendance, *qrtoken.Signer) {
	meet := "https://meet.example.com/abc"
	sessions := &fakeSessionRepo{detail: &models.SessionDetail{
		Session:     models.Session{ID: "ses-1", SubjectID: "sub-math", MeetLink: &meet, Active: true},
		SubjectName: "Mathematics",
		Grade:       "G12",
		TutorName:   "Mr Dlamini",
	}}
	students := &fakeCheckInStudents{student: &models.Student{ID: "stu-1", FullName: "Thandi Nkosi", Phone: "0825550101"}}
	checker := &fakeActiveChecker{active: active}
	attendance := &fakeAttendance{}
	signer := qrtoken.NewSigner("test-secret", time.Hour)
	svc := NewCheckInService(sessions, students, checker, attendance, &fakeMonthSource{month: "2025-03"}, signer, "https://portal.example.com", 128, nil)
	return svc, checker, attendance, signer
}

func TestSessionQREncodesCheckInURL(t *testing.T) {
	svc, _, _, signer := checkInFixture(true)

	qr, err := svc.SessionQR(context.Background(), "ses-1")

	require.NoError(t, err)
	assert.Equal(t, "Mathematics", qr.SubjectName)
	assert.NotEmpty(t, qr.PNG)
	assert.Contains(t, qr.CheckInURL, "https://portal.example.com/attend?code=")

	code := qr.CheckInURL[len("https://portal.example.com/attend?code="):]
	payload, err := signer.Parse(code)
	require.NoError(t, err)
	assert.Equal(t, "ses-1", payload.SessionID)
	assert.Equal(t, time.Now().Format("2006-01-02"), payload.Date)
}

func TestCheckInRecordsAttendance(t *testing.T) {
	svc, checker, attendance, signer := checkInFixture(true)
	code, err := signer.Generate(qrtoken.Payload{SessionID: "ses-1", Date: "2025-03-10"})
	require.NoError(t, err)

	result, err := svc.CheckIn(context.Background(), code, "082 555 0101")

	require.NoError(t, err)
	assert.Equal(t, "att-1", result.AttendanceID)
	assert.Equal(t, "Thandi Nkosi", result.StudentName)
	require.NotNil(t, result.MeetLink)

	// enrollment is checked against the global month, not the token date
	assert.Equal(t, "2025-03", checker.askedMonth)
	require.Len(t, attendance.created, 1)
	assert.Equal(t, "2025-03-10", attendance.created[0].Date)
}

func TestCheckInRejectsTamperedCode(t *testing.T) {
	svc, _, _, signer := checkInFixture(true)
	code, err := signer.Generate(qrtoken.Payload{SessionID: "ses-1", Date: "2025-03-10"})
	require.NoError(t, err)

	_, err = svc.CheckIn(context.Background(), code+"x", "0825550101")

	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCheckInUnknownPhone(t *testing.T) {
	svc, _, _, signer := checkInFixture(true)
	code, err := signer.Generate(qrtoken.Payload{SessionID: "ses-1", Date: "2025-03-10"})
	require.NoError(t, err)

	_, err = svc.CheckIn(context.Background(), code, "0000000000")

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "register")
}

func TestCheckInRequiresActiveEnrollment(t *testing.T) {
	svc, _, attendance, signer := checkInFixture(false)
	code, err := signer.Generate(qrtoken.Payload{SessionID: "ses-1", Date: "2025-03-10"})
	require.NoError(t, err)

	_, err = svc.CheckIn(context.Background(), code, "0825550101")

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotActive.Code, appErr.Code)
	assert.Empty(t, attendance.created)
}

func TestCheckInAllowsRepeatScans(t *testing.T) {
	svc, _, attendance, signer := checkInFixture(true)
	code, err := signer.Generate(qrtoken.Payload{SessionID: "ses-1", Date: "2025-03-10"})
	require.NoError(t, err)

	_, err = svc.CheckIn(context.Background(), code, "0825550101")
	require.NoError(t, err)
	_, err = svc.CheckIn(context.Background(), code, "0825550101")
	require.NoError(t, err)

	assert.Len(t, attendance.created, 2)
}

func TestDescribeEchoesSessionContext(t *testing.T) {
	svc, _, _, signer := checkInFixture(true)
	code, err := signer.Generate(qrtoken.Payload{SessionID: "ses-1", Date: "2025-03-10"})
	require.NoError(t, err)

	info, err := svc.Describe(context.Background(), code)

	require.NoError(t, err)
	assert.Equal(t, "Mathematics", info.SubjectName)
	assert.Equal(t, "Grade 12", info.GradeLabel)
	assert.Equal(t, "2025-03-10", info.Date)
}
