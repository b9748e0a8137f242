package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/ebta/enrollment-api/internal/models"
	appErrors "github.com/ebta/enrollment-api/pkg/errors"
	"github.com/ebta/enrollment-api/pkg/qrtoken"
)

type checkInSessionRepository interface {
	FindDetailByID(ctx context.Context, id string) (*models.SessionDetail, error)
	ListActive(ctx context.Context) ([]models.SessionDetail, error)
}

type checkInStudentRepository interface {
	FindByPhone(ctx context.Context, phone string) (*models.Student, error)
}

type checkInEnrollmentRepository interface {
	ExistsActive(ctx context.Context, studentID, subjectID, month string) (bool, error)
}

type attendanceWriter interface {
	Create(ctx context.Context, attendance *models.Attendance) error
	ListBySessionDate(ctx context.Context, sessionID, date string) ([]models.AttendanceRecord, error)
	CountBySessionDate(ctx context.Context, sessionID, date string) (int, error)
}

type monthSource interface {
	CurrentMonth(ctx context.Context) (string, error)
}

// SessionQR is the rendered check-in QR for a session.
type SessionQR struct {
	SessionID   string `json:"session_id"`
	SubjectName string `json:"subject_name"`
	Date        string `json:"date"`
	CheckInURL  string `json:"check_in_url"`
	PNG         []byte `json:"-"`
}

// CheckInContext echoes the decoded token for the check-in form.
type CheckInContext struct {
	SessionID   string `json:"session_id"`
	SubjectName string `json:"subject_name"`
	GradeLabel  string `json:"grade_label"`
	TutorName   string `json:"tutor_name"`
	Date        string `json:"date"`
}

// CheckInResult reports a recorded check-in.
type CheckInResult struct {
	AttendanceID string  `json:"attendance_id"`
	StudentName  string  `json:"student_name"`
	SubjectName  string  `json:"subject_name"`
	Date         string  `json:"date"`
	MeetLink     *string `json:"meet_link,omitempty"`
}

// CheckInService generates session QR codes and records student check-ins.
// The enrollment check always runs against the current global billing month;
// the token's embedded date is only recorded on the attendance row.
type CheckInService struct {
	sessions    checkInSessionRepository
	students    checkInStudentRepository
	enrollments checkInEnrollmentRepository
	attendance  attendanceWriter
	settings    monthSource
	signer      *qrtoken.Signer
	baseURL     string
	qrSize      int
	logger      *zap.Logger
}

// NewCheckInService constructs CheckInService. baseURL is the public portal
// root the check-in link is built on.
func NewCheckInService(
	sessions checkInSessionRepository,
	students checkInStudentRepository,
	enrollments checkInEnrollmentRepository,
	attendance attendanceWriter,
	settings monthSource,
	signer *qrtoken.Signer,
	baseURL string,
	qrSize int,
	logger *zap.Logger,
) *CheckInService {
	if qrSize <= 0 {
		qrSize = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckInService{
		sessions:    sessions,
		students:    students,
		enrollments: enrollments,
		attendance:  attendance,
		settings:    settings,
		signer:      signer,
		baseURL:     baseURL,
		qrSize:      qrSize,
		logger:      logger,
	}
}

// ListSessions returns the active weekly sessions for the admin surface.
func (s *CheckInService) ListSessions(ctx context.Context) ([]models.SessionDetail, error) {
	sessions, err := s.sessions.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, nil
}

// SessionQR builds today's signed check-in token for a session and renders
// the check-in URL as a PNG QR code.
func (s *CheckInService) SessionQR(ctx context.Context, sessionID string) (*SessionQR, error) {
	session, err := s.sessions.FindDetailByID(ctx, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	date := time.Now().Format("2006-01-02")
	token, err := s.signer.Generate(qrtoken.Payload{SessionID: session.ID, Date: date})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign check-in token")
	}

	checkInURL := fmt.Sprintf("%s/attend?code=%s", s.baseURL, token)
	png, err := qrcode.Encode(checkInURL, qrcode.Medium, s.qrSize)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render QR code")
	}

	return &SessionQR{
		SessionID:   session.ID,
		SubjectName: session.SubjectName,
		Date:        date,
		CheckInURL:  checkInURL,
		PNG:         png,
	}, nil
}

// Describe validates a check-in token and returns the session context for
// the check-in form.
func (s *CheckInService) Describe(ctx context.Context, code string) (*CheckInContext, error) {
	payload, err := s.signer.Parse(code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check-in code")
	}
	session, err := s.sessions.FindDetailByID(ctx, payload.SessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return &CheckInContext{
		SessionID:   session.ID,
		SubjectName: session.SubjectName,
		GradeLabel:  models.GradeLabel(session.Grade),
		TutorName:   session.TutorName,
		Date:        payload.Date,
	}, nil
}

// CheckIn records attendance for the student owning the phone number.
func (s *CheckInService) CheckIn(ctx context.Context, code, phone string) (*CheckInResult, error) {
	payload, err := s.signer.Parse(code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check-in code")
	}

	phone = normalizePhone(phone)
	if phone == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "phone number required")
	}
	student, err := s.students.FindByPhone(ctx, phone)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no student found for this phone number, please register first")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up student")
	}

	session, err := s.sessions.FindDetailByID(ctx, payload.SessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	month, err := s.settings.CurrentMonth(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve billing month")
	}
	active, err := s.enrollments.ExistsActive(ctx, student.ID, session.SubjectID, month)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if !active {
		return nil, appErrors.Clone(appErrors.ErrNotActive, "no active enrollment for this subject, renew to check in")
	}

	attendance := &models.Attendance{
		SessionID: session.ID,
		StudentID: student.ID,
		Date:      payload.Date,
	}
	if err := s.attendance.Create(ctx, attendance); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	s.logger.Info("check-in recorded",
		zap.String("session_id", session.ID),
		zap.String("student_id", student.ID),
		zap.String("date", payload.Date))

	return &CheckInResult{
		AttendanceID: attendance.ID,
		StudentName:  student.FullName,
		SubjectName:  session.SubjectName,
		Date:         payload.Date,
		MeetLink:     session.MeetLink,
	}, nil
}

// Attendance returns the check-in rows and count for a session and date.
func (s *CheckInService) Attendance(ctx context.Context, sessionID, date string) ([]models.AttendanceRecord, int, error) {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	records, err := s.attendance.ListBySessionDate(ctx, sessionID, date)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	count, err := s.attendance.CountBySessionDate(ctx, sessionID, date)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
	}
	return records, count, nil
}
