package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/ebta/enrollment-api/internal/models"
	appErrors "github.com/ebta/enrollment-api/pkg/errors"
	"github.com/ebta/enrollment-api/pkg/jobs"
	"github.com/ebta/enrollment-api/pkg/notifier"
)

// Notification job types dispatched on the queue.
const (
	JobTypeApprovalEmail = "approval_email"
	JobTypeApprovalSMS   = "approval_sms"
)

const pinMaxAttempts = 25

type approvalEnrollmentRepository interface {
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error
}

type approvalStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	PinInUse(ctx context.Context, pin string) (bool, error)
	UpdatePIN(ctx context.Context, id, pin string) error
}

type notificationQueue interface {
	Enqueue(job jobs.Job) error
}

// ApprovalNotification is the payload carried by a notification job.
type ApprovalNotification struct {
	StudentName string `json:"student_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	PIN         string `json:"pin"`
	SubjectName string `json:"subject_name"`
	GradeLabel  string `json:"grade_label"`
	Month       string `json:"month"`
	PortalURL   string `json:"portal_url"`
	LoginURL    string `json:"login_url"`
}

// EmailSubject renders the approval email subject line.
func (n ApprovalNotification) EmailSubject() string {
	return fmt.Sprintf("Enrollment approved: %s (%s) %s", n.SubjectName, n.GradeLabel, n.Month)
}

// EmailBody renders the plain-text approval email.
func (n ApprovalNotification) EmailBody() string {
	return fmt.Sprintf(
		"Hi %s,\n\nYour enrollment for %s (%s) for %s has been approved.\n\nYour PIN: %s\nLog in at %s with your phone number and PIN.\n\nPortal: %s\n",
		n.StudentName, n.SubjectName, n.GradeLabel, n.Month, n.PIN, n.LoginURL, n.PortalURL)
}

// SMSBody renders the approval SMS.
func (n ApprovalNotification) SMSBody() string {
	return fmt.Sprintf("Hi %s, your %s enrollment for %s is approved. PIN: %s. Log in: %s",
		n.StudentName, n.SubjectName, n.Month, n.PIN, n.LoginURL)
}

// ApprovalService drives the admin approval workflow: activate or lapse an
// enrollment, issue the student's PIN on first approval and enqueue the
// approval notifications. Notification failures never fail the approval.
type ApprovalService struct {
	enrollments approvalEnrollmentRepository
	students    approvalStudentRepository
	queue       notificationQueue
	portalURL   string
	loginURL    string
	logger      *zap.Logger
}

// NewApprovalService constructs ApprovalService.
func NewApprovalService(enrollments approvalEnrollmentRepository, students approvalStudentRepository, queue notificationQueue, portalURL, loginURL string, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{
		enrollments: enrollments,
		students:    students,
		queue:       queue,
		portalURL:   portalURL,
		loginURL:    loginURL,
		logger:      logger,
	}
}

// Approve activates an enrollment, issues a PIN when the student has none
// and enqueues email and SMS notifications.
func (s *ApprovalService) Approve(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.enrollments.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	if err := s.enrollments.UpdateStatus(ctx, id, models.EnrollmentStatusActive); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate enrollment")
	}
	detail.Status = models.EnrollmentStatusActive

	student, err := s.students.FindByID(ctx, detail.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	pin, err := s.ensurePIN(ctx, student)
	if err != nil {
		return nil, err
	}

	s.enqueueNotifications(detail, student, pin)
	return detail, nil
}

// Lapse marks an enrollment LAPSED. No notification is sent.
func (s *ApprovalService) Lapse(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.enrollments.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if err := s.enrollments.UpdateStatus(ctx, id, models.EnrollmentStatusLapsed); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lapse enrollment")
	}
	detail.Status = models.EnrollmentStatusLapsed
	return detail, nil
}

// ensurePIN returns the student's PIN, generating and persisting one when
// none exists yet. Generation retries with fresh candidates until the PIN is
// free across students and tutors; the unique constraint covers the
// concurrent race.
func (s *ApprovalService) ensurePIN(ctx context.Context, student *models.Student) (string, error) {
	if student.HasPIN() {
		return *student.PIN, nil
	}

	for attempt := 0; attempt < pinMaxAttempts; attempt++ {
		pin, err := randomPIN()
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate PIN")
		}
		inUse, err := s.students.PinInUse(ctx, pin)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify PIN")
		}
		if inUse {
			continue
		}
		if err := s.students.UpdatePIN(ctx, student.ID, pin); err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store PIN")
		}
		student.PIN = &pin
		return pin, nil
	}
	return "", appErrors.Clone(appErrors.ErrInternal, "could not allocate a free PIN")
}

func (s *ApprovalService) enqueueNotifications(detail *models.EnrollmentDetail, student *models.Student, pin string) {
	notification := ApprovalNotification{
		StudentName: student.FullName,
		Phone:       student.Phone,
		PIN:         pin,
		SubjectName: detail.SubjectName,
		GradeLabel:  models.GradeLabel(detail.Grade),
		Month:       detail.Month,
		PortalURL:   s.portalURL,
		LoginURL:    s.loginURL,
	}
	if student.Email != nil && *student.Email != "" {
		notification.Email = *student.Email
		if err := s.queue.Enqueue(jobs.Job{ID: detail.ID + ":email", Type: JobTypeApprovalEmail, Payload: notification}); err != nil {
			s.logger.Warn("failed to enqueue approval email", zap.String("enrollment_id", detail.ID), zap.Error(err))
		}
	}
	if student.Phone != "" {
		if err := s.queue.Enqueue(jobs.Job{ID: detail.ID + ":sms", Type: JobTypeApprovalSMS, Payload: notification}); err != nil {
			s.logger.Warn("failed to enqueue approval sms", zap.String("enrollment_id", detail.ID), zap.Error(err))
		}
	}
}

func randomPIN() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%05d", n.Int64()), nil
}

// NewNotificationHandler returns the queue handler that delivers approval
// notifications through the notifier.
func NewNotificationHandler(sender notifier.Notifier, metrics *MetricsService, logger *zap.Logger) jobs.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	count := func(channel string, err error) error {
		outcome := "sent"
		if err != nil {
			outcome = "failed"
		}
		metrics.CountNotification(channel, outcome)
		return err
	}
	return func(ctx context.Context, job jobs.Job) error {
		notification, ok := job.Payload.(ApprovalNotification)
		if !ok {
			logger.Error("dropping notification job with unexpected payload", zap.String("job_id", job.ID), zap.String("type", job.Type))
			return nil
		}
		switch job.Type {
		case JobTypeApprovalEmail:
			return count("email", sender.SendEmail(ctx, notification.Email, notification.EmailSubject(), notification.EmailBody()))
		case JobTypeApprovalSMS:
			return count("sms", sender.SendSMS(ctx, notification.Phone, notification.SMSBody()))
		default:
			logger.Error("dropping notification job with unknown type", zap.String("job_id", job.ID), zap.String("type", job.Type))
			return nil
		}
	}
}
