package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/ebta/enrollment-api/internal/models"
	appErrors "github.com/ebta/enrollment-api/pkg/errors"
	"github.com/ebta/enrollment-api/pkg/storage"
)

const (
	annualRegistrationFee = 50
	paymentGatewayEFT     = "EFT"
)

type registrarStudentRepository interface {
	FindByPhone(ctx context.Context, phone string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	PinInUse(ctx context.Context, pin string) (bool, error)
}

type registrarEnrollmentRepository interface {
	EnrolledSubjectIDs(ctx context.Context, studentID, month string) (map[string]bool, error)
	CreateBundle(ctx context.Context, bundles []models.EnrollmentBundle, filePaths []string) error
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type annualRegistrationRepository interface {
	ExistsForYear(ctx context.Context, studentID, year string) (bool, error)
	Create(ctx context.Context, registration *models.Registration) error
}

type uploadStore interface {
	SaveUpload(original string, seq int, r io.Reader) (string, error)
}

type enrollmentGate interface {
	CurrentMonth(ctx context.Context) (string, error)
	EnrollmentOpen(ctx context.Context) (bool, error)
	EnrollmentMessage(ctx context.Context) string
}

// Upload carries one proof-of-payment file from the multipart request.
type Upload struct {
	Filename string
	Reader   io.Reader
}

// RegisterRequest describes a monthly enrollment submission.
type RegisterRequest struct {
	FullName         string   `json:"full_name" validate:"required"`
	Phone            string   `json:"phone" validate:"required"`
	GuardianName     string   `json:"guardian_name" validate:"required"`
	GuardianPhone    string   `json:"guardian_phone" validate:"required"`
	Email            string   `json:"email" validate:"omitempty,email"`
	Province         string   `json:"province" validate:"required"`
	School           string   `json:"school" validate:"required"`
	SubjectIDs       []string `json:"subject_ids" validate:"required,min=1"`
	PIN              string   `json:"pin" validate:"required,len=5,numeric"`
	AmountPaid       int      `json:"amount_paid" validate:"gte=0"`
	RegistrationPaid bool     `json:"registration_paid"`
	Files            []Upload `json:"-"`
}

// CreatedEnrollment is one enrollment produced by a registration.
type CreatedEnrollment struct {
	EnrollmentID string `json:"enrollment_id"`
	SubjectID    string `json:"subject_id"`
	SubjectName  string `json:"subject_name"`
	StatusToken  string `json:"status_token"`
	StatusURL    string `json:"status_url"`
}

// RegisterResult reports what a registration created. NoChange means every
// requested subject was already enrolled for the month.
type RegisterResult struct {
	StudentID string              `json:"student_id"`
	Month     string              `json:"month"`
	NoChange  bool                `json:"no_change"`
	Quote     FeeQuote            `json:"quote"`
	Created   []CreatedEnrollment `json:"created"`
}

// RegistrationConfig carries the registrar's static knobs.
type RegistrationConfig struct {
	AllowedExtensions []string
	StatusBaseURL     string
}

// RegistrationService runs the paid monthly enrollment flow: validate the
// submission, resolve or create the student, store proof-of-payment files
// and write the enrollment bundle in one transaction.
type RegistrationService struct {
	students      registrarStudentRepository
	enrollments   registrarEnrollmentRepository
	subjects      subjectReader
	registrations annualRegistrationRepository
	settings      enrollmentGate
	fees          *FeeService
	store         uploadStore
	config        RegistrationConfig
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewRegistrationService constructs RegistrationService.
func NewRegistrationService(
	students registrarStudentRepository,
	enrollments registrarEnrollmentRepository,
	subjects subjectReader,
	registrations annualRegistrationRepository,
	settings enrollmentGate,
	fees *FeeService,
	store uploadStore,
	config RegistrationConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if fees == nil {
		fees = NewFeeService()
	}
	return &RegistrationService{
		students:      students,
		enrollments:   enrollments,
		subjects:      subjects,
		registrations: registrations,
		settings:      settings,
		fees:          fees,
		store:         store,
		config:        config,
		validator:     validate,
		logger:        logger,
	}
}

// Quote exposes the fee calculation for the public quote endpoint.
func (s *RegistrationService) Quote(grade string, count int) FeeQuote {
	return s.fees.Quote(grade, count)
}

// Register processes one enrollment submission.
func (s *RegistrationService) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	open, err := s.settings.EnrollmentOpen(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read enrollment gate")
	}
	if !open {
		return nil, appErrors.Clone(appErrors.ErrEnrollmentClosed, s.settings.EnrollmentMessage(ctx))
	}

	req.Phone = normalizePhone(req.Phone)
	req.GuardianPhone = normalizePhone(req.GuardianPhone)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	if len(req.Phone) < 9 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "phone number is too short")
	}
	if len(req.Files) < 1 || len(req.Files) > 2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "attach one or two proof of payment files")
	}
	for _, file := range req.Files {
		if !storage.AllowedExtension(file.Filename, s.config.AllowedExtensions) {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file type not allowed: %s", storage.SanitizeFilename(file.Filename)))
		}
	}

	student, err := s.resolveStudent(ctx, req)
	if err != nil {
		return nil, err
	}

	grade, subjects, err := s.resolveSubjects(ctx, req.SubjectIDs)
	if err != nil {
		return nil, err
	}

	quote := s.fees.Quote(grade, len(req.SubjectIDs))
	if req.AmountPaid != quote.Total {
		return nil, appErrors.Clone(appErrors.ErrPaymentMismatch, fmt.Sprintf("amount due is %d, received %d", quote.Total, req.AmountPaid))
	}

	month, err := s.settings.CurrentMonth(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve billing month")
	}

	created, err := s.createStudentIfNew(ctx, student, req, grade)
	if err != nil {
		return nil, err
	}
	student = created

	filePaths, err := s.saveUploads(req.Files)
	if err != nil {
		return nil, err
	}

	if req.RegistrationPaid {
		if err := s.recordAnnualRegistration(ctx, student.ID, month); err != nil {
			return nil, err
		}
	}

	enrolled, err := s.enrollments.EnrolledSubjectIDs(ctx, student.ID, month)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrollments")
	}

	paymentRef := newPaymentRef()
	var bundles []models.EnrollmentBundle
	var results []CreatedEnrollment
	for _, subject := range subjects {
		if enrolled[subject.ID] {
			continue
		}
		enrollment := &models.Enrollment{
			ID:            uuid.NewString(),
			StudentID:     student.ID,
			SubjectID:     subject.ID,
			Month:         month,
			Status:        models.EnrollmentStatusPending,
			PaymentMethod: paymentGatewayEFT,
			PaymentRef:    paymentRef,
			AmountPaid:    req.AmountPaid,
			StatusToken:   newStatusToken(),
		}
		payment := &models.Payment{
			Amount:    req.AmountPaid,
			Gateway:   paymentGatewayEFT,
			Reference: paymentRef,
			Result:    models.PaymentResultPending,
		}
		bundles = append(bundles, models.EnrollmentBundle{Enrollment: enrollment, Payment: payment})
		results = append(results, CreatedEnrollment{
			EnrollmentID: enrollment.ID,
			SubjectID:    subject.ID,
			SubjectName:  subject.Name,
			StatusToken:  enrollment.StatusToken,
			StatusURL:    s.statusURL(enrollment.ID, enrollment.StatusToken),
		})
	}

	result := &RegisterResult{StudentID: student.ID, Month: month, Quote: quote}
	if len(bundles) == 0 {
		result.NoChange = true
		return result, nil
	}

	if err := s.enrollments.CreateBundle(ctx, bundles, filePaths); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an enrollment for this month already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollments")
	}

	result.Created = results
	s.logger.Info("registration accepted",
		zap.String("student_id", student.ID),
		zap.String("month", month),
		zap.Int("enrollments", len(results)))
	return result, nil
}

// resolveStudent loads the student by phone and enforces the PIN rules: a
// known student must present the stored PIN, a fresh PIN must be free across
// students and tutors.
func (s *RegistrationService) resolveStudent(ctx context.Context, req RegisterRequest) (*models.Student, error) {
	student, err := s.students.FindByPhone(ctx, req.Phone)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up student")
	}
	if student != nil {
		if !student.HasPIN() || *student.PIN != req.PIN {
			return nil, appErrors.Clone(appErrors.ErrAuth, "PIN does not match our records for this phone number")
		}
		return student, nil
	}

	inUse, err := s.students.PinInUse(ctx, req.PIN)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify PIN")
	}
	if inUse {
		return nil, appErrors.Clone(appErrors.ErrConflict, "this PIN is already in use, choose another")
	}
	return student, nil
}

// createStudentIfNew persists a new student. An existing student passed
// resolveStudent's PIN check already.
func (s *RegistrationService) createStudentIfNew(ctx context.Context, student *models.Student, req RegisterRequest, grade string) (*models.Student, error) {
	if student == nil {
		var email *string
		if req.Email != "" {
			email = &req.Email
		}
		pin := req.PIN
		student = &models.Student{
			ID:            uuid.NewString(),
			FullName:      req.FullName,
			Phone:         req.Phone,
			GuardianName:  req.GuardianName,
			GuardianPhone: req.GuardianPhone,
			Email:         email,
			Grade:         grade,
			Province:      req.Province,
			School:        req.School,
			PIN:           &pin,
		}
		if err := s.students.Create(ctx, student); err != nil {
			if isUniqueViolation(err) {
				return nil, appErrors.Clone(appErrors.ErrConflict, "this phone number was just registered, retry with the existing PIN")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
		}
		return student, nil
	}
	return student, nil
}

// resolveSubjects loads every requested subject and derives the fee grade
// from the first one. All subjects must belong to that grade.
func (s *RegistrationService) resolveSubjects(ctx context.Context, subjectIDs []string) (string, []*models.Subject, error) {
	var grade string
	subjects := make([]*models.Subject, 0, len(subjectIDs))
	for _, id := range subjectIDs {
		subject, err := s.subjects.FindByID(ctx, id)
		if err != nil {
			if err == sql.ErrNoRows {
				return "", nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject selected")
			}
			return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
		}
		if grade == "" {
			grade = subject.Grade
		} else if subject.Grade != grade {
			return "", nil, appErrors.Clone(appErrors.ErrValidation, "all subjects must belong to one grade")
		}
		subjects = append(subjects, subject)
	}
	if grade == "" {
		return "", nil, appErrors.Clone(appErrors.ErrValidation, "could not resolve a grade from the selected subjects")
	}
	return grade, subjects, nil
}

func (s *RegistrationService) saveUploads(files []Upload) ([]string, error) {
	paths := make([]string, 0, len(files))
	for i, file := range files {
		name, err := s.store.SaveUpload(file.Filename, i+1, file.Reader)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store proof of payment")
		}
		paths = append(paths, name)
	}
	return paths, nil
}

func (s *RegistrationService) recordAnnualRegistration(ctx context.Context, studentID, month string) error {
	year := month
	if len(month) >= 4 {
		year = month[:4]
	}
	exists, err := s.registrations.ExistsForYear(ctx, studentID, year)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check annual registration")
	}
	if exists {
		return nil
	}
	registration := &models.Registration{StudentID: studentID, Year: year, Amount: annualRegistrationFee}
	if err := s.registrations.Create(ctx, registration); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record annual registration")
	}
	return nil
}

func (s *RegistrationService) statusURL(enrollmentID, token string) string {
	base := strings.TrimRight(s.config.StatusBaseURL, "/")
	return fmt.Sprintf("%s/status/%s?token=%s", base, enrollmentID, token)
}

// isUniqueViolation reports a PostgreSQL unique constraint violation. The
// phone and PIN races resolve at these constraints.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func normalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteByte(byte(r))
		}
	}
	return b.String()
}

// newStatusToken returns a crypto-random url-safe capability token written
// once at enrollment creation.
func newStatusToken() string {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// newPaymentRef pre-generates the EFT reference so the enrollment row is
// written in a single insert.
func newPaymentRef() string {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "EFT-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	}
	return "EFT-" + strings.ToUpper(hex.EncodeToString(buf))
}
