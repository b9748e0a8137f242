package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ebta/enrollment-api/internal/models"
	appErrors "github.com/ebta/enrollment-api/pkg/errors"
	"github.com/ebta/enrollment-api/pkg/export"
)

type adminEnrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
}

type registrationLister interface {
	ListByYear(ctx context.Context, year string) ([]models.RegistrationDetail, error)
}

// AdminService backs the admin listings and the enrollment export.
type AdminService struct {
	enrollments   adminEnrollmentRepository
	registrations registrationLister
	csv           *export.CSVExporter
	pdf           *export.PDFExporter
	logger        *zap.Logger
}

// NewAdminService constructs AdminService.
func NewAdminService(enrollments adminEnrollmentRepository, registrations registrationLister, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		enrollments:   enrollments,
		registrations: registrations,
		csv:           export.NewCSVExporter(),
		pdf:           export.NewPDFExporter(),
		logger:        logger,
	}
}

// ListEnrollments returns filtered enrollments with pagination metadata.
func (s *AdminService) ListEnrollments(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown enrollment status")
	}
	enrollments, total, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return enrollments, pagination, nil
}

// ListRegistrations returns annual registration rows for a year. An empty
// year defaults to the current one.
func (s *AdminService) ListRegistrations(ctx context.Context, year string) ([]models.RegistrationDetail, error) {
	if year == "" {
		year = time.Now().Format("2006")
	}
	registrations, err := s.registrations.ListByYear(ctx, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list registrations")
	}
	return registrations, nil
}

// ExportEnrollments renders the filtered enrollments as CSV or PDF.
func (s *AdminService) ExportEnrollments(ctx context.Context, filter models.EnrollmentFilter, format string) ([]byte, string, error) {
	filter.Page = 1
	filter.PageSize = 100
	var rows []map[string]string
	for {
		enrollments, total, err := s.enrollments.List(ctx, filter)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments for export")
		}
		for _, e := range enrollments {
			rows = append(rows, map[string]string{
				"Student":   e.StudentName,
				"Phone":     e.StudentPhone,
				"Subject":   e.SubjectName,
				"Grade":     models.GradeLabel(e.Grade),
				"Month":     e.Month,
				"Status":    string(e.Status),
				"Amount":    strconv.Itoa(e.AmountPaid),
				"Reference": e.PaymentRef,
				"Created":   e.CreatedAt.Format("2006-01-02 15:04"),
			})
		}
		if len(rows) >= total || len(enrollments) == 0 {
			break
		}
		filter.Page++
	}

	dataset := export.Dataset{
		Headers: []string{"Student", "Phone", "Subject", "Grade", "Month", "Status", "Amount", "Reference", "Created"},
		Rows:    rows,
	}

	switch strings.ToLower(format) {
	case "", "csv":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return content, "text/csv", nil
	case "pdf":
		title := "Enrollments"
		if filter.Month != "" {
			title = fmt.Sprintf("Enrollments %s", filter.Month)
		}
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return content, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format, use csv or pdf")
	}
}

// Subjects wraps the catalog listing for the public endpoint.
type SubjectService struct {
	repo   subjectCatalog
	logger *zap.Logger
}

type subjectCatalog interface {
	List(ctx context.Context) ([]models.Subject, error)
	Seed(ctx context.Context, subjects []models.Subject) error
}

// NewSubjectService constructs SubjectService.
func NewSubjectService(repo subjectCatalog, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, logger: logger}
}

// List returns the subject catalog.
func (s *SubjectService) List(ctx context.Context) ([]models.Subject, error) {
	subjects, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	return subjects, nil
}

// SeedCatalog inserts the default subject catalog at startup.
func (s *SubjectService) SeedCatalog(ctx context.Context) error {
	subjects := make([]models.Subject, 0, len(defaultCatalog))
	for _, entry := range defaultCatalog {
		for _, grade := range entry.grades {
			subjects = append(subjects, models.Subject{Name: entry.name, Grade: grade})
		}
	}
	if err := s.repo.Seed(ctx, subjects); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed subject catalog")
	}
	s.logger.Info("subject catalog seeded", zap.Int("subjects", len(subjects)))
	return nil
}

// Not every subject is offered in every grade; the catalog lists the exact
// pairs on offer, from EMS and Natural Sciences in G8 up to the G13 repeat
// year.
var defaultCatalog = []struct {
	name   string
	grades []string
}{
	{"Mathematics", []string{"G8", "G9", "G10", "G11", "G12", "G13"}},
	{"Mathematical Literacy", []string{"G10", "G11", "G12", "G13"}},
	{"Physical Sciences", []string{"G10", "G11", "G12", "G13"}},
	{"Life Sciences", []string{"G10", "G11", "G12", "G13"}},
	{"Accounting", []string{"G10", "G11", "G12", "G13"}},
	{"Geography", []string{"G11", "G12"}},
	{"Economics", []string{"G12"}},
	{"Business Studies", []string{"G10", "G11", "G12"}},
	{"EMS", []string{"G8", "G9"}},
	{"Natural Sciences", []string{"G8", "G9"}},
	{"English", []string{"G8", "G9", "G10", "G11", "G12"}},
}
