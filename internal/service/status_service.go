package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/ebta/enrollment-api/internal/models"
	appErrors "github.com/ebta/enrollment-api/pkg/errors"
)

type statusEnrollmentRepository interface {
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ListFiles(ctx context.Context, enrollmentID string) ([]string, error)
}

// EnrollmentStatusView is the public status page payload.
type EnrollmentStatusView struct {
	EnrollmentID string                  `json:"enrollment_id"`
	StudentName  string                  `json:"student_name"`
	SubjectName  string                  `json:"subject_name"`
	Grade        string                  `json:"grade"`
	GradeLabel   string                  `json:"grade_label"`
	Month        string                  `json:"month"`
	Status       models.EnrollmentStatus `json:"status"`
	AmountPaid   int                     `json:"amount_paid"`
	CreatedAt    time.Time               `json:"created_at"`
	ProofFiles   []string                `json:"proof_files"`
	GroupInvite  string                  `json:"group_invite,omitempty"`
}

// StatusService serves the capability-token status page. A request without
// a token is served; a request with a wrong token is rejected.
type StatusService struct {
	repo        statusEnrollmentRepository
	groupInvite string
	logger      *zap.Logger
}

// NewStatusService constructs StatusService. groupInvite is the class group
// link revealed once the enrollment is ACTIVE.
func NewStatusService(repo statusEnrollmentRepository, groupInvite string, logger *zap.Logger) *StatusService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusService{repo: repo, groupInvite: groupInvite, logger: logger}
}

// Status returns the public view for an enrollment.
func (s *StatusService) Status(ctx context.Context, id, token string) (*EnrollmentStatusView, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	if token != "" && token != detail.StatusToken {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid status token")
	}

	files, err := s.repo.ListFiles(ctx, id)
	if err != nil {
		s.logger.Warn("failed to list proof files", zap.String("enrollment_id", id), zap.Error(err))
		files = nil
	}

	view := &EnrollmentStatusView{
		EnrollmentID: detail.ID,
		StudentName:  detail.StudentName,
		SubjectName:  detail.SubjectName,
		Grade:        detail.Grade,
		GradeLabel:   models.GradeLabel(detail.Grade),
		Month:        detail.Month,
		Status:       detail.Status,
		AmountPaid:   detail.AmountPaid,
		CreatedAt:    detail.CreatedAt,
		ProofFiles:   files,
	}
	if detail.Status == models.EnrollmentStatusActive {
		view.GroupInvite = s.groupInvite
	}
	return view, nil
}
