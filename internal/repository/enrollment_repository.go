package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ebta/enrollment-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments, their payment
// ledger rows and proof-of-payment file references.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, subject_id, month, status, payment_method, payment_ref, amount_paid, status_token, created_at
        FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns an enrollment with student and subject context.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.subject_id, e.month, e.status, e.payment_method, e.payment_ref, e.amount_paid, e.status_token, e.created_at,
        s.full_name AS student_name, s.phone AS student_phone, s.email AS student_email, sub.name AS subject_name, sub.grade AS grade
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        JOIN subjects sub ON sub.id = e.subject_id
        WHERE e.id = $1`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// EnrolledSubjectIDs returns the subject IDs the student already holds an
// enrollment for in the given month, regardless of status.
func (r *EnrollmentRepository) EnrolledSubjectIDs(ctx context.Context, studentID, month string) (map[string]bool, error) {
	const query = `SELECT subject_id FROM enrollments WHERE student_id = $1 AND month = $2`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, studentID, month); err != nil {
		return nil, fmt.Errorf("list enrolled subjects: %w", err)
	}
	enrolled := make(map[string]bool, len(ids))
	for _, id := range ids {
		enrolled[id] = true
	}
	return enrolled, nil
}

// ExistsActive checks for an ACTIVE enrollment on (student, subject, month).
func (r *EnrollmentRepository) ExistsActive(ctx context.Context, studentID, subjectID, month string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND subject_id = $2 AND month = $3 AND status = $4 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, subjectID, month, models.EnrollmentStatusActive); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// CreateWithPayment persists one enrollment, its payment ledger row and the
// proof-of-payment file references in one transaction.
func (r *EnrollmentRepository) CreateWithPayment(ctx context.Context, enrollment *models.Enrollment, payment *models.Payment, filePaths []string) error {
	return r.CreateBundle(ctx, []models.EnrollmentBundle{{Enrollment: enrollment, Payment: payment}}, filePaths)
}

// CreateBundle persists all enrollments of one registration request, each
// with its payment ledger row and the shared proof-of-payment file
// references, inside a single transaction so a midway failure leaves no
// partial enrollment set behind.
func (r *EnrollmentRepository) CreateBundle(ctx context.Context, bundles []models.EnrollmentBundle, filePaths []string) error {
	now := time.Now().UTC()
	for _, bundle := range bundles {
		enrollment, payment := bundle.Enrollment, bundle.Payment
		if enrollment.ID == "" {
			enrollment.ID = uuid.NewString()
		}
		if enrollment.CreatedAt.IsZero() {
			enrollment.CreatedAt = now
		}
		if enrollment.Status == "" {
			enrollment.Status = models.EnrollmentStatusPending
		}
		payment.EnrollmentID = enrollment.ID
		if payment.ID == "" {
			payment.ID = uuid.NewString()
		}
		if payment.CreatedAt.IsZero() {
			payment.CreatedAt = enrollment.CreatedAt
		}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enrollment tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const enrollmentQuery = `INSERT INTO enrollments (id, student_id, subject_id, month, status, payment_method, payment_ref, amount_paid, status_token, created_at)
        VALUES (:id, :student_id, :subject_id, :month, :status, :payment_method, :payment_ref, :amount_paid, :status_token, :created_at)`
	const paymentQuery = `INSERT INTO payments (id, enrollment_id, amount, gateway, reference, result, created_at)
        VALUES (:id, :enrollment_id, :amount, :gateway, :reference, :result, :created_at)`
	const fileQuery = `INSERT INTO enrollment_files (id, enrollment_id, file_path, created_at)
        VALUES ($1, $2, $3, $4)`

	for _, bundle := range bundles {
		if _, err := tx.NamedExecContext(ctx, enrollmentQuery, bundle.Enrollment); err != nil {
			if IsUniqueViolation(err) {
				return err
			}
			return fmt.Errorf("create enrollment: %w", err)
		}
		if _, err := tx.NamedExecContext(ctx, paymentQuery, bundle.Payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		for _, path := range filePaths {
			if _, err := tx.ExecContext(ctx, fileQuery, uuid.NewString(), bundle.Enrollment.ID, path, bundle.Enrollment.CreatedAt); err != nil {
				return fmt.Errorf("create enrollment file: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit enrollment tx: %w", err)
	}
	return nil
}

// UpdateStatus sets the lifecycle status for an enrollment.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) error {
	const query = `UPDATE enrollments SET status = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	return nil
}

// ListFiles returns the proof-of-payment paths linked to an enrollment.
func (r *EnrollmentRepository) ListFiles(ctx context.Context, enrollmentID string) ([]string, error) {
	const query = `SELECT file_path FROM enrollment_files WHERE enrollment_id = $1 ORDER BY created_at`
	var paths []string
	if err := r.db.SelectContext(ctx, &paths, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list enrollment files: %w", err)
	}
	return paths, nil
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
JOIN students s ON s.id = e.student_id
JOIN subjects sub ON sub.id = e.subject_id`
	var conditions []string
	var args []interface{}

	if filter.Month != "" {
		conditions = append(conditions, fmt.Sprintf("e.month = $%d", len(args)+1))
		args = append(args, filter.Month)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Grade != "" {
		conditions = append(conditions, fmt.Sprintf("sub.grade = $%d", len(args)+1))
		args = append(args, filter.Grade)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(s.full_name ILIKE $%d OR s.phone ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"created_at":   "e.created_at",
		"student_name": "s.full_name",
		"subject_name": "sub.name",
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	orderBy := allowedSorts[sortBy]
	if orderBy == "" {
		orderBy = "e.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.student_id, e.subject_id, e.month, e.status, e.payment_method, e.payment_ref, e.amount_paid, e.status_token, e.created_at,
        s.full_name AS student_name, s.phone AS student_phone, s.email AS student_email, sub.name AS subject_name, sub.grade AS grade
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}
