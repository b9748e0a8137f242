package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ebta/enrollment-api/internal/models"
)

// RegistrationRepository handles the annual registration fee records.
type RegistrationRepository struct {
	db *sqlx.DB
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// ExistsForYear checks whether the student registered for the year.
func (r *RegistrationRepository) ExistsForYear(ctx context.Context, studentID, year string) (bool, error) {
	const query = `SELECT 1 FROM registrations WHERE student_id = $1 AND year = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, year); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check registration: %w", err)
	}
	return true, nil
}

// Create records the annual fee, ignoring a concurrent duplicate.
func (r *RegistrationRepository) Create(ctx context.Context, registration *models.Registration) error {
	if registration.ID == "" {
		registration.ID = uuid.NewString()
	}
	if registration.CreatedAt.IsZero() {
		registration.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO registrations (id, student_id, year, amount, created_at)
        VALUES (:id, :student_id, :year, :amount, :created_at)
        ON CONFLICT (student_id, year) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, registration); err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// ListByYear returns registrations joined with student info.
func (r *RegistrationRepository) ListByYear(ctx context.Context, year string) ([]models.RegistrationDetail, error) {
	const query = `SELECT r.id, r.student_id, r.year, r.amount, r.created_at,
        s.full_name AS student_name, s.phone AS student_phone, s.grade AS grade
        FROM registrations r
        JOIN students s ON s.id = r.student_id
        WHERE r.year = $1 ORDER BY s.full_name`
	var registrations []models.RegistrationDetail
	if err := r.db.SelectContext(ctx, &registrations, query, year); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return registrations, nil
}
