package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ebta/enrollment-api/internal/models"
)

// IsUniqueViolation reports whether the error is a PostgreSQL unique
// constraint violation. Registration relies on this to resolve the
// concurrent same-phone and same-PIN races at the database.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// StudentRepository handles persistence of students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByID returns a student by its ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, full_name, phone, guardian_name, guardian_phone, email, grade, province, school, pin, created_at
        FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByPhone returns the student owning the normalized phone number.
func (r *StudentRepository) FindByPhone(ctx context.Context, phone string) (*models.Student, error) {
	const query = `SELECT id, full_name, phone, guardian_name, guardian_phone, email, grade, province, school, pin, created_at
        FROM students WHERE phone = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, phone); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create persists a new student record. A duplicate phone surfaces as a
// unique violation for the caller to map.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO students (id, full_name, phone, guardian_name, guardian_phone, email, grade, province, school, pin, created_at)
        VALUES (:id, :full_name, :phone, :guardian_name, :guardian_phone, :email, :grade, :province, :school, :pin, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// PinInUse checks the PIN against the union of student and tutor PINs.
func (r *StudentRepository) PinInUse(ctx context.Context, pin string) (bool, error) {
	const query = `SELECT 1 FROM students WHERE pin = $1
        UNION SELECT 1 FROM tutors WHERE pin = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, pin); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check pin in use: %w", err)
	}
	return true, nil
}

// UpdatePIN stores a freshly issued PIN for the student.
func (r *StudentRepository) UpdatePIN(ctx context.Context, id, pin string) error {
	const query = `UPDATE students SET pin = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, pin); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("update student pin: %w", err)
	}
	return nil
}
