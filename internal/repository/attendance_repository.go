package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ebta/enrollment-api/internal/models"
)

// AttendanceRepository handles check-in fact rows.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Create appends a check-in row. Repeat check-ins on the same date insert
// additional rows; the table carries no uniqueness constraint.
func (r *AttendanceRepository) Create(ctx context.Context, attendance *models.Attendance) error {
	if attendance.ID == "" {
		attendance.ID = uuid.NewString()
	}
	if attendance.CreatedAt.IsZero() {
		attendance.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendance (id, session_id, student_id, date, created_at)
        VALUES (:id, :session_id, :student_id, :date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, attendance); err != nil {
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// ListBySessionDate returns check-ins for a session and date with student info.
func (r *AttendanceRepository) ListBySessionDate(ctx context.Context, sessionID, date string) ([]models.AttendanceRecord, error) {
	const query = `SELECT a.id, a.session_id, a.student_id, a.date, a.created_at,
        s.full_name AS student_name, s.phone AS student_phone
        FROM attendance a
        JOIN students s ON s.id = a.student_id
        WHERE a.session_id = $1 AND a.date = $2
        ORDER BY a.created_at`
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, sessionID, date); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// CountBySessionDate returns the number of check-in rows for a session/date.
func (r *AttendanceRepository) CountBySessionDate(ctx context.Context, sessionID, date string) (int, error) {
	const query = `SELECT COUNT(*) FROM attendance WHERE session_id = $1 AND date = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, sessionID, date); err != nil {
		return 0, fmt.Errorf("count attendance: %w", err)
	}
	return count, nil
}
