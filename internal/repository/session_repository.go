package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ebta/enrollment-api/internal/models"
)

// SessionRepository handles the weekly session slots.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// FindByID returns a session by its ID.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	const query = `SELECT id, subject_id, tutor_id, day_of_week, start_time, end_time, meet_link, active
        FROM sessions WHERE id = $1`
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// FindDetailByID returns a session with subject and tutor context.
func (r *SessionRepository) FindDetailByID(ctx context.Context, id string) (*models.SessionDetail, error) {
	const query = `SELECT se.id, se.subject_id, se.tutor_id, se.day_of_week, se.start_time, se.end_time, se.meet_link, se.active,
        sub.name AS subject_name, sub.grade AS grade, t.full_name AS tutor_name
        FROM sessions se
        JOIN subjects sub ON sub.id = se.subject_id
        JOIN tutors t ON t.id = se.tutor_id
        WHERE se.id = $1`
	var detail models.SessionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListActive returns active sessions ordered by weekday and start time.
func (r *SessionRepository) ListActive(ctx context.Context) ([]models.SessionDetail, error) {
	const query = `SELECT se.id, se.subject_id, se.tutor_id, se.day_of_week, se.start_time, se.end_time, se.meet_link, se.active,
        sub.name AS subject_name, sub.grade AS grade, t.full_name AS tutor_name
        FROM sessions se
        JOIN subjects sub ON sub.id = se.subject_id
        JOIN tutors t ON t.id = se.tutor_id
        WHERE se.active = TRUE
        ORDER BY se.day_of_week, se.start_time`
	var sessions []models.SessionDetail
	if err := r.db.SelectContext(ctx, &sessions, query); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}
