package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ebta/enrollment-api/internal/models"
)

// SubjectRepository handles the static subject catalog.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// FindByID returns a subject by its ID.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT id, name, grade FROM subjects WHERE id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// List returns the full catalog ordered by grade then name.
func (r *SubjectRepository) List(ctx context.Context) ([]models.Subject, error) {
	const query = `SELECT id, name, grade FROM subjects ORDER BY grade, name`
	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, query); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// Seed inserts catalog entries, skipping pairs that already exist.
func (r *SubjectRepository) Seed(ctx context.Context, subjects []models.Subject) error {
	const query = `INSERT INTO subjects (id, name, grade) VALUES ($1, $2, $3)
        ON CONFLICT (name, grade) DO NOTHING`
	for _, subject := range subjects {
		id := subject.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := r.db.ExecContext(ctx, query, id, subject.Name, subject.Grade); err != nil {
			return fmt.Errorf("seed subject %s %s: %w", subject.Grade, subject.Name, err)
		}
	}
	return nil
}
