package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SettingsRepository reads and writes the global key-value settings store.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the value for a key. sql.ErrNoRows surfaces untouched so the
// caller can apply its default.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	const query = `SELECT value FROM settings WHERE key = $1`
	var value string
	if err := r.db.GetContext(ctx, &value, query, key); err != nil {
		return "", err
	}
	return value, nil
}

// Set upserts a key-value pair.
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	const query = `INSERT INTO settings (key, value) VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`
	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
