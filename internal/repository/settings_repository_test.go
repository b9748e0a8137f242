package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepositoryGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM settings WHERE key = $1")).
		WithArgs("current_month").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("2026-03"))

	value, err := repo.Get(context.Background(), "current_month")
	require.NoError(t, err)
	assert.Equal(t, "2026-03", value)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepositoryGetMissingKey(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM settings WHERE key = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepositorySet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSettingsRepository(db)

	mock.ExpectExec("INSERT INTO settings").
		WithArgs("enrollment_open", "0").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Set(context.Background(), "enrollment_open", "0")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
