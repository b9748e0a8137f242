package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebta/enrollment-api/internal/models"
)

func TestAttendanceRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec("INSERT INTO attendance").
		WillReturnResult(sqlmock.NewResult(0, 1))

	attendance := &models.Attendance{SessionID: "sess-1", StudentID: "stu-1", Date: "2026-03-14"}
	err := repo.Create(context.Background(), attendance)
	require.NoError(t, err)
	assert.NotEmpty(t, attendance.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCountBySessionDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM attendance WHERE session_id = $1 AND date = $2")).
		WithArgs("sess-1", "2026-03-14").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountBySessionDate(context.Background(), "sess-1", "2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
