package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebta/enrollment-api/internal/models"
)

func TestEnrollmentRepositoryEnrolledSubjectIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"subject_id"}).AddRow("sub-1").AddRow("sub-2")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT subject_id FROM enrollments WHERE student_id = $1 AND month = $2")).
		WithArgs("stu-1", "2026-03").
		WillReturnRows(rows)

	enrolled, err := repo.EnrolledSubjectIDs(context.Background(), "stu-1", "2026-03")
	require.NoError(t, err)
	assert.True(t, enrolled["sub-1"])
	assert.True(t, enrolled["sub-2"])
	assert.False(t, enrolled["sub-3"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExistsActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("SELECT 1 FROM enrollments WHERE student_id").
		WithArgs("stu-1", "sub-1", "2026-03", models.EnrollmentStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsActive(context.Background(), "stu-1", "sub-1", "2026-03")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM enrollments WHERE student_id").
		WithArgs("stu-1", "sub-2", "2026-03", models.EnrollmentStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.ExistsActive(context.Background(), "stu-1", "sub-2", "2026-03")
	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateWithPayment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO enrollment_files").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO enrollment_files").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	enrollment := &models.Enrollment{
		StudentID:     "stu-1",
		SubjectID:     "sub-1",
		Month:         "2026-03",
		PaymentMethod: "EFT",
		PaymentRef:    "EFT-abc123",
		AmountPaid:    712,
		StatusToken:   "token-1",
	}
	payment := &models.Payment{Amount: 712, Gateway: "EFT", Reference: "EFT-abc123", Result: models.PaymentResultPending}

	err := repo.CreateWithPayment(context.Background(), enrollment, payment, []string{"a.pdf", "b.pdf"})
	require.NoError(t, err)
	assert.NotEmpty(t, enrollment.ID)
	assert.Equal(t, enrollment.ID, payment.EnrollmentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateWithPaymentRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO enrollments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payments").
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	err := repo.CreateWithPayment(context.Background(),
		&models.Enrollment{StudentID: "stu-1", SubjectID: "sub-1", Month: "2026-03", StatusToken: "tok"},
		&models.Payment{Amount: 250, Gateway: "EFT", Reference: "EFT-x", Result: models.PaymentResultPending},
		nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2 WHERE id = $1")).
		WithArgs("enr-1", models.EnrollmentStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "enr-1", models.EnrollmentStatusActive)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryFindDetailByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "subject_id", "month", "status", "payment_method", "payment_ref", "amount_paid", "status_token", "created_at", "student_name", "student_phone", "student_email", "subject_name", "grade"}).
		AddRow("enr-1", "stu-1", "sub-1", "2026-03", models.EnrollmentStatusPending, "EFT", "EFT-x", 712, "tok", time.Now(), "Thandi M", "27821234567", nil, "Mathematics", "G12")
	mock.ExpectQuery("SELECT e.id, e.student_id").
		WithArgs("enr-1").
		WillReturnRows(rows)

	detail, err := repo.FindDetailByID(context.Background(), "enr-1")
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", detail.SubjectName)
	assert.Equal(t, "G12", detail.Grade)
	require.NoError(t, mock.ExpectationsWereMet())
}
