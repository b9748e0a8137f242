package models

import "time"

// EnrollmentStatus represents the lifecycle of a monthly enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusPending EnrollmentStatus = "PENDING"
	EnrollmentStatusActive  EnrollmentStatus = "ACTIVE"
	EnrollmentStatusLapsed  EnrollmentStatus = "LAPSED"
)

// Valid returns true when the status is a supported value.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusPending, EnrollmentStatusActive, EnrollmentStatusLapsed:
		return true
	default:
		return false
	}
}

// Enrollment captures a student's paid registration to one subject for one
// billing month. The (student, subject, month) triple is unique and the
// status token is written once at creation.
type Enrollment struct {
	ID            string           `db:"id" json:"id"`
	StudentID     string           `db:"student_id" json:"student_id"`
	SubjectID     string           `db:"subject_id" json:"subject_id"`
	Month         string           `db:"month" json:"month"`
	Status        EnrollmentStatus `db:"status" json:"status"`
	PaymentMethod string           `db:"payment_method" json:"payment_method"`
	PaymentRef    string           `db:"payment_ref" json:"payment_ref"`
	AmountPaid    int              `db:"amount_paid" json:"amount_paid"`
	StatusToken   string           `db:"status_token" json:"-"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}

// EnrollmentDetail enriches Enrollment with student and subject info.
type EnrollmentDetail struct {
	Enrollment
	StudentName  string  `db:"student_name" json:"student_name"`
	StudentPhone string  `db:"student_phone" json:"student_phone"`
	StudentEmail *string `db:"student_email" json:"student_email,omitempty"`
	SubjectName  string  `db:"subject_name" json:"subject_name"`
	Grade        string  `db:"grade" json:"grade"`
}

// EnrollmentFile references one uploaded proof-of-payment document.
type EnrollmentFile struct {
	ID           string    `db:"id" json:"id"`
	EnrollmentID string    `db:"enrollment_id" json:"enrollment_id"`
	FilePath     string    `db:"file_path" json:"file_path"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// EnrollmentBundle pairs an enrollment with its payment ledger row for the
// transactional registration insert.
type EnrollmentBundle struct {
	Enrollment *Enrollment
	Payment    *Payment
}

// EnrollmentFilter provides filters for the admin listing.
type EnrollmentFilter struct {
	Month     string
	Status    EnrollmentStatus
	Grade     string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
