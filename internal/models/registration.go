package models

import "time"

// Registration records the once-a-year registration fee, independent of
// monthly enrollments. (student, year) is unique.
type Registration struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Year      string    `db:"year" json:"year"`
	Amount    int       `db:"amount" json:"amount"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RegistrationDetail joins student info for the admin listing.
type RegistrationDetail struct {
	Registration
	StudentName  string `db:"student_name" json:"student_name"`
	StudentPhone string `db:"student_phone" json:"student_phone"`
	Grade        string `db:"grade" json:"grade"`
}
