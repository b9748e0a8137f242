package models

import "time"

// Student represents a learner known to the academy. The phone number is
// stored normalized (digits only) and is the student's primary identity;
// the PIN is issued lazily and stays empty until first approval.
type Student struct {
	ID            string    `db:"id" json:"id"`
	FullName      string    `db:"full_name" json:"full_name"`
	Phone         string    `db:"phone" json:"phone"`
	GuardianName  string    `db:"guardian_name" json:"guardian_name"`
	GuardianPhone string    `db:"guardian_phone" json:"guardian_phone"`
	Email         *string   `db:"email" json:"email,omitempty"`
	Grade         string    `db:"grade" json:"grade"`
	Province      string    `db:"province" json:"province"`
	School        string    `db:"school" json:"school"`
	PIN           *string   `db:"pin" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// HasPIN reports whether the student already holds an issued PIN.
func (s *Student) HasPIN() bool {
	return s.PIN != nil && *s.PIN != ""
}
