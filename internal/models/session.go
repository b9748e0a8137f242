package models

// Session is a recurring weekly teaching slot referenced by QR generation.
type Session struct {
	ID        string  `db:"id" json:"id"`
	SubjectID string  `db:"subject_id" json:"subject_id"`
	TutorID   string  `db:"tutor_id" json:"tutor_id"`
	DayOfWeek int     `db:"day_of_week" json:"day_of_week"`
	StartTime string  `db:"start_time" json:"start_time"`
	EndTime   string  `db:"end_time" json:"end_time"`
	MeetLink  *string `db:"meet_link" json:"meet_link,omitempty"`
	Active    bool    `db:"active" json:"active"`
}

// SessionDetail adds subject and tutor context for display.
type SessionDetail struct {
	Session
	SubjectName string `db:"subject_name" json:"subject_name"`
	Grade       string `db:"grade" json:"grade"`
	TutorName   string `db:"tutor_name" json:"tutor_name"`
}
