package models

import "time"

// Attendance is a check-in fact row. (session, student, date) carries no
// uniqueness constraint: repeat scans append new rows and the admin listing
// surfaces the counts.
type Attendance struct {
	ID        string    `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"session_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Date      string    `db:"date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AttendanceRecord extends the fact row with student metadata.
type AttendanceRecord struct {
	Attendance
	StudentName  string `db:"student_name" json:"student_name"`
	StudentPhone string `db:"student_phone" json:"student_phone"`
}
