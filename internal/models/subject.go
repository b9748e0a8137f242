package models

// Subject is static reference data: a (name, grade) pair seeded at startup.
type Subject struct {
	ID    string `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Grade string `db:"grade" json:"grade"`
}

// GradeLabel renders the stored grade code for display, e.g. "G12" -> "Grade 12".
func GradeLabel(grade string) string {
	if len(grade) > 1 && grade[0] == 'G' {
		return "Grade " + grade[1:]
	}
	return grade
}
