package models

// Setting is a key-value row in the global settings store.
type Setting struct {
	Key   string `db:"key" json:"key"`
	Value string `db:"value" json:"value"`
}

// Well-known settings keys read by the enrollment core.
const (
	SettingCurrentMonth      = "current_month"
	SettingEnrollmentOpen    = "enrollment_open"
	SettingEnrollmentMessage = "enrollment_message"
)
