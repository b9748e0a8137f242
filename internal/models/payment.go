package models

import "time"

// PaymentResult is the outcome recorded on the ledger row.
type PaymentResult string

const (
	PaymentResultPending PaymentResult = "PENDING"
	PaymentResultPaid    PaymentResult = "PAID"
)

// Payment is the ledger row owned 1:1 by an enrollment. The reference is
// generated before insert so the row is written in a single statement.
type Payment struct {
	ID           string        `db:"id" json:"id"`
	EnrollmentID string        `db:"enrollment_id" json:"enrollment_id"`
	Amount       int           `db:"amount" json:"amount"`
	Gateway      string        `db:"gateway" json:"gateway"`
	Reference    string        `db:"reference" json:"reference"`
	Result       PaymentResult `db:"result" json:"result"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}
