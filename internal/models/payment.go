package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod enumerates accepted payment channels.
type PaymentMethod string

const (
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodCard     PaymentMethod = "CARD"
)

// PaymentRecord is an immutable record of money received for an enrollment.
// The engine reads payments, it never mutates them.
type PaymentRecord struct {
	ID           string          `db:"id" json:"id"`
	EnrollmentID string          `db:"enrollment_id" json:"enrollment_id"`
	StudentID    string          `db:"student_id" json:"student_id"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	PaidAt       time.Time       `db:"paid_at" json:"paid_at"`
	Method       PaymentMethod   `db:"method" json:"method"`
}

// PaymentFilter provides filters for listing payments.
type PaymentFilter struct {
	StudentIDs []string
	From       time.Time
	To         time.Time
}
