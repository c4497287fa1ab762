package models

import "github.com/shopspring/decimal"

// RefundOutcome is the derived result of applying a refund policy and fee
// rule to one enrollment. It is a value object; persisting it is the
// caller's concern (typically inside a cancellation or removal transaction).
type RefundOutcome struct {
	EnrollmentID   string          `json:"enrollment_id"`
	StudentID      string          `json:"student_id"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	RefundEligible decimal.Decimal `json:"refund_eligible"`
	AdminFee       decimal.Decimal `json:"admin_fee"`
	NetRefund      decimal.Decimal `json:"net_refund"`
}

// RefundTotals aggregates a batch of outcomes. Totals are sums of the
// already-rounded per-enrollment figures so they reproduce displayed values
// exactly.
type RefundTotals struct {
	Paid     decimal.Decimal `json:"paid"`
	Eligible decimal.Decimal `json:"eligible"`
	Fees     decimal.Decimal `json:"fees"`
	Net      decimal.Decimal `json:"net"`
}

// RefundBatch couples per-enrollment outcomes with their totals.
type RefundBatch struct {
	Outcomes []RefundOutcome `json:"outcomes"`
	Totals   RefundTotals    `json:"totals"`
}
