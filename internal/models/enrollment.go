package models

import (
	"time"

	"github.com/shopspring/decimal"

	appErrors "github.com/noah-isme/tutor-ops-api/pkg/errors"
)

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusCancelled EnrollmentStatus = "CANCELLED"
	EnrollmentStatusRemoved   EnrollmentStatus = "REMOVED"
)

// Valid returns true when the status is a supported value.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusActive, EnrollmentStatusCompleted, EnrollmentStatusCancelled, EnrollmentStatusRemoved:
		return true
	default:
		return false
	}
}

// Enrollment captures a student's registration to a course, including the fee
// billed and lesson progress. Cancellation and AP removal set the status;
// course extension shifts EndDate and TotalUnits.
type Enrollment struct {
	ID             string           `db:"id" json:"id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	StudentName    string           `db:"student_name" json:"student_name"`
	CourseID       string           `db:"course_id" json:"course_id"`
	FeePaid        decimal.Decimal  `db:"fee_paid" json:"fee_paid"`
	TotalUnits     int              `db:"total_units" json:"total_units"`
	CompletedUnits int              `db:"completed_units" json:"completed_units"`
	StartDate      time.Time        `db:"start_date" json:"start_date"`
	EndDate        time.Time        `db:"end_date" json:"end_date"`
	Status         EnrollmentStatus `db:"status" json:"status"`
}

// Validate checks the unit-count invariant: 0 <= completedUnits <= totalUnits.
func (e Enrollment) Validate() error {
	if e.TotalUnits < 0 {
		return appErrors.Clone(appErrors.ErrInvalidEnrollmentState, "totalUnits must not be negative")
	}
	if e.CompletedUnits < 0 {
		return appErrors.Clone(appErrors.ErrInvalidEnrollmentState, "completedUnits must not be negative")
	}
	if e.CompletedUnits > e.TotalUnits {
		return appErrors.Clone(appErrors.ErrInvalidEnrollmentState, "completedUnits exceeds totalUnits")
	}
	return nil
}

// CompletionFraction is completedUnits/totalUnits clamped to [0,1]. An
// enrollment with zero total units counts as fully completed, so it never
// qualifies for a refund.
func (e Enrollment) CompletionFraction() float64 {
	if e.TotalUnits == 0 {
		return 1
	}
	fraction := float64(e.CompletedUnits) / float64(e.TotalUnits)
	if fraction < 0 {
		return 0
	}
	if fraction > 1 {
		return 1
	}
	return fraction
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentIDs []string
	CourseID   string
	Status     EnrollmentStatus
}
