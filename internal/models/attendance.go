package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "PRESENT"
	AttendanceStatusAbsent  AttendanceStatus = "ABSENT"
	AttendanceStatusLate    AttendanceStatus = "LATE"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate:
		return true
	default:
		return false
	}
}

// AttendanceRecord is an immutable per-session attendance row. The
// performance score is optional; sessions without one are excluded from
// average-performance math entirely.
type AttendanceRecord struct {
	ID               string           `db:"id" json:"id"`
	StudentID        string           `db:"student_id" json:"student_id"`
	SessionID        string           `db:"session_id" json:"session_id"`
	Date             time.Time        `db:"date" json:"date"`
	Status           AttendanceStatus `db:"status" json:"status"`
	PerformanceScore *int             `db:"performance_score" json:"performance_score,omitempty"`
}

// AttendanceFilter provides filters for listing attendance records.
type AttendanceFilter struct {
	StudentIDs []string
	From       time.Time
	To         time.Time
}
