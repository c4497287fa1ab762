package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	appErrors "github.com/noah-isme/tutor-ops-api/pkg/errors"
)

// ReportType enumerates supported report categories.
type ReportType string

const (
	ReportTypePerformance ReportType = "performance"
	ReportTypeFinancial   ReportType = "financial"
	ReportTypeAttendance  ReportType = "attendance"
	ReportTypeCustom      ReportType = "custom"
)

// Valid returns true when the type is a supported value.
func (t ReportType) Valid() bool {
	switch t {
	case ReportTypePerformance, ReportTypeFinancial, ReportTypeAttendance, ReportTypeCustom:
		return true
	default:
		return false
	}
}

// ReportStatus captures the report lifecycle. A report is created GENERATING
// and transitions exactly once to COMPLETED or FAILED.
type ReportStatus string

const (
	ReportStatusGenerating ReportStatus = "GENERATING"
	ReportStatusCompleted  ReportStatus = "COMPLETED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// ExportFormat enumerates supported export formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// DateRange bounds a report. Both ends are inclusive.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate rejects ranges whose start falls after their end.
func (r DateRange) Validate() error {
	if r.Start.After(r.End) {
		return appErrors.Clone(appErrors.ErrInvalidDateRange,
			fmt.Sprintf("range start %s is after end %s", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02")))
	}
	return nil
}

// Contains reports whether t falls inside the range, boundaries included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// ReportFilters narrows the record sets a report covers.
type ReportFilters struct {
	StudentIDs []string `json:"student_ids,omitempty"`
	CourseID   string   `json:"course_id,omitempty"`
}

// Summary is the scalar metric map of a report.
type Summary map[string]float64

// DetailRow is one per-entity row. Values are pre-formatted strings so a
// completed report renders identically everywhere it is displayed.
type DetailRow map[string]string

// DetailRows orders per-entity rows by the source entity's primary key.
type DetailRows []DetailRow

// PeriodBucket is one per-period aggregate row, keyed by calendar date or
// YYYY-MM month.
type PeriodBucket struct {
	Period  string             `json:"period"`
	Metrics map[string]float64 `json:"metrics"`
}

// PeriodBuckets orders buckets chronologically.
type PeriodBuckets []PeriodBucket

// ReportResult is one persisted report invocation. Identical parameters on
// two invocations yield two distinct identities with identical content.
type ReportResult struct {
	ID           string        `db:"id" json:"id"`
	Type         ReportType    `db:"type" json:"type"`
	DateRange    DateRange     `db:"date_range" json:"date_range"`
	Filters      ReportFilters `db:"filters" json:"filters"`
	Status       ReportStatus  `db:"status" json:"status"`
	Summary      Summary       `db:"summary" json:"summary"`
	Columns      StringList    `db:"columns" json:"columns"`
	Details      DetailRows    `db:"details" json:"details"`
	Buckets      PeriodBuckets `db:"buckets" json:"buckets"`
	ErrorMessage *string       `db:"error_message" json:"error_message,omitempty"`
	GeneratedAt  *time.Time    `db:"generated_at" json:"generated_at,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// StringList persists an ordered string slice as JSONB.
type StringList []string

// JSONB plumbing below follows the usual driver.Valuer / sql.Scanner pair for
// each persisted composite column.

func jsonbValue(v interface{}, what string) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", what, err)
	}
	return data, nil
}

func jsonbScan(value interface{}, dest interface{}, what string) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for %s", value, what)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", what, err)
	}
	return nil
}

// Value marshals the range to JSON for persistence.
func (r DateRange) Value() (driver.Value, error) { return jsonbValue(r, "date range") }

// Scan unmarshals JSON payloads into the range.
func (r *DateRange) Scan(value interface{}) error { return jsonbScan(value, r, "date range") }

// Value marshals the filters to JSON for persistence.
func (f ReportFilters) Value() (driver.Value, error) { return jsonbValue(f, "report filters") }

// Scan unmarshals JSON payloads into the filters.
func (f *ReportFilters) Scan(value interface{}) error { return jsonbScan(value, f, "report filters") }

// Value marshals the summary to JSON for persistence.
func (s Summary) Value() (driver.Value, error) {
	if s == nil {
		s = Summary{}
	}
	return jsonbValue(s, "report summary")
}

// Scan unmarshals JSON payloads into the summary.
func (s *Summary) Scan(value interface{}) error { return jsonbScan(value, s, "report summary") }

// Value marshals the rows to JSON for persistence.
func (d DetailRows) Value() (driver.Value, error) {
	if d == nil {
		d = DetailRows{}
	}
	return jsonbValue(d, "report details")
}

// Scan unmarshals JSON payloads into the rows.
func (d *DetailRows) Scan(value interface{}) error { return jsonbScan(value, d, "report details") }

// Value marshals the buckets to JSON for persistence.
func (b PeriodBuckets) Value() (driver.Value, error) {
	if b == nil {
		b = PeriodBuckets{}
	}
	return jsonbValue(b, "report buckets")
}

// Scan unmarshals JSON payloads into the buckets.
func (b *PeriodBuckets) Scan(value interface{}) error { return jsonbScan(value, b, "report buckets") }

// Value marshals the list to JSON for persistence.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return jsonbValue(l, "column list")
}

// Scan unmarshals JSON payloads into the list.
func (l *StringList) Scan(value interface{}) error { return jsonbScan(value, l, "column list") }
