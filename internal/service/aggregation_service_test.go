package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-ops-api/internal/models"
	appErrors "github.com/noah-isme/tutor-ops-api/pkg/errors"
)

func ptrInt(v int) *int { return &v }

func testDateRange() models.DateRange {
	return models.DateRange{
		Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

func testAggregateInput() AggregateInput {
	jan := func(day int) time.Time {
		return time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC)
	}
	return AggregateInput{
		Enrollments: []models.Enrollment{
			{ID: "enr-1", StudentID: "stu-a", StudentName: "Alice", CourseID: "crs-1", FeePaid: decimal.NewFromInt(1000), TotalUnits: 10},
			{ID: "enr-2", StudentID: "stu-b", StudentName: "Bob", CourseID: "crs-1", FeePaid: decimal.NewFromInt(500), TotalUnits: 5},
		},
		Attendance: []models.AttendanceRecord{
			{ID: "att-1", StudentID: "stu-a", Date: jan(5), Status: models.AttendanceStatusPresent, PerformanceScore: ptrInt(80)},
			{ID: "att-2", StudentID: "stu-a", Date: jan(12), Status: models.AttendanceStatusPresent, PerformanceScore: ptrInt(90)},
			{ID: "att-3", StudentID: "stu-a", Date: jan(19), Status: models.AttendanceStatusPresent},
			{ID: "att-4", StudentID: "stu-a", Date: jan(26), Status: models.AttendanceStatusAbsent},
			// Outside the range: excluded entirely.
			{ID: "att-5", StudentID: "stu-a", Date: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC), Status: models.AttendanceStatusPresent},
			// Unknown student: skipped and counted.
			{ID: "att-6", StudentID: "stu-ghost", Date: jan(5), Status: models.AttendanceStatusPresent},
		},
		Payments: []models.PaymentRecord{
			{ID: "pay-1", EnrollmentID: "enr-1", StudentID: "stu-a", Amount: decimal.NewFromInt(600), PaidAt: jan(10), Method: models.PaymentMethodTransfer},
			{ID: "pay-2", EnrollmentID: "enr-1", StudentID: "stu-a", Amount: decimal.NewFromInt(100), PaidAt: time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC), Method: models.PaymentMethodCash},
			{ID: "pay-3", EnrollmentID: "enr-9", StudentID: "stu-ghost", Amount: decimal.NewFromInt(50), PaidAt: jan(10), Method: models.PaymentMethodCash},
		},
	}
}

func TestAggregateAttendanceReport(t *testing.T) {
	svc := NewAggregationService(nil)

	result, err := svc.Aggregate(models.ReportTypeAttendance, testDateRange(), testAggregateInput())
	require.NoError(t, err)

	require.Len(t, result.Details, 2)

	// Rows are ordered by student id.
	alice := result.Details[0]
	bob := result.Details[1]
	assert.Equal(t, "stu-a", alice["student_id"])
	assert.Equal(t, "stu-b", bob["student_id"])

	assert.Equal(t, "4", alice["total_sessions"])
	assert.Equal(t, "3", alice["present"])
	assert.Equal(t, "1", alice["absent"])
	assert.Equal(t, "0.7500", alice["attendance_rate"])

	// A student with no attendance rows keeps their scheduled unit count as
	// the denominator with a zero rate.
	assert.Equal(t, "5", bob["total_sessions"])
	assert.Equal(t, "0", bob["present"])
	assert.Equal(t, "0.0000", bob["attendance_rate"])

	assert.Equal(t, 2.0, result.Summary["students"])
	assert.Equal(t, 2.0, result.Summary["skippedRecords"])
	assert.Equal(t, 4.0, result.Summary["totalRecords"])
	assert.Equal(t, 0.75, result.Summary["overallAttendanceRate"])

	// Daily buckets cover only in-range records for known students.
	require.Len(t, result.Buckets, 4)
	assert.Equal(t, "2026-01-05", result.Buckets[0].Period)
	assert.Equal(t, 1.0, result.Buckets[0].Metrics["present"])
}

func TestAggregateIsDeterministic(t *testing.T) {
	svc := NewAggregationService(nil)

	first, err := svc.Aggregate(models.ReportTypeAttendance, testDateRange(), testAggregateInput())
	require.NoError(t, err)
	second, err := svc.Aggregate(models.ReportTypeAttendance, testDateRange(), testAggregateInput())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAggregateFinancialReport(t *testing.T) {
	svc := NewAggregationService(nil)

	result, err := svc.Aggregate(models.ReportTypeFinancial, testDateRange(), testAggregateInput())
	require.NoError(t, err)

	require.Len(t, result.Details, 2)
	alice := result.Details[0]
	assert.Equal(t, "1000.00", alice["total_invoiced"])
	assert.Equal(t, "600.00", alice["total_paid"])
	assert.Equal(t, "400.00", alice["outstanding"])
	assert.Equal(t, "OUTSTANDING", alice["payment_status"])

	bob := result.Details[1]
	assert.Equal(t, "500.00", bob["total_invoiced"])
	assert.Equal(t, "0.00", bob["total_paid"])
	assert.Equal(t, "OUTSTANDING", bob["payment_status"])

	assert.Equal(t, 1500.0, result.Summary["totalInvoiced"])
	assert.Equal(t, 600.0, result.Summary["totalCollected"])
	assert.Equal(t, 900.0, result.Summary["totalOutstanding"])
	assert.Equal(t, 0.0, result.Summary["paidStudents"])

	// Only months with in-range payments produce buckets.
	require.Len(t, result.Buckets, 1)
	assert.Equal(t, "2026-01", result.Buckets[0].Period)
	assert.Equal(t, 600.0, result.Buckets[0].Metrics["collected"])
	assert.Equal(t, 1.0, result.Buckets[0].Metrics["payments"])
}

func TestAggregatePerformanceReport(t *testing.T) {
	svc := NewAggregationService(nil)

	result, err := svc.Aggregate(models.ReportTypePerformance, testDateRange(), testAggregateInput())
	require.NoError(t, err)

	require.Len(t, result.Details, 2)
	alice := result.Details[0]
	assert.Equal(t, "4", alice["total_sessions"])
	assert.Equal(t, "3", alice["attended"])
	// Only scored sessions feed the average.
	assert.Equal(t, "85.00", alice["average_performance"])

	bob := result.Details[1]
	assert.Equal(t, "", bob["average_performance"])

	assert.Equal(t, 85.0, result.Summary["averagePerformance"])
	// Mean of per-student rates: (0.75 + 0) / 2.
	assert.Equal(t, 0.375, result.Summary["averageAttendanceRate"])
}

func TestAggregateCustomOverview(t *testing.T) {
	svc := NewAggregationService(nil)

	result, err := svc.Aggregate(models.ReportTypeCustom, testDateRange(), testAggregateInput())
	require.NoError(t, err)

	require.Len(t, result.Details, 2)
	assert.Equal(t, models.StringList{"student_id", "student_name", "attendance_rate", "total_paid", "outstanding"}, result.Columns)
	assert.Equal(t, 600.0, result.Summary["totalCollected"])
}

func TestAggregateRejectsInvalidRange(t *testing.T) {
	svc := NewAggregationService(nil)

	inverted := models.DateRange{
		Start: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err := svc.Aggregate(models.ReportTypeAttendance, inverted, testAggregateInput())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidDateRange.Code, appErrors.FromError(err).Code)
}

func TestAggregateRejectsUnknownType(t *testing.T) {
	svc := NewAggregationService(nil)

	_, err := svc.Aggregate(models.ReportType("quarterly"), testDateRange(), testAggregateInput())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAggregateEmptyInput(t *testing.T) {
	svc := NewAggregationService(nil)

	result, err := svc.Aggregate(models.ReportTypeAttendance, testDateRange(), AggregateInput{})
	require.NoError(t, err)
	assert.Empty(t, result.Details)
	assert.Empty(t, result.Buckets)
	assert.Equal(t, 0.0, result.Summary["students"])
	assert.Equal(t, 0.0, result.Summary["overallAttendanceRate"])
}
