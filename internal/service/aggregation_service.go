package service

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-ops-api/internal/models"
	appErrors "github.com/noah-isme/tutor-ops-api/pkg/errors"
)

// AggregateInput carries the raw record sets an aggregation consumes. The
// engine never touches a repository; callers fetch, the engine computes.
type AggregateInput struct {
	Enrollments []models.Enrollment
	Attendance  []models.AttendanceRecord
	Payments    []models.PaymentRecord
}

// AggregateResult is the computed body of a report: headline metrics,
// ordered per-student rows, and ordered per-period buckets.
type AggregateResult struct {
	Summary models.Summary
	Columns models.StringList
	Details models.DetailRows
	Buckets models.PeriodBuckets
}

// AggregationService joins enrollment, attendance, and payment records into
// report bodies. Aggregation is a pure function of its inputs: identical
// inputs produce structurally identical output, details are sorted by
// student id and buckets chronologically.
type AggregationService struct {
	logger *zap.Logger
}

// NewAggregationService constructs the engine.
func NewAggregationService(logger *zap.Logger) *AggregationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AggregationService{logger: logger}
}

// studentAccumulator collects per-student figures across all record sets.
type studentAccumulator struct {
	id          string
	name        string
	totalUnits  int
	invoiced    decimal.Decimal
	paid        decimal.Decimal
	sessions    int
	present     int
	absent      int
	late        int
	scoreSum    int
	scoredCount int
}

// Aggregate computes the report body for the requested type and range.
// Records dated outside the range are excluded entirely; records referencing
// a student absent from the enrollment set are skipped and counted, not
// fatal, since upstream data is user-entered.
func (s *AggregationService) Aggregate(reportType models.ReportType, dateRange models.DateRange, input AggregateInput) (*AggregateResult, error) {
	if !reportType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report type %q", reportType))
	}
	if err := dateRange.Validate(); err != nil {
		return nil, err
	}

	students := make(map[string]*studentAccumulator, len(input.Enrollments))
	order := make([]string, 0, len(input.Enrollments))
	for _, enrollment := range input.Enrollments {
		acc, ok := students[enrollment.StudentID]
		if !ok {
			acc = &studentAccumulator{
				id:       enrollment.StudentID,
				name:     enrollment.StudentName,
				invoiced: decimal.Zero,
				paid:     decimal.Zero,
			}
			students[enrollment.StudentID] = acc
			order = append(order, enrollment.StudentID)
		}
		acc.totalUnits += enrollment.TotalUnits
		acc.invoiced = acc.invoiced.Add(enrollment.FeePaid)
	}
	sort.Strings(order)

	skipped := 0
	dayBuckets := map[string]*dayAccumulator{}
	monthBuckets := map[string]*monthAccumulator{}

	totalRecords := 0
	totalPresent := 0
	for _, record := range input.Attendance {
		if !dateRange.Contains(record.Date) {
			continue
		}
		acc, ok := students[record.StudentID]
		if !ok {
			skipped++
			s.logger.Warn("attendance record references unknown student",
				zap.String("record_id", record.ID), zap.String("student_id", record.StudentID))
			continue
		}
		acc.sessions++
		totalRecords++
		switch record.Status {
		case models.AttendanceStatusPresent:
			acc.present++
			totalPresent++
		case models.AttendanceStatusAbsent:
			acc.absent++
		case models.AttendanceStatusLate:
			acc.late++
		}
		if record.PerformanceScore != nil {
			acc.scoreSum += *record.PerformanceScore
			acc.scoredCount++
		}

		day := record.Date.Format("2006-01-02")
		db, ok := dayBuckets[day]
		if !ok {
			db = &dayAccumulator{}
			dayBuckets[day] = db
		}
		db.observe(record)

		month := record.Date.Format("2006-01")
		mb, ok := monthBuckets[month]
		if !ok {
			mb = newMonthAccumulator()
			monthBuckets[month] = mb
		}
		mb.observeAttendance(record)
	}

	collected := decimal.Zero
	for _, payment := range input.Payments {
		if !dateRange.Contains(payment.PaidAt) {
			continue
		}
		acc, ok := students[payment.StudentID]
		if !ok {
			skipped++
			s.logger.Warn("payment record references unknown student",
				zap.String("record_id", payment.ID), zap.String("student_id", payment.StudentID))
			continue
		}
		acc.paid = acc.paid.Add(payment.Amount)
		collected = collected.Add(payment.Amount)

		month := payment.PaidAt.Format("2006-01")
		mb, ok := monthBuckets[month]
		if !ok {
			mb = newMonthAccumulator()
			monthBuckets[month] = mb
		}
		mb.observePayment(payment)
	}

	result := &AggregateResult{Summary: models.Summary{}}
	switch reportType {
	case models.ReportTypePerformance:
		s.buildPerformance(result, students, order, monthBuckets)
	case models.ReportTypeFinancial:
		s.buildFinancial(result, students, order, monthBuckets, collected)
	case models.ReportTypeAttendance:
		s.buildAttendance(result, students, order, dayBuckets, totalPresent, totalRecords)
	case models.ReportTypeCustom:
		s.buildOverview(result, students, order, monthBuckets, collected)
	}

	result.Summary["students"] = float64(len(students))
	result.Summary["skippedRecords"] = float64(skipped)
	return result, nil
}

type dayAccumulator struct {
	present int
	absent  int
	late    int
	total   int
}

func (d *dayAccumulator) observe(record models.AttendanceRecord) {
	d.total++
	switch record.Status {
	case models.AttendanceStatusPresent:
		d.present++
	case models.AttendanceStatusAbsent:
		d.absent++
	case models.AttendanceStatusLate:
		d.late++
	}
}

type monthAccumulator struct {
	sessions    int
	present     int
	scoreSum    int
	scoredCount int
	collected   decimal.Decimal
	payments    int
}

func newMonthAccumulator() *monthAccumulator {
	return &monthAccumulator{collected: decimal.Zero}
}

func (m *monthAccumulator) observeAttendance(record models.AttendanceRecord) {
	m.sessions++
	if record.Status == models.AttendanceStatusPresent {
		m.present++
	}
	if record.PerformanceScore != nil {
		m.scoreSum += *record.PerformanceScore
		m.scoredCount++
	}
}

func (m *monthAccumulator) observePayment(payment models.PaymentRecord) {
	m.collected = m.collected.Add(payment.Amount)
	m.payments++
}

// attendanceRate is presentCount over the session denominator. A student with
// no attendance rows falls back to their scheduled unit count so the row
// still shows a meaningful denominator with a zero rate.
func (acc *studentAccumulator) attendanceRate() (rate float64, denominator int) {
	denominator = acc.sessions
	if denominator == 0 {
		denominator = acc.totalUnits
	}
	if denominator == 0 {
		return 0, 0
	}
	return float64(acc.present) / float64(denominator), denominator
}

func (s *AggregationService) buildPerformance(result *AggregateResult, students map[string]*studentAccumulator, order []string, months map[string]*monthAccumulator) {
	result.Columns = models.StringList{"student_id", "student_name", "total_sessions", "attended", "attendance_rate", "average_performance"}
	result.Details = make(models.DetailRows, 0, len(order))

	rateSum := 0.0
	scoreSum := 0
	scoredCount := 0
	for _, id := range order {
		acc := students[id]
		rate, denominator := acc.attendanceRate()
		rateSum += rate
		scoreSum += acc.scoreSum
		scoredCount += acc.scoredCount

		avg := ""
		if acc.scoredCount > 0 {
			avg = formatFloat(float64(acc.scoreSum)/float64(acc.scoredCount), 2)
		}
		result.Details = append(result.Details, models.DetailRow{
			"student_id":          acc.id,
			"student_name":        acc.name,
			"total_sessions":      strconv.Itoa(denominator),
			"attended":            strconv.Itoa(acc.present),
			"attendance_rate":     formatFloat(rate, 4),
			"average_performance": avg,
		})
	}

	if len(order) > 0 {
		result.Summary["averageAttendanceRate"] = roundFloat(rateSum/float64(len(order)), 4)
	}
	if scoredCount > 0 {
		result.Summary["averagePerformance"] = roundFloat(float64(scoreSum)/float64(scoredCount), 2)
	}

	result.Buckets = make(models.PeriodBuckets, 0, len(months))
	for period, acc := range months {
		metrics := map[string]float64{"sessions": float64(acc.sessions)}
		if acc.sessions > 0 {
			metrics["attendanceRate"] = roundFloat(float64(acc.present)/float64(acc.sessions), 4)
		}
		if acc.scoredCount > 0 {
			metrics["averagePerformance"] = roundFloat(float64(acc.scoreSum)/float64(acc.scoredCount), 2)
		}
		result.Buckets = append(result.Buckets, models.PeriodBucket{Period: period, Metrics: metrics})
	}
	sortBuckets(result.Buckets)
}

func (s *AggregationService) buildFinancial(result *AggregateResult, students map[string]*studentAccumulator, order []string, months map[string]*monthAccumulator, collected decimal.Decimal) {
	result.Columns = models.StringList{"student_id", "student_name", "total_invoiced", "total_paid", "outstanding", "payment_status"}
	result.Details = make(models.DetailRows, 0, len(order))

	invoicedTotal := decimal.Zero
	outstandingTotal := decimal.Zero
	paidStudents := 0
	for _, id := range order {
		acc := students[id]
		invoiced := acc.invoiced.Round(2)
		paid := acc.paid.Round(2)
		outstanding := invoiced.Sub(paid)
		status := "OUTSTANDING"
		if outstanding.LessThanOrEqual(decimal.Zero) {
			status = "PAID"
			paidStudents++
		} else {
			outstandingTotal = outstandingTotal.Add(outstanding)
		}
		invoicedTotal = invoicedTotal.Add(invoiced)

		result.Details = append(result.Details, models.DetailRow{
			"student_id":     acc.id,
			"student_name":   acc.name,
			"total_invoiced": invoiced.StringFixed(2),
			"total_paid":     paid.StringFixed(2),
			"outstanding":    outstanding.StringFixed(2),
			"payment_status": status,
		})
	}

	result.Summary["totalInvoiced"] = invoicedTotal.InexactFloat64()
	result.Summary["totalCollected"] = collected.Round(2).InexactFloat64()
	result.Summary["totalOutstanding"] = outstandingTotal.InexactFloat64()
	result.Summary["paidStudents"] = float64(paidStudents)

	result.Buckets = make(models.PeriodBuckets, 0, len(months))
	for period, acc := range months {
		if acc.payments == 0 {
			continue
		}
		result.Buckets = append(result.Buckets, models.PeriodBucket{Period: period, Metrics: map[string]float64{
			"collected": acc.collected.Round(2).InexactFloat64(),
			"payments":  float64(acc.payments),
		}})
	}
	sortBuckets(result.Buckets)
}

func (s *AggregationService) buildAttendance(result *AggregateResult, students map[string]*studentAccumulator, order []string, days map[string]*dayAccumulator, totalPresent, totalRecords int) {
	result.Columns = models.StringList{"student_id", "student_name", "total_sessions", "present", "absent", "late", "attendance_rate"}
	result.Details = make(models.DetailRows, 0, len(order))

	for _, id := range order {
		acc := students[id]
		rate, denominator := acc.attendanceRate()
		result.Details = append(result.Details, models.DetailRow{
			"student_id":      acc.id,
			"student_name":    acc.name,
			"total_sessions":  strconv.Itoa(denominator),
			"present":         strconv.Itoa(acc.present),
			"absent":          strconv.Itoa(acc.absent),
			"late":            strconv.Itoa(acc.late),
			"attendance_rate": formatFloat(rate, 4),
		})
	}

	result.Summary["totalRecords"] = float64(totalRecords)
	result.Summary["present"] = float64(totalPresent)
	// Overall rate spans the real record set only; students without records
	// contribute nothing to the denominator.
	if totalRecords > 0 {
		result.Summary["overallAttendanceRate"] = roundFloat(float64(totalPresent)/float64(totalRecords), 4)
	} else {
		result.Summary["overallAttendanceRate"] = 0
	}

	result.Buckets = make(models.PeriodBuckets, 0, len(days))
	for period, acc := range days {
		metrics := map[string]float64{
			"present": float64(acc.present),
			"absent":  float64(acc.absent),
			"late":    float64(acc.late),
			"total":   float64(acc.total),
		}
		if acc.total > 0 {
			metrics["attendanceRate"] = roundFloat(float64(acc.present)/float64(acc.total), 4)
		}
		result.Buckets = append(result.Buckets, models.PeriodBucket{Period: period, Metrics: metrics})
	}
	sortBuckets(result.Buckets)
}

// buildOverview backs the custom report type: a per-student roster mixing
// attendance and payment standing.
func (s *AggregationService) buildOverview(result *AggregateResult, students map[string]*studentAccumulator, order []string, months map[string]*monthAccumulator, collected decimal.Decimal) {
	result.Columns = models.StringList{"student_id", "student_name", "attendance_rate", "total_paid", "outstanding"}
	result.Details = make(models.DetailRows, 0, len(order))

	for _, id := range order {
		acc := students[id]
		rate, _ := acc.attendanceRate()
		outstanding := acc.invoiced.Sub(acc.paid).Round(2)
		result.Details = append(result.Details, models.DetailRow{
			"student_id":      acc.id,
			"student_name":    acc.name,
			"attendance_rate": formatFloat(rate, 4),
			"total_paid":      acc.paid.Round(2).StringFixed(2),
			"outstanding":     outstanding.StringFixed(2),
		})
	}

	result.Summary["totalCollected"] = collected.Round(2).InexactFloat64()

	result.Buckets = make(models.PeriodBuckets, 0, len(months))
	for period, acc := range months {
		result.Buckets = append(result.Buckets, models.PeriodBucket{Period: period, Metrics: map[string]float64{
			"sessions":  float64(acc.sessions),
			"collected": acc.collected.Round(2).InexactFloat64(),
		}})
	}
	sortBuckets(result.Buckets)
}

func sortBuckets(buckets models.PeriodBuckets) {
	// Period keys are YYYY-MM or YYYY-MM-DD, so lexical order is
	// chronological order.
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Period < buckets[j].Period })
}

func formatFloat(v float64, places int) string {
	return strconv.FormatFloat(roundFloat(v, places), 'f', places, 64)
}

func roundFloat(v float64, places int) float64 {
	shift := 1.0
	for i := 0; i < places; i++ {
		shift *= 10
	}
	if v >= 0 {
		return float64(int64(v*shift+0.5)) / shift
	}
	return float64(int64(v*shift-0.5)) / shift
}
