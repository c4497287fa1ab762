package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-ops-api/internal/models"
	"github.com/noah-isme/tutor-ops-api/internal/repository"
	appErrors "github.com/noah-isme/tutor-ops-api/pkg/errors"
	"github.com/noah-isme/tutor-ops-api/pkg/jobs"
	"github.com/noah-isme/tutor-ops-api/pkg/notify"
)

type reportStore interface {
	Create(ctx context.Context, report *models.ReportResult) error
	GetByID(ctx context.Context, id string) (*models.ReportResult, error)
	Update(ctx context.Context, id string, params repository.UpdateReportParams) error
	Delete(ctx context.Context, id string) error
	ListRecent(ctx context.Context, limit int) ([]models.ReportResult, error)
	ListCompletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportResult, error)
}

type enrollmentLister interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, error)
}

type attendanceLister interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error)
}

type paymentLister interface {
	List(ctx context.Context, filter models.PaymentFilter) ([]models.PaymentRecord, error)
}

type aggregator interface {
	Aggregate(reportType models.ReportType, dateRange models.DateRange, input AggregateInput) (*AggregateResult, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ReportService orchestrates the report lifecycle: persist a GENERATING
// placeholder, compute through the aggregation engine, finalize exactly once
// to COMPLETED or FAILED. Identical parameters on two calls produce two
// distinct report identities.
type ReportService struct {
	reports     reportStore
	enrollments enrollmentLister
	attendance  attendanceLister
	payments    paymentLister
	agg         aggregator
	queue       jobDispatcher
	cache       *CacheService
	notifier    notify.Notifier
	metrics     *MetricsService
	logger      *zap.Logger
	now         func() time.Time
}

// ReportServiceParams groups constructor dependencies.
type ReportServiceParams struct {
	Reports     reportStore
	Enrollments enrollmentLister
	Attendance  attendanceLister
	Payments    paymentLister
	Agg         aggregator
	Queue       jobDispatcher
	Cache       *CacheService
	Notifier    notify.Notifier
	Metrics     *MetricsService
	Logger      *zap.Logger
}

// NewReportService constructs the report builder.
func NewReportService(params ReportServiceParams) *ReportService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	notifier := params.Notifier
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &ReportService{
		reports:     params.Reports,
		enrollments: params.Enrollments,
		attendance:  params.Attendance,
		payments:    params.Payments,
		agg:         params.Agg,
		queue:       params.Queue,
		cache:       params.Cache,
		notifier:    notifier,
		metrics:     params.Metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// Build runs one synchronous report build. The GENERATING placeholder is
// persisted before any computation so concurrent readers observe an in-flight
// report; the finalize write is a second, distinct persisted state.
func (s *ReportService) Build(ctx context.Context, reportType models.ReportType, dateRange models.DateRange, filters models.ReportFilters) (*models.ReportResult, error) {
	if !reportType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report type %q", reportType))
	}

	report := &models.ReportResult{
		Type:      reportType,
		DateRange: dateRange,
		Filters:   filters,
		Status:    models.ReportStatusGenerating,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRepositoryUnavailable.Code, appErrors.ErrRepositoryUnavailable.Status, "failed to persist report placeholder")
	}

	return s.process(ctx, report)
}

// process computes and finalizes an already-persisted placeholder.
func (s *ReportService) process(ctx context.Context, report *models.ReportResult) (*models.ReportResult, error) {
	start := s.now()

	result, err := s.compute(ctx, report.Type, report.DateRange, report.Filters)
	if err != nil {
		s.finalizeFailed(ctx, report, err)
		s.metrics.ObserveReportBuild(string(report.Type), string(models.ReportStatusFailed), s.now().Sub(start))
		return nil, err
	}

	generatedAt := s.now().UTC()
	completed := models.ReportStatusCompleted
	if err := s.reports.Update(ctx, report.ID, repository.UpdateReportParams{
		Status:      &completed,
		Summary:     result.Summary,
		Columns:     result.Columns,
		Details:     result.Details,
		Buckets:     result.Buckets,
		GeneratedAt: &generatedAt,
	}); err != nil {
		wrapped := appErrors.Wrap(err, appErrors.ErrRepositoryUnavailable.Code, appErrors.ErrRepositoryUnavailable.Status, "failed to finalize report")
		s.finalizeFailed(ctx, report, wrapped)
		s.metrics.ObserveReportBuild(string(report.Type), string(models.ReportStatusFailed), s.now().Sub(start))
		return nil, wrapped
	}

	report.Status = completed
	report.Summary = result.Summary
	report.Columns = result.Columns
	report.Details = result.Details
	report.Buckets = result.Buckets
	report.GeneratedAt = &generatedAt

	s.metrics.ObserveReportBuild(string(report.Type), string(models.ReportStatusCompleted), s.now().Sub(start))
	s.emit(notify.Event{Kind: "report.completed", ReportID: report.ID, Status: string(report.Status)})
	return report, nil
}

// compute fetches the three record sets and runs the aggregation engine.
// The reads are independent and read-only; fetch order carries no meaning.
func (s *ReportService) compute(ctx context.Context, reportType models.ReportType, dateRange models.DateRange, filters models.ReportFilters) (*AggregateResult, error) {
	if err := dateRange.Validate(); err != nil {
		return nil, err
	}

	enrollments, err := s.enrollments.List(ctx, models.EnrollmentFilter{
		StudentIDs: filters.StudentIDs,
		CourseID:   filters.CourseID,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRepositoryUnavailable.Code, appErrors.ErrRepositoryUnavailable.Status, "failed to load enrollments")
	}

	studentIDs := filters.StudentIDs
	if len(studentIDs) == 0 {
		studentIDs = studentIDsOf(enrollments)
	}

	attendance, err := s.attendance.List(ctx, models.AttendanceFilter{
		StudentIDs: studentIDs,
		From:       dateRange.Start,
		To:         dateRange.End,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRepositoryUnavailable.Code, appErrors.ErrRepositoryUnavailable.Status, "failed to load attendance")
	}

	payments, err := s.payments.List(ctx, models.PaymentFilter{
		StudentIDs: studentIDs,
		From:       dateRange.Start,
		To:         dateRange.End,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRepositoryUnavailable.Code, appErrors.ErrRepositoryUnavailable.Status, "failed to load payments")
	}

	return s.agg.Aggregate(reportType, dateRange, AggregateInput{
		Enrollments: enrollments,
		Attendance:  attendance,
		Payments:    payments,
	})
}

// finalizeFailed flips the placeholder to FAILED with an empty body. The
// record keeps its identity; callers must check status before reading
// details or buckets.
func (s *ReportService) finalizeFailed(ctx context.Context, report *models.ReportResult, cause error) {
	failed := models.ReportStatusFailed
	msg := cause.Error()
	if err := s.reports.Update(ctx, report.ID, repository.UpdateReportParams{
		Status:       &failed,
		Summary:      models.Summary{},
		Columns:      models.StringList{},
		Details:      models.DetailRows{},
		Buckets:      models.PeriodBuckets{},
		ErrorMessage: &msg,
	}); err != nil {
		s.logger.Warn("failed to mark report failed", zap.String("report_id", report.ID), zap.Error(err))
	}
	report.Status = failed
	report.ErrorMessage = &msg
	s.emit(notify.Event{Kind: "report.failed", ReportID: report.ID, Status: string(failed)})
}

// emit delivers a lifecycle event without blocking the build flow.
func (s *ReportService) emit(event notify.Event) {
	go s.notifier.Notify(context.Background(), event)
}

// Enqueue persists a placeholder and hands the build to the background queue.
func (s *ReportService) Enqueue(ctx context.Context, reportType models.ReportType, dateRange models.DateRange, filters models.ReportFilters) (*models.ReportResult, error) {
	if !reportType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report type %q", reportType))
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "report queue unavailable")
	}

	report := &models.ReportResult{
		Type:      reportType,
		DateRange: dateRange,
		Filters:   filters,
		Status:    models.ReportStatusGenerating,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRepositoryUnavailable.Code, appErrors.ErrRepositoryUnavailable.Status, "failed to persist report placeholder")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: report.ID, Type: string(report.Type)}); err != nil {
		s.finalizeFailed(ctx, report, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report build"))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report build")
	}
	return report, nil
}

// HandleJob processes one queued build. Wired as the queue handler.
func (s *ReportService) HandleJob(ctx context.Context, job jobs.Job) error {
	report, err := s.reports.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if report.Status != models.ReportStatusGenerating {
		// Already finalized; a retry after a partial failure must not
		// overwrite a terminal state.
		return nil
	}
	_, err = s.process(ctx, report)
	return err
}

// Get returns a persisted report by id.
func (s *ReportService) Get(ctx context.Context, id string) (*models.ReportResult, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrRepositoryUnavailable.Code, appErrors.ErrRepositoryUnavailable.Status, "failed to load report")
	}
	return report, nil
}

// Delete removes a persisted report. Reports are otherwise immutable after
// finalization.
func (s *ReportService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.reports.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrRepositoryUnavailable.Code, appErrors.ErrRepositoryUnavailable.Status, "failed to delete report")
	}
	return nil
}

// PurgeFinalizedBefore deletes finalized reports older than the cutoff and
// returns how many rows were removed. Driven by the cleanup ticker together
// with export file expiry.
func (s *ReportService) PurgeFinalizedBefore(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	stale, err := s.reports.ListCompletedBefore(ctx, cutoff, limit)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrRepositoryUnavailable.Code, appErrors.ErrRepositoryUnavailable.Status, "failed to list stale reports")
	}
	purged := 0
	for _, report := range stale {
		if err := s.reports.Delete(ctx, report.ID); err != nil {
			s.logger.Warn("failed to purge stale report", zap.String("report_id", report.ID), zap.Error(err))
			continue
		}
		purged++
	}
	if purged > 0 {
		s.logger.Info("purged stale reports", zap.Int("count", purged))
	}
	return purged, nil
}

// ListRecent returns the most recent report invocations.
func (s *ReportService) ListRecent(ctx context.Context, limit int) ([]models.ReportResult, error) {
	reports, err := s.reports.ListRecent(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrRepositoryUnavailable.Code, appErrors.ErrRepositoryUnavailable.Status, "failed to list reports")
	}
	return reports, nil
}

// Preview computes a report body without persisting anything. Results are
// served through the cache when enabled; persisted builds never are, since
// every build must write its own result.
func (s *ReportService) Preview(ctx context.Context, reportType models.ReportType, dateRange models.DateRange, filters models.ReportFilters) (*AggregateResult, bool, error) {
	if !reportType.Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report type %q", reportType))
	}
	if err := dateRange.Validate(); err != nil {
		return nil, false, err
	}

	cacheKey := previewCacheKey(reportType, dateRange, filters)
	var cached AggregateResult
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	result, err := s.compute(ctx, reportType, dateRange, filters)
	if err != nil {
		return nil, false, err
	}
	if err := s.cache.Set(ctx, cacheKey, result, 0); err != nil {
		s.logger.Warn("preview cache write failed", zap.String("key", cacheKey), zap.Error(err))
	}
	return result, false, nil
}

func previewCacheKey(reportType models.ReportType, dateRange models.DateRange, filters models.ReportFilters) string {
	var builder strings.Builder
	builder.WriteString("report:preview:")
	builder.WriteString(string(reportType))
	builder.WriteByte(':')
	builder.WriteString(dateRange.Start.UTC().Format("2006-01-02"))
	builder.WriteByte(':')
	builder.WriteString(dateRange.End.UTC().Format("2006-01-02"))
	if filters.CourseID != "" {
		builder.WriteByte(':')
		builder.WriteString(filters.CourseID)
	}
	if len(filters.StudentIDs) > 0 {
		ids := append([]string(nil), filters.StudentIDs...)
		sort.Strings(ids)
		builder.WriteByte(':')
		builder.WriteString(strings.Join(ids, ","))
	}
	return builder.String()
}

func studentIDsOf(enrollments []models.Enrollment) []string {
	seen := make(map[string]struct{}, len(enrollments))
	ids := make([]string, 0, len(enrollments))
	for _, enrollment := range enrollments {
		if _, ok := seen[enrollment.StudentID]; ok {
			continue
		}
		seen[enrollment.StudentID] = struct{}{}
		ids = append(ids, enrollment.StudentID)
	}
	sort.Strings(ids)
	return ids
}
