package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tutor-ops-api/internal/models"
)

// ReportRepository persists report results.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const reportColumns = `id, type, date_range, filters, status, summary, columns, details, buckets, error_message, generated_at, created_at`

// Create inserts a new report row with generated defaults.
func (r *ReportRepository) Create(ctx context.Context, report *models.ReportResult) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.Status == "" {
		report.Status = models.ReportStatusGenerating
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO reports (id, type, date_range, filters, status, summary, columns, details, buckets, error_message, generated_at, created_at)
VALUES (:id, :type, :date_range, :filters, :status, :summary, :columns, :details, :buckets, :error_message, :generated_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

// GetByID returns a report row by its identifier.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.ReportResult, error) {
	query := fmt.Sprintf("SELECT %s FROM reports WHERE id = $1", reportColumns)
	var report models.ReportResult
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return &report, nil
}

// UpdateReportParams defines the fields a finalization may touch.
type UpdateReportParams struct {
	Status       *models.ReportStatus
	Summary      models.Summary
	Columns      models.StringList
	Details      models.DetailRows
	Buckets      models.PeriodBuckets
	ErrorMessage *string
	GeneratedAt  *time.Time
}

// Update persists the provided changes for a report row.
func (r *ReportRepository) Update(ctx context.Context, id string, params UpdateReportParams) error {
	set := make([]string, 0, 7)
	args := make([]interface{}, 0, 8)
	argPos := 1

	if params.Status != nil {
		set = append(set, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *params.Status)
		argPos++
	}
	if params.Summary != nil {
		set = append(set, fmt.Sprintf("summary = $%d", argPos))
		args = append(args, params.Summary)
		argPos++
	}
	if params.Columns != nil {
		set = append(set, fmt.Sprintf("columns = $%d", argPos))
		args = append(args, params.Columns)
		argPos++
	}
	if params.Details != nil {
		set = append(set, fmt.Sprintf("details = $%d", argPos))
		args = append(args, params.Details)
		argPos++
	}
	if params.Buckets != nil {
		set = append(set, fmt.Sprintf("buckets = $%d", argPos))
		args = append(args, params.Buckets)
		argPos++
	}
	if params.ErrorMessage != nil {
		set = append(set, fmt.Sprintf("error_message = $%d", argPos))
		args = append(args, *params.ErrorMessage)
		argPos++
	}
	if params.GeneratedAt != nil {
		set = append(set, fmt.Sprintf("generated_at = $%d", argPos))
		args = append(args, *params.GeneratedAt)
		argPos++
	}

	if len(set) == 0 {
		return nil
	}

	query := fmt.Sprintf("UPDATE reports SET %s WHERE id = $%d", strings.Join(set, ", "), argPos)
	args = append(args, id)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	return nil
}

// Delete removes a report row. Completed reports are immutable otherwise.
func (r *ReportRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM reports WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	return nil
}

// ListRecent returns the most recent report rows.
func (r *ReportRepository) ListRecent(ctx context.Context, limit int) ([]models.ReportResult, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf("SELECT %s FROM reports ORDER BY created_at DESC LIMIT $1", reportColumns)
	var reports []models.ReportResult
	if err := r.db.SelectContext(ctx, &reports, query, limit); err != nil {
		return nil, fmt.Errorf("list recent reports: %w", err)
	}
	return reports, nil
}

// ListCompletedBefore fetches completed or failed reports finalized before the
// cutoff (used by export cleanup).
func (r *ReportRepository) ListCompletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportResult, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s FROM reports WHERE status IN ('COMPLETED', 'FAILED') AND generated_at < $1 ORDER BY generated_at ASC LIMIT $2`, reportColumns)
	var reports []models.ReportResult
	if err := r.db.SelectContext(ctx, &reports, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list finalized reports: %w", err)
	}
	return reports, nil
}
