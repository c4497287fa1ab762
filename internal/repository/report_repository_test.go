package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-ops-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReportRepositoryCreateAssignsDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO reports")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	report := &models.ReportResult{
		Type: models.ReportTypeAttendance,
		DateRange: models.DateRange{
			Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		},
	}
	require.NoError(t, repo.Create(context.Background(), report))
	require.NotEmpty(t, report.ID)
	require.Equal(t, models.ReportStatusGenerating, report.Status)
	require.False(t, report.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	rows := sqlmock.NewRows([]string{"id", "type", "status", "summary", "columns", "details", "buckets", "created_at"}).
		AddRow("rep-1", "attendance", "COMPLETED",
			[]byte(`{"students": 2}`),
			[]byte(`["student_id"]`),
			[]byte(`[{"student_id":"stu-a"}]`),
			[]byte(`[{"period":"2026-01","metrics":{"sessions":4}}]`),
			time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, type, date_range, filters, status")).
		WithArgs("rep-1").
		WillReturnRows(rows)

	report, err := repo.GetByID(context.Background(), "rep-1")
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusCompleted, report.Status)
	require.Equal(t, 2.0, report.Summary["students"])
	require.Len(t, report.Details, 1)
	require.Equal(t, "2026-01", report.Buckets[0].Period)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateBuildsDynamicSet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE reports SET status = $1, summary = $2 WHERE id = $3")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	completed := models.ReportStatusCompleted
	err := repo.Update(context.Background(), "rep-1", UpdateReportParams{
		Status:  &completed,
		Summary: models.Summary{"students": 2},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateNoFieldsIsNoop(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	require.NoError(t, repo.Update(context.Background(), "rep-1", UpdateReportParams{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reports WHERE id = $1")).
		WithArgs("rep-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "rep-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
