package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/tutor-ops-api/internal/models"
)

// AttendanceRepository reads immutable attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// List returns attendance records matching the filter, ordered by date then id.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	where := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	argPos := 1

	if len(filter.StudentIDs) > 0 {
		where = append(where, fmt.Sprintf("student_id = ANY($%d)", argPos))
		args = append(args, pq.Array(filter.StudentIDs))
		argPos++
	}
	if !filter.From.IsZero() {
		where = append(where, fmt.Sprintf("date >= $%d", argPos))
		args = append(args, filter.From)
		argPos++
	}
	if !filter.To.IsZero() {
		where = append(where, fmt.Sprintf("date <= $%d", argPos))
		args = append(args, filter.To)
	}

	query := "SELECT id, student_id, session_id, date, status, performance_score FROM attendance"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date ASC, id ASC"

	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}
