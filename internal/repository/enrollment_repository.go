package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/tutor-ops-api/internal/models"
)

// EnrollmentRepository reads enrollment records.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `id, student_id, student_name, course_id, fee_paid, total_units, completed_units, start_date, end_date, status`

// List returns enrollments matching the filter, ordered by id.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, error) {
	where := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	argPos := 1

	if len(filter.StudentIDs) > 0 {
		where = append(where, fmt.Sprintf("student_id = ANY($%d)", argPos))
		args = append(args, pq.Array(filter.StudentIDs))
		argPos++
	}
	if filter.CourseID != "" {
		where = append(where, fmt.Sprintf("course_id = $%d", argPos))
		args = append(args, filter.CourseID)
		argPos++
	}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argPos))
		args = append(args, filter.Status)
	}

	query := fmt.Sprintf("SELECT %s FROM enrollments", enrollmentColumns)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id ASC"

	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return enrollments, nil
}

// GetByIDs returns the enrollments for the given identifiers, ordered by id.
func (r *EnrollmentRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Enrollment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM enrollments WHERE id = ANY($1) ORDER BY id ASC", enrollmentColumns)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("get enrollments by ids: %w", err)
	}
	return enrollments, nil
}
