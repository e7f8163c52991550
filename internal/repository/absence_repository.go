package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smounat/ecole-plus-api/internal/models"
)

// AbsenceRepository manages persistence for missed school days.
type AbsenceRepository struct {
	db *sqlx.DB
}

// NewAbsenceRepository constructs an AbsenceRepository.
func NewAbsenceRepository(db *sqlx.DB) *AbsenceRepository {
	return &AbsenceRepository{db: db}
}

// List returns absence details matching the provided filters.
func (r *AbsenceRepository) List(ctx context.Context, filter models.AbsenceFilter) ([]models.AbsenceDetail, int, error) {
	base := "FROM absences a JOIN students s ON s.id = a.student_id"
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.TeacherID != "" {
		base += " JOIN teacher_students ts ON ts.student_id = s.id"
		conditions = append(conditions, fmt.Sprintf("ts.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Justified != nil {
		conditions = append(conditions, fmt.Sprintf("a.justified = $%d", len(args)+1))
		args = append(args, *filter.Justified)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("a.absent_on >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("a.absent_on <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT a.id, a.student_id, a.absent_on, a.reason, a.justified, a.created_at, a.updated_at,
        s.first_name AS student_first_name, s.last_name AS student_last_name, s.class_level
        %s ORDER BY a.absent_on DESC LIMIT %d OFFSET %d`, base, size, offset)

	var absences []models.AbsenceDetail
	if err := r.db.SelectContext(ctx, &absences, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list absences: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count absences: %w", err)
	}
	return absences, total, nil
}

// FindByID fetches an absence by ID.
func (r *AbsenceRepository) FindByID(ctx context.Context, id string) (*models.Absence, error) {
	const query = `SELECT id, student_id, absent_on, reason, justified, created_at, updated_at FROM absences WHERE id = $1 LIMIT 1`
	var absence models.Absence
	if err := r.db.GetContext(ctx, &absence, query, id); err != nil {
		return nil, err
	}
	return &absence, nil
}

// ListByStudent returns all absences of a student ordered by date.
func (r *AbsenceRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Absence, error) {
	const query = `SELECT id, student_id, absent_on, reason, justified, created_at, updated_at FROM absences WHERE student_id = $1 ORDER BY absent_on DESC`
	var absences []models.Absence
	if err := r.db.SelectContext(ctx, &absences, query, studentID); err != nil {
		return nil, fmt.Errorf("list absences by student: %w", err)
	}
	return absences, nil
}

// Create inserts a new absence record.
func (r *AbsenceRepository) Create(ctx context.Context, absence *models.Absence) error {
	if absence.ID == "" {
		absence.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if absence.CreatedAt.IsZero() {
		absence.CreatedAt = now
	}
	absence.UpdatedAt = now
	const query = `INSERT INTO absences (id, student_id, absent_on, reason, justified, created_at, updated_at)
        VALUES (:id, :student_id, :absent_on, :reason, :justified, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, absence); err != nil {
		return fmt.Errorf("create absence: %w", err)
	}
	return nil
}

// Update modifies an existing absence.
func (r *AbsenceRepository) Update(ctx context.Context, absence *models.Absence) error {
	absence.UpdatedAt = time.Now().UTC()
	const query = `UPDATE absences SET absent_on = :absent_on, reason = :reason, justified = :justified, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, absence); err != nil {
		return fmt.Errorf("update absence: %w", err)
	}
	return nil
}

// Delete removes an absence record.
func (r *AbsenceRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM absences WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete absence: %w", err)
	}
	return nil
}

// CountByStudent returns the number of absences recorded for a student.
func (r *AbsenceRepository) CountByStudent(ctx context.Context, studentID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM absences WHERE student_id = $1", studentID); err != nil {
		return 0, fmt.Errorf("count absences by student: %w", err)
	}
	return total, nil
}

// SummaryByStudent returns justified and unjustified totals for a student.
func (r *AbsenceRepository) SummaryByStudent(ctx context.Context, studentID string) (*models.AbsenceSummary, error) {
	const query = `SELECT COUNT(*) AS total,
        COUNT(*) FILTER (WHERE justified) AS justified,
        COUNT(*) FILTER (WHERE NOT justified) AS unjustified
        FROM absences WHERE student_id = $1`
	var row struct {
		Total       int `db:"total"`
		Justified   int `db:"justified"`
		Unjustified int `db:"unjustified"`
	}
	if err := r.db.GetContext(ctx, &row, query, studentID); err != nil {
		return nil, fmt.Errorf("absence summary: %w", err)
	}
	return &models.AbsenceSummary{Total: row.Total, Justified: row.Justified, Unjustified: row.Unjustified}, nil
}

// CountByTeacherSince counts roster absences recorded after the given date.
func (r *AbsenceRepository) CountByTeacherSince(ctx context.Context, teacherID string, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM absences a
        JOIN teacher_students ts ON ts.student_id = a.student_id
        WHERE ts.teacher_id = $1 AND a.absent_on >= $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, teacherID, since); err != nil {
		return 0, fmt.Errorf("count absences by teacher: %w", err)
	}
	return total, nil
}

// CountByTeacher counts all absences across a teacher's roster.
func (r *AbsenceRepository) CountByTeacher(ctx context.Context, teacherID string) (int, error) {
	const query = `SELECT COUNT(*) FROM absences a
        JOIN teacher_students ts ON ts.student_id = a.student_id
        WHERE ts.teacher_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, teacherID); err != nil {
		return 0, fmt.Errorf("count absences by teacher: %w", err)
	}
	return total, nil
}

// Count returns the total number of absences.
func (r *AbsenceRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM absences"); err != nil {
		return 0, fmt.Errorf("count absences: %w", err)
	}
	return total, nil
}
