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

// GradeRepository manages persistence for subject marks.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// List returns grade details matching the provided filters.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, int, error) {
	base := "FROM grades g JOIN students s ON s.id = g.student_id"
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("g.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("g.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Subject != "" {
		conditions = append(conditions, fmt.Sprintf("g.subject = $%d", len(args)+1))
		args = append(args, filter.Subject)
	}
	if filter.ClassLevel != "" {
		conditions = append(conditions, fmt.Sprintf("s.class_level = $%d", len(args)+1))
		args = append(args, filter.ClassLevel)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.first_name) LIKE $%d OR LOWER(s.last_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.MinValue != nil {
		conditions = append(conditions, fmt.Sprintf("g.grade_value >= $%d", len(args)+1))
		args = append(args, *filter.MinValue)
	}
	if filter.MaxValue != nil {
		conditions = append(conditions, fmt.Sprintf("g.grade_value <= $%d", len(args)+1))
		args = append(args, *filter.MaxValue)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("g.graded_at >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("g.graded_at <= $%d", len(args)+1))
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

	query := fmt.Sprintf(`SELECT g.id, g.student_id, g.teacher_id, g.subject, g.grade_value, g.graded_at, g.created_at, g.updated_at,
        s.first_name AS student_first_name, s.last_name AS student_last_name, s.class_level
        %s ORDER BY g.graded_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list grades: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count grades: %w", err)
	}
	return grades, total, nil
}

// FindByID fetches a grade by ID.
func (r *GradeRepository) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	const query = `SELECT id, student_id, teacher_id, subject, grade_value, graded_at, created_at, updated_at FROM grades WHERE id = $1 LIMIT 1`
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, id); err != nil {
		return nil, err
	}
	return &grade, nil
}

// ListByStudent returns all grades of a student ordered by date.
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error) {
	const query = `SELECT id, student_id, teacher_id, subject, grade_value, graded_at, created_at, updated_at FROM grades WHERE student_id = $1 ORDER BY graded_at DESC`
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, studentID); err != nil {
		return nil, fmt.Errorf("list grades by student: %w", err)
	}
	return grades, nil
}

// Create inserts a new grade record.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now
	const query = `INSERT INTO grades (id, student_id, teacher_id, subject, grade_value, graded_at, created_at, updated_at)
        VALUES (:id, :student_id, :teacher_id, :subject, :grade_value, :graded_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// Update modifies an existing grade.
func (r *GradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	grade.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grades SET subject = :subject, grade_value = :grade_value, graded_at = :graded_at, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	return nil
}

// Delete removes a grade record.
func (r *GradeRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM grades WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete grade: %w", err)
	}
	return nil
}

// SubjectAverages aggregates a teacher's grades per subject.
func (r *GradeRepository) SubjectAverages(ctx context.Context, teacherID string) ([]models.SubjectAverage, error) {
	const query = `SELECT subject, AVG(grade_value) AS average, COUNT(*) AS count FROM grades WHERE teacher_id = $1 GROUP BY subject ORDER BY subject ASC`
	var averages []models.SubjectAverage
	if err := r.db.SelectContext(ctx, &averages, query, teacherID); err != nil {
		return nil, fmt.Errorf("subject averages: %w", err)
	}
	return averages, nil
}

// ClassAverages aggregates grades per class level school wide.
func (r *GradeRepository) ClassAverages(ctx context.Context) ([]models.ClassAverage, error) {
	const query = `SELECT s.class_level, AVG(g.grade_value) AS average
        FROM grades g JOIN students s ON s.id = g.student_id
        GROUP BY s.class_level ORDER BY s.class_level ASC`
	var averages []models.ClassAverage
	if err := r.db.SelectContext(ctx, &averages, query); err != nil {
		return nil, fmt.Errorf("class averages: %w", err)
	}
	return averages, nil
}

// CountByTeacher returns the number of grades recorded by a teacher and their mean.
func (r *GradeRepository) CountByTeacher(ctx context.Context, teacherID string) (int, float64, error) {
	const query = `SELECT COUNT(*) AS count, COALESCE(AVG(grade_value), 0) AS average FROM grades WHERE teacher_id = $1`
	var row struct {
		Count   int     `db:"count"`
		Average float64 `db:"average"`
	}
	if err := r.db.GetContext(ctx, &row, query, teacherID); err != nil {
		return 0, 0, fmt.Errorf("count grades by teacher: %w", err)
	}
	return row.Count, row.Average, nil
}

// Count returns the total number of grades.
func (r *GradeRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM grades"); err != nil {
		return 0, fmt.Errorf("count grades: %w", err)
	}
	return total, nil
}
