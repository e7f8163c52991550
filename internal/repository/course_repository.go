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

// CourseRepository manages persistence for courses and their materials.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns course details matching the provided filters.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	base := "FROM courses c"
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("c.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.ClassLevel != "" {
		conditions = append(conditions, fmt.Sprintf("c.class_level = $%d", len(args)+1))
		args = append(args, filter.ClassLevel)
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

	query := fmt.Sprintf(`SELECT c.id, c.teacher_id, c.name, c.description, c.class_level, c.material_path, c.created_at, c.updated_at,
        (SELECT COUNT(*) FROM quizzes q WHERE q.course_id = c.id) AS quiz_count
        %s ORDER BY c.created_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID fetches a course by ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, teacher_id, name, description, class_level, material_path, created_at, updated_at FROM courses WHERE id = $1 LIMIT 1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FirstByClassLevel returns the earliest created course for a class level.
// Used as the course of record when awarding class-wide badges.
func (r *CourseRepository) FirstByClassLevel(ctx context.Context, classLevel string) (*models.Course, error) {
	const query = `SELECT id, teacher_id, name, description, class_level, material_path, created_at, updated_at FROM courses WHERE class_level = $1 ORDER BY created_at ASC LIMIT 1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, classLevel); err != nil {
		return nil, err
	}
	return &course, nil
}

// ListByClassLevel returns all courses available to a class level.
func (r *CourseRepository) ListByClassLevel(ctx context.Context, classLevel string) ([]models.CourseDetail, error) {
	const query = `SELECT c.id, c.teacher_id, c.name, c.description, c.class_level, c.material_path, c.created_at, c.updated_at,
        (SELECT COUNT(*) FROM quizzes q WHERE q.course_id = c.id) AS quiz_count
        FROM courses c WHERE c.class_level = $1 ORDER BY c.created_at ASC`
	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, classLevel); err != nil {
		return nil, fmt.Errorf("list courses by class: %w", err)
	}
	return courses, nil
}

// Create inserts a new course record.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	const query = `INSERT INTO courses (id, teacher_id, name, description, class_level, material_path, created_at, updated_at)
        VALUES (:id, :teacher_id, :name, :description, :class_level, :material_path, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies an existing course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET name = :name, description = :description, class_level = :class_level, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// SetMaterialPath records where the uploaded course material is stored.
func (r *CourseRepository) SetMaterialPath(ctx context.Context, id, path string) error {
	const query = `UPDATE courses SET material_path = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, path, time.Now().UTC()); err != nil {
		return fmt.Errorf("set material path: %w", err)
	}
	return nil
}

// Delete removes a course record.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM courses WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

// CountByTeacher returns the number of courses owned by a teacher.
func (r *CourseRepository) CountByTeacher(ctx context.Context, teacherID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM courses WHERE teacher_id = $1", teacherID); err != nil {
		return 0, fmt.Errorf("count courses by teacher: %w", err)
	}
	return total, nil
}

// Count returns the total number of courses.
func (r *CourseRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM courses"); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return total, nil
}
