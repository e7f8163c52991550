package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smounat/ecole-plus-api/internal/dto"
	"github.com/smounat/ecole-plus-api/internal/models"
)

// StudentRepository manages persistence for pupil records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students s"
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.TeacherID != "" {
		base += " JOIN teacher_students ts ON ts.student_id = s.id"
		conditions = append(conditions, fmt.Sprintf("ts.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.ParentUserID != "" {
		conditions = append(conditions, fmt.Sprintf("s.parent_user_id = $%d", len(args)+1))
		args = append(args, filter.ParentUserID)
	}
	if filter.ClassLevel != "" {
		conditions = append(conditions, fmt.Sprintf("s.class_level = $%d", len(args)+1))
		args = append(args, filter.ClassLevel)
	}
	if filter.Name != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.first_name) LIKE $%d OR LOWER(s.last_name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Name)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"last_name":   "s.last_name",
		"class_level": "s.class_level",
		"created_at":  "s.created_at",
	}
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "s.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.id, s.first_name, s.last_name, s.birth_date, s.class_level, s.user_id, s.parent_user_id, s.parent_email, s.created_at, s.updated_at
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(DISTINCT s.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, first_name, last_name, birth_date, class_level, user_id, parent_user_id, parent_email, created_at, updated_at FROM students WHERE id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByUserID fetches the student linked to a pupil account.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	const query = `SELECT id, first_name, last_name, birth_date, class_level, user_id, parent_user_id, parent_email, created_at, updated_at FROM students WHERE user_id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, userID); err != nil {
		return nil, err
	}
	return &student, nil
}

// ListByParentUser returns the children of a parent account.
func (r *StudentRepository) ListByParentUser(ctx context.Context, parentUserID string) ([]models.Student, error) {
	const query = `SELECT id, first_name, last_name, birth_date, class_level, user_id, parent_user_id, parent_email, created_at, updated_at FROM students WHERE parent_user_id = $1 ORDER BY last_name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, parentUserID); err != nil {
		return nil, fmt.Errorf("list students by parent: %w", err)
	}
	return students, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	const query = `INSERT INTO students (id, first_name, last_name, birth_date, class_level, user_id, parent_user_id, parent_email, created_at, updated_at)
        VALUES (:id, :first_name, :last_name, :birth_date, :class_level, :user_id, :parent_user_id, :parent_email, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET first_name = :first_name, last_name = :last_name, birth_date = :birth_date, class_level = :class_level, user_id = :user_id, parent_user_id = :parent_user_id, parent_email = :parent_email, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Delete removes a student record.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM students WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

// AssignTeacher links a student to a teacher's roster. Re-assigning an
// existing link is a no-op.
func (r *StudentRepository) AssignTeacher(ctx context.Context, studentID, teacherID string) error {
	const query = `INSERT INTO teacher_students (teacher_id, student_id, created_at) VALUES ($1, $2, $3) ON CONFLICT (teacher_id, student_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, teacherID, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("assign teacher: %w", err)
	}
	return nil
}

// RemoveTeacher unlinks a student from a teacher's roster.
func (r *StudentRepository) RemoveTeacher(ctx context.Context, studentID, teacherID string) error {
	const query = `DELETE FROM teacher_students WHERE teacher_id = $1 AND student_id = $2`
	if _, err := r.db.ExecContext(ctx, query, teacherID, studentID); err != nil {
		return fmt.Errorf("remove teacher: %w", err)
	}
	return nil
}

// TeachersOf returns the teachers assigned to a student.
func (r *StudentRepository) TeachersOf(ctx context.Context, studentID string) ([]models.TeacherDetail, error) {
	const query = `SELECT t.id, t.user_id, t.specialty, t.created_at, t.updated_at, u.full_name, u.email
        FROM teachers t
        JOIN users u ON u.id = t.user_id
        JOIN teacher_students ts ON ts.teacher_id = t.id
        WHERE ts.student_id = $1
        ORDER BY u.full_name ASC`
	var teachers []models.TeacherDetail
	if err := r.db.SelectContext(ctx, &teachers, query, studentID); err != nil {
		return nil, fmt.Errorf("list teachers of student: %w", err)
	}
	return teachers, nil
}

// IsOnRoster reports whether a student belongs to a teacher's roster.
func (r *StudentRepository) IsOnRoster(ctx context.Context, studentID, teacherID string) (bool, error) {
	const query = `SELECT 1 FROM teacher_students WHERE teacher_id = $1 AND student_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, teacherID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check roster: %w", err)
	}
	return true, nil
}

// Count returns the total number of students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students"); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// CountPerClass returns roster sizes per class level for a teacher.
func (r *StudentRepository) CountPerClass(ctx context.Context, teacherID string) ([]dto.ClassCount, error) {
	const query = `SELECT s.class_level, COUNT(*) AS total
        FROM students s
        JOIN teacher_students ts ON ts.student_id = s.id
        WHERE ts.teacher_id = $1
        GROUP BY s.class_level
        ORDER BY s.class_level ASC`
	var counts []dto.ClassCount
	if err := r.db.SelectContext(ctx, &counts, query, teacherID); err != nil {
		return nil, fmt.Errorf("count students per class: %w", err)
	}
	return counts, nil
}
