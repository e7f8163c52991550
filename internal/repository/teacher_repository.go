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

// TeacherRepository manages persistence for teaching staff records.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers joined with their account identity.
func (r *TeacherRepository) List(ctx context.Context, search string, page, pageSize int) ([]models.TeacherDetail, int, error) {
	base := "FROM teachers t JOIN users u ON u.id = t.user_id WHERE 1=1"
	var args []interface{}
	if search != "" {
		base += fmt.Sprintf(" AND (LOWER(u.full_name) LIKE $%d OR LOWER(t.specialty) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(search)+"%")
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT t.id, t.user_id, t.specialty, t.created_at, t.updated_at, u.full_name, u.email
        %s ORDER BY u.full_name ASC LIMIT %d OFFSET %d`, base, pageSize, offset)

	var teachers []models.TeacherDetail
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}

// FindByID fetches a teacher detail by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.TeacherDetail, error) {
	const query = `SELECT t.id, t.user_id, t.specialty, t.created_at, t.updated_at, u.full_name, u.email
        FROM teachers t JOIN users u ON u.id = t.user_id WHERE t.id = $1 LIMIT 1`
	var teacher models.TeacherDetail
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByUserID fetches the teacher linked to a user account.
func (r *TeacherRepository) FindByUserID(ctx context.Context, userID string) (*models.TeacherDetail, error) {
	const query = `SELECT t.id, t.user_id, t.specialty, t.created_at, t.updated_at, u.full_name, u.email
        FROM teachers t JOIN users u ON u.id = t.user_id WHERE t.user_id = $1 LIMIT 1`
	var teacher models.TeacherDetail
	if err := r.db.GetContext(ctx, &teacher, query, userID); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// Create inserts a new teacher record.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now
	const query = `INSERT INTO teachers (id, user_id, specialty, created_at, updated_at) VALUES (:id, :user_id, :specialty, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update modifies an existing teacher.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teachers SET specialty = :specialty, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}

// Delete removes a teacher record.
func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM teachers WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	return nil
}

// Count returns the total number of teachers.
func (r *TeacherRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM teachers"); err != nil {
		return 0, fmt.Errorf("count teachers: %w", err)
	}
	return total, nil
}
