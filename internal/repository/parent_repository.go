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

// ParentRepository manages persistence for guardian contact records.
type ParentRepository struct {
	db *sqlx.DB
}

// NewParentRepository constructs a ParentRepository.
func NewParentRepository(db *sqlx.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

// List returns parents matching the optional search term.
func (r *ParentRepository) List(ctx context.Context, search string, page, pageSize int) ([]models.Parent, int, error) {
	base := "FROM parents WHERE 1=1"
	var args []interface{}
	if search != "" {
		base += fmt.Sprintf(" AND (LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, "%"+strings.ToLower(search)+"%")
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT id, user_id, name, phone, email, student_id, created_at, updated_at %s ORDER BY name ASC LIMIT %d OFFSET %d`, base, pageSize, offset)

	var parents []models.Parent
	if err := r.db.SelectContext(ctx, &parents, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list parents: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count parents: %w", err)
	}
	return parents, total, nil
}

// FindByID fetches a parent by ID.
func (r *ParentRepository) FindByID(ctx context.Context, id string) (*models.Parent, error) {
	const query = `SELECT id, user_id, name, phone, email, student_id, created_at, updated_at FROM parents WHERE id = $1 LIMIT 1`
	var parent models.Parent
	if err := r.db.GetContext(ctx, &parent, query, id); err != nil {
		return nil, err
	}
	return &parent, nil
}

// FindByUserID fetches the parent linked to a user account.
func (r *ParentRepository) FindByUserID(ctx context.Context, userID string) (*models.Parent, error) {
	const query = `SELECT id, user_id, name, phone, email, student_id, created_at, updated_at FROM parents WHERE user_id = $1 LIMIT 1`
	var parent models.Parent
	if err := r.db.GetContext(ctx, &parent, query, userID); err != nil {
		return nil, err
	}
	return &parent, nil
}

// Create inserts a new parent record.
func (r *ParentRepository) Create(ctx context.Context, parent *models.Parent) error {
	if parent.ID == "" {
		parent.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if parent.CreatedAt.IsZero() {
		parent.CreatedAt = now
	}
	parent.UpdatedAt = now
	const query = `INSERT INTO parents (id, user_id, name, phone, email, student_id, created_at, updated_at) VALUES (:id, :user_id, :name, :phone, :email, :student_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, parent); err != nil {
		return fmt.Errorf("create parent: %w", err)
	}
	return nil
}

// Update modifies an existing parent.
func (r *ParentRepository) Update(ctx context.Context, parent *models.Parent) error {
	parent.UpdatedAt = time.Now().UTC()
	const query = `UPDATE parents SET name = :name, phone = :phone, email = :email, student_id = :student_id, user_id = :user_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, parent); err != nil {
		return fmt.Errorf("update parent: %w", err)
	}
	return nil
}

// Delete removes a parent record.
func (r *ParentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM parents WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete parent: %w", err)
	}
	return nil
}

// Count returns the total number of parents.
func (r *ParentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM parents"); err != nil {
		return 0, fmt.Errorf("count parents: %w", err)
	}
	return total, nil
}
