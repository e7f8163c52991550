package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smounat/ecole-plus-api/internal/models"
)

// BadgeRepository manages persistence for achievement badges.
type BadgeRepository struct {
	db *sqlx.DB
}

// NewBadgeRepository constructs a BadgeRepository.
func NewBadgeRepository(db *sqlx.DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// CreateIfAbsent inserts the badge unless one already exists for the same
// (student, course, title) triple. The unique constraint makes the award
// idempotent under concurrent submissions. Returns true when a row was
// actually inserted.
func (r *BadgeRepository) CreateIfAbsent(ctx context.Context, badge *models.Badge) (bool, error) {
	if badge.ID == "" {
		badge.ID = uuid.NewString()
	}
	if badge.AwardedAt.IsZero() {
		badge.AwardedAt = time.Now().UTC()
	}
	const query = `INSERT INTO badges (id, student_id, course_id, title, awarded_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (student_id, course_id, title) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, badge.ID, badge.StudentID, badge.CourseID, badge.Title, badge.AwardedAt)
	if err != nil {
		return false, fmt.Errorf("create badge: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("badge rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListByStudent returns all badges earned by a student, newest first.
func (r *BadgeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Badge, error) {
	const query = `SELECT id, student_id, course_id, title, awarded_at FROM badges WHERE student_id = $1 ORDER BY awarded_at DESC`
	var badges []models.Badge
	if err := r.db.SelectContext(ctx, &badges, query, studentID); err != nil {
		return nil, fmt.Errorf("list badges by student: %w", err)
	}
	return badges, nil
}

// CountByStudent returns the number of badges a student holds.
func (r *BadgeRepository) CountByStudent(ctx context.Context, studentID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM badges WHERE student_id = $1", studentID); err != nil {
		return 0, fmt.Errorf("count badges by student: %w", err)
	}
	return total, nil
}
