package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smounat/ecole-plus-api/internal/models"
)

// ProblemRepository manages persistence for the illustrated problem bank.
type ProblemRepository struct {
	db *sqlx.DB
}

// NewProblemRepository constructs a ProblemRepository.
func NewProblemRepository(db *sqlx.DB) *ProblemRepository {
	return &ProblemRepository{db: db}
}

// ListByLevel returns the problems of a difficulty level in creation order.
func (r *ProblemRepository) ListByLevel(ctx context.Context, level string) ([]models.Problem, error) {
	const query = `SELECT id, question, image_path, answer, level, created_at FROM problems WHERE level = $1 ORDER BY created_at ASC`
	var problems []models.Problem
	if err := r.db.SelectContext(ctx, &problems, query, level); err != nil {
		return nil, fmt.Errorf("list problems by level: %w", err)
	}
	return problems, nil
}

// FindByID fetches a problem by ID.
func (r *ProblemRepository) FindByID(ctx context.Context, id string) (*models.Problem, error) {
	const query = `SELECT id, question, image_path, answer, level, created_at FROM problems WHERE id = $1 LIMIT 1`
	var problem models.Problem
	if err := r.db.GetContext(ctx, &problem, query, id); err != nil {
		return nil, err
	}
	return &problem, nil
}

// Random returns a random problem of the given level.
func (r *ProblemRepository) Random(ctx context.Context, level string) (*models.Problem, error) {
	const query = `SELECT id, question, image_path, answer, level, created_at FROM problems WHERE level = $1 ORDER BY RANDOM() LIMIT 1`
	var problem models.Problem
	if err := r.db.GetContext(ctx, &problem, query, level); err != nil {
		return nil, err
	}
	return &problem, nil
}

// Create inserts a new problem.
func (r *ProblemRepository) Create(ctx context.Context, problem *models.Problem) error {
	if problem.ID == "" {
		problem.ID = uuid.NewString()
	}
	if problem.CreatedAt.IsZero() {
		problem.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO problems (id, question, image_path, answer, level, created_at)
        VALUES (:id, :question, :image_path, :answer, :level, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, problem); err != nil {
		return fmt.Errorf("create problem: %w", err)
	}
	return nil
}

// Delete removes a problem from the bank.
func (r *ProblemRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM problems WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete problem: %w", err)
	}
	return nil
}
