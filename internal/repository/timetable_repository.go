package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smounat/ecole-plus-api/internal/models"
)

// TimetableRepository manages persistence for the weekly timetable.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a TimetableRepository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// List returns timetable slots, optionally filtered by day.
func (r *TimetableRepository) List(ctx context.Context, day string) ([]models.TimetableSlot, error) {
	query := `SELECT id, day, start_time, end_time, subject, room, teacher_id, created_at, updated_at FROM timetable_slots`
	var args []interface{}
	if day != "" {
		query += " WHERE day = $1"
		args = append(args, day)
	}
	query += " ORDER BY day ASC, start_time ASC"

	var slots []models.TimetableSlot
	if err := r.db.SelectContext(ctx, &slots, query, args...); err != nil {
		return nil, fmt.Errorf("list timetable slots: %w", err)
	}
	return slots, nil
}

// FindByID fetches a timetable slot by ID.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.TimetableSlot, error) {
	const query = `SELECT id, day, start_time, end_time, subject, room, teacher_id, created_at, updated_at FROM timetable_slots WHERE id = $1 LIMIT 1`
	var slot models.TimetableSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create inserts a new timetable slot.
func (r *TimetableRepository) Create(ctx context.Context, slot *models.TimetableSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = now
	}
	slot.UpdatedAt = now
	const query = `INSERT INTO timetable_slots (id, day, start_time, end_time, subject, room, teacher_id, created_at, updated_at)
        VALUES (:id, :day, :start_time, :end_time, :subject, :room, :teacher_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create timetable slot: %w", err)
	}
	return nil
}

// Update modifies an existing timetable slot.
func (r *TimetableRepository) Update(ctx context.Context, slot *models.TimetableSlot) error {
	slot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE timetable_slots SET day = :day, start_time = :start_time, end_time = :end_time, subject = :subject, room = :room, teacher_id = :teacher_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("update timetable slot: %w", err)
	}
	return nil
}

// Delete removes a timetable slot.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM timetable_slots WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete timetable slot: %w", err)
	}
	return nil
}
