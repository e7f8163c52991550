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

// TransportRepository manages persistence for student transport records.
type TransportRepository struct {
	db *sqlx.DB
}

// NewTransportRepository constructs a TransportRepository.
func NewTransportRepository(db *sqlx.DB) *TransportRepository {
	return &TransportRepository{db: db}
}

// List returns transport details, optionally filtered by mode.
func (r *TransportRepository) List(ctx context.Context, mode string, page, pageSize int) ([]models.TransportDetail, int, error) {
	base := "FROM transports t JOIN students s ON s.id = t.student_id"
	conditions := []string{"1=1"}
	var args []interface{}
	if mode != "" {
		conditions = append(conditions, fmt.Sprintf("t.mode = $%d", len(args)+1))
		args = append(args, mode)
	}
	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT t.id, t.student_id, t.mode, t.driver, t.bus_number, t.latitude, t.longitude, t.created_at, t.updated_at,
        s.first_name AS student_first_name, s.last_name AS student_last_name, s.class_level
        %s ORDER BY t.created_at DESC LIMIT %d OFFSET %d`, base, pageSize, offset)

	var transports []models.TransportDetail
	if err := r.db.SelectContext(ctx, &transports, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list transports: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count transports: %w", err)
	}
	return transports, total, nil
}

// FindByID fetches a transport record by ID.
func (r *TransportRepository) FindByID(ctx context.Context, id string) (*models.Transport, error) {
	const query = `SELECT id, student_id, mode, driver, bus_number, latitude, longitude, created_at, updated_at FROM transports WHERE id = $1 LIMIT 1`
	var transport models.Transport
	if err := r.db.GetContext(ctx, &transport, query, id); err != nil {
		return nil, err
	}
	return &transport, nil
}

// FindByStudentID fetches the transport record of a student.
func (r *TransportRepository) FindByStudentID(ctx context.Context, studentID string) (*models.Transport, error) {
	const query = `SELECT id, student_id, mode, driver, bus_number, latitude, longitude, created_at, updated_at FROM transports WHERE student_id = $1 LIMIT 1`
	var transport models.Transport
	if err := r.db.GetContext(ctx, &transport, query, studentID); err != nil {
		return nil, err
	}
	return &transport, nil
}

// ListByBusNumber returns all transport records sharing a bus.
func (r *TransportRepository) ListByBusNumber(ctx context.Context, busNumber string) ([]models.Transport, error) {
	const query = `SELECT id, student_id, mode, driver, bus_number, latitude, longitude, created_at, updated_at FROM transports WHERE bus_number = $1`
	var transports []models.Transport
	if err := r.db.SelectContext(ctx, &transports, query, busNumber); err != nil {
		return nil, fmt.Errorf("list transports by bus: %w", err)
	}
	return transports, nil
}

// Create inserts a new transport record.
func (r *TransportRepository) Create(ctx context.Context, transport *models.Transport) error {
	if transport.ID == "" {
		transport.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if transport.CreatedAt.IsZero() {
		transport.CreatedAt = now
	}
	transport.UpdatedAt = now
	const query = `INSERT INTO transports (id, student_id, mode, driver, bus_number, latitude, longitude, created_at, updated_at)
        VALUES (:id, :student_id, :mode, :driver, :bus_number, :latitude, :longitude, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, transport); err != nil {
		return fmt.Errorf("create transport: %w", err)
	}
	return nil
}

// Update modifies an existing transport record.
func (r *TransportRepository) Update(ctx context.Context, transport *models.Transport) error {
	transport.UpdatedAt = time.Now().UTC()
	const query = `UPDATE transports SET mode = :mode, driver = :driver, bus_number = :bus_number, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, transport); err != nil {
		return fmt.Errorf("update transport: %w", err)
	}
	return nil
}

// UpdatePosition overwrites the stored coordinates. Last writer wins.
func (r *TransportRepository) UpdatePosition(ctx context.Context, id string, lat, lng float64) error {
	const query = `UPDATE transports SET latitude = $2, longitude = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, lat, lng, time.Now().UTC()); err != nil {
		return fmt.Errorf("update transport position: %w", err)
	}
	return nil
}

// Delete removes a transport record.
func (r *TransportRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM transports WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete transport: %w", err)
	}
	return nil
}

// Count returns the total number of transport records.
func (r *TransportRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM transports"); err != nil {
		return 0, fmt.Errorf("count transports: %w", err)
	}
	return total, nil
}
