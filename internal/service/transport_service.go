package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/smounat/ecole-plus-api/internal/models"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
	"github.com/smounat/ecole-plus-api/pkg/notify"
)

type transportRepo interface {
	List(ctx context.Context, mode string, page, pageSize int) ([]models.TransportDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Transport, error)
	FindByStudentID(ctx context.Context, studentID string) (*models.Transport, error)
	ListByBusNumber(ctx context.Context, busNumber string) ([]models.Transport, error)
	Create(ctx context.Context, transport *models.Transport) error
	Update(ctx context.Context, transport *models.Transport) error
	UpdatePosition(ctx context.Context, id string, lat, lng float64) error
	Delete(ctx context.Context, id string) error
}

type transportStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type transportNotifier interface {
	Notify(ctx context.Context, notification *models.Notification, email *notify.EmailMessage, sms *notify.SMSMessage) error
}

// CreateTransportRequest registers how a student travels to school.
type CreateTransportRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	Mode      string `json:"mode" validate:"required"`
	Driver    string `json:"driver"`
	BusNumber string `json:"bus_number"`
}

// UpdatePositionRequest carries a periodic GPS ping. Both coordinates are
// pointers so that a missing field can be told apart from zero.
type UpdatePositionRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// TransportService manages transport records and position updates.
type TransportService struct {
	repo      transportRepo
	students  transportStudentReader
	notifier  transportNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTransportService constructs a TransportService.
func NewTransportService(repo transportRepo, students transportStudentReader, notifier transportNotifier, validate *validator.Validate, logger *zap.Logger) *TransportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransportService{repo: repo, students: students, notifier: notifier, validator: validate, logger: logger}
}

// List returns transport details with pagination.
func (s *TransportService) List(ctx context.Context, mode string, page, pageSize int) ([]models.TransportDetail, int, error) {
	if mode != "" && !models.ValidTransportMode(mode) {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "unknown transport mode")
	}
	transports, total, err := s.repo.List(ctx, mode, page, pageSize)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list transports")
	}
	return transports, total, nil
}

// Get returns the transport record of a student.
func (s *TransportService) Get(ctx context.Context, studentID string) (*models.Transport, error) {
	transport, err := s.repo.FindByStudentID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "transport record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transport")
	}
	return transport, nil
}

// Create registers a transport record for a student.
func (s *TransportService) Create(ctx context.Context, req CreateTransportRequest) (*models.Transport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transport payload")
	}
	if !models.ValidTransportMode(req.Mode) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown transport mode")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	transport := &models.Transport{
		StudentID: req.StudentID,
		Mode:      req.Mode,
		Driver:    req.Driver,
		BusNumber: req.BusNumber,
	}
	if err := s.repo.Create(ctx, transport); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create transport")
	}
	return transport, nil
}

// UpdatePosition applies a GPS ping to the transport record. Both
// coordinates must be present: a partial ping is rejected with the missing
// field names and nothing is written.
func (s *TransportService) UpdatePosition(ctx context.Context, id string, req UpdatePositionRequest) (*models.Transport, error) {
	var missing []string
	if req.Latitude == nil {
		missing = append(missing, "latitude")
	}
	if req.Longitude == nil {
		missing = append(missing, "longitude")
	}
	if len(missing) > 0 {
		return nil, appErrors.Clone(appErrors.ErrMissingFields, fmt.Sprintf("missing fields: %s", strings.Join(missing, ", ")))
	}

	transport, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "transport record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transport")
	}

	if err := s.repo.UpdatePosition(ctx, transport.ID, *req.Latitude, *req.Longitude); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update position")
	}

	transport.Latitude = req.Latitude
	transport.Longitude = req.Longitude
	return transport, nil
}

// AnnounceBusArrival notifies the parents of every student riding the bus.
// Each notification failure is logged and skipped so one bad record never
// blocks the rest of the fan-out.
func (s *TransportService) AnnounceBusArrival(ctx context.Context, busNumber string) (int, error) {
	if busNumber == "" {
		return 0, appErrors.Clone(appErrors.ErrMissingFields, "missing fields: bus_number")
	}

	transports, err := s.repo.ListByBusNumber(ctx, busNumber)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bus riders")
	}

	notified := 0
	for _, transport := range transports {
		student, err := s.students.FindByID(ctx, transport.StudentID)
		if err != nil {
			s.logger.Warn("skipping bus arrival notification, student lookup failed",
				zap.String("student_id", transport.StudentID), zap.Error(err))
			continue
		}
		if student.ParentUserID == nil {
			continue
		}

		notification := &models.Notification{
			UserID:    *student.ParentUserID,
			StudentID: &student.ID,
			Title:     "Bus arrivé",
			Message:   fmt.Sprintf("Le bus %s de %s est arrivé à l'école.", busNumber, student.FullName()),
		}
		var email *notify.EmailMessage
		if student.ParentEmail != "" {
			email = &notify.EmailMessage{
				ToEmail: student.ParentEmail,
				Subject: "Bus arrivé à l'école",
				Body:    notification.Message,
			}
		}
		if err := s.notifier.Notify(ctx, notification, email, nil); err != nil {
			s.logger.Warn("bus arrival notification failed",
				zap.String("student_id", student.ID), zap.Error(err))
			continue
		}
		notified++
	}
	return notified, nil
}

// Update modifies the mode, driver or bus of a transport record.
func (s *TransportService) Update(ctx context.Context, id string, req CreateTransportRequest) (*models.Transport, error) {
	if req.Mode != "" && !models.ValidTransportMode(req.Mode) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown transport mode")
	}
	transport, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "transport record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transport")
	}

	if req.Mode != "" {
		transport.Mode = req.Mode
	}
	transport.Driver = req.Driver
	transport.BusNumber = req.BusNumber

	if err := s.repo.Update(ctx, transport); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update transport")
	}
	return transport, nil
}

// Delete removes a transport record.
func (s *TransportService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "transport record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transport")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete transport")
	}
	return nil
}
