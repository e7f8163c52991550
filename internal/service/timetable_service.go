package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/smounat/ecole-plus-api/internal/models"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
)

type timetableRepo interface {
	List(ctx context.Context, day string) ([]models.TimetableSlot, error)
	FindByID(ctx context.Context, id string) (*models.TimetableSlot, error)
	Create(ctx context.Context, slot *models.TimetableSlot) error
	Update(ctx context.Context, slot *models.TimetableSlot) error
	Delete(ctx context.Context, id string) error
}

// CreateTimetableSlotRequest places a recurring lesson on the weekly grid.
type CreateTimetableSlotRequest struct {
	Day       string  `json:"day" validate:"required"`
	StartTime string  `json:"start_time" validate:"required"`
	EndTime   string  `json:"end_time" validate:"required"`
	Subject   string  `json:"subject" validate:"required"`
	Room      string  `json:"room"`
	TeacherID *string `json:"teacher_id"`
}

// TimetableService manages the weekly lesson grid.
type TimetableService struct {
	repo      timetableRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableService constructs a TimetableService.
func NewTimetableService(repo timetableRepo, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{repo: repo, validator: validate, logger: logger}
}

// List returns the timetable, optionally restricted to one day.
func (s *TimetableService) List(ctx context.Context, day string) ([]models.TimetableSlot, error) {
	if day != "" && !models.ValidWeekday(day) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown school day")
	}
	slots, err := s.repo.List(ctx, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable")
	}
	return slots, nil
}

// Create places a lesson on the grid.
func (s *TimetableService) Create(ctx context.Context, req CreateTimetableSlotRequest) (*models.TimetableSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}
	if !models.ValidWeekday(req.Day) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown school day")
	}

	slot := &models.TimetableSlot{
		Day:       req.Day,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Subject:   req.Subject,
		Room:      req.Room,
		TeacherID: req.TeacherID,
	}
	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable slot")
	}
	return slot, nil
}

// Update modifies a lesson slot.
func (s *TimetableService) Update(ctx context.Context, id string, req CreateTimetableSlotRequest) (*models.TimetableSlot, error) {
	if req.Day != "" && !models.ValidWeekday(req.Day) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown school day")
	}

	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable slot")
	}

	if req.Day != "" {
		slot.Day = req.Day
	}
	if req.StartTime != "" {
		slot.StartTime = req.StartTime
	}
	if req.EndTime != "" {
		slot.EndTime = req.EndTime
	}
	if req.Subject != "" {
		slot.Subject = req.Subject
	}
	slot.Room = req.Room
	if req.TeacherID != nil {
		slot.TeacherID = req.TeacherID
	}

	if err := s.repo.Update(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable slot")
	}
	return slot, nil
}

// Delete removes a lesson slot.
func (s *TimetableService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable slot not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable slot")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable slot")
	}
	return nil
}
