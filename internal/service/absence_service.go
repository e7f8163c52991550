package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/smounat/ecole-plus-api/internal/models"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
	"github.com/smounat/ecole-plus-api/pkg/notify"
)

type absenceRepo interface {
	List(ctx context.Context, filter models.AbsenceFilter) ([]models.AbsenceDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Absence, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Absence, error)
	Create(ctx context.Context, absence *models.Absence) error
	Update(ctx context.Context, absence *models.Absence) error
	Delete(ctx context.Context, id string) error
	CountByStudent(ctx context.Context, studentID string) (int, error)
	SummaryByStudent(ctx context.Context, studentID string) (*models.AbsenceSummary, error)
}

type absenceStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type absenceNotifier interface {
	Notify(ctx context.Context, notification *models.Notification, email *notify.EmailMessage, sms *notify.SMSMessage) error
}

// CreateAbsenceRequest records a missed school day.
type CreateAbsenceRequest struct {
	StudentID string    `json:"student_id" validate:"required"`
	Date      time.Time `json:"date"`
	Reason    string    `json:"reason"`
	Justified bool      `json:"justified"`
}

// AbsenceService manages absence records and alerts parents when a student
// crosses the attendance warning threshold.
type AbsenceService struct {
	repo      absenceRepo
	students  absenceStudentReader
	notifier  absenceNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAbsenceService constructs an AbsenceService.
func NewAbsenceService(repo absenceRepo, students absenceStudentReader, notifier absenceNotifier, validate *validator.Validate, logger *zap.Logger) *AbsenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AbsenceService{repo: repo, students: students, notifier: notifier, validator: validate, logger: logger}
}

// List returns absence details with pagination.
func (s *AbsenceService) List(ctx context.Context, filter models.AbsenceFilter) ([]models.AbsenceDetail, int, error) {
	absences, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list absences")
	}
	return absences, total, nil
}

// Summary returns the justified/unjustified breakdown for a student.
func (s *AbsenceService) Summary(ctx context.Context, studentID string) (*models.AbsenceSummary, error) {
	summary, err := s.repo.SummaryByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise absences")
	}
	return summary, nil
}

// Create records an absence, tells the parent and raises a warning once the
// student reaches the attendance threshold. Notification failures are logged
// and never fail the record.
func (s *AbsenceService) Create(ctx context.Context, req CreateAbsenceRequest) (*models.Absence, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid absence payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	absence := &models.Absence{
		StudentID: req.StudentID,
		Date:      req.Date,
		Reason:    req.Reason,
		Justified: req.Justified,
	}
	if absence.Date.IsZero() {
		absence.Date = time.Now().UTC()
	}
	if err := s.repo.Create(ctx, absence); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create absence")
	}

	s.notifyParent(ctx, student, absence)
	return absence, nil
}

// Update modifies an absence record.
func (s *AbsenceService) Update(ctx context.Context, id string, req CreateAbsenceRequest) (*models.Absence, error) {
	absence, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "absence not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load absence")
	}

	if !req.Date.IsZero() {
		absence.Date = req.Date
	}
	absence.Reason = req.Reason
	absence.Justified = req.Justified

	if err := s.repo.Update(ctx, absence); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update absence")
	}
	return absence, nil
}

// Delete removes an absence record.
func (s *AbsenceService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "absence not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load absence")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete absence")
	}
	return nil
}

func (s *AbsenceService) notifyParent(ctx context.Context, student *models.Student, absence *models.Absence) {
	if s.notifier == nil || student.ParentUserID == nil {
		return
	}

	message := fmt.Sprintf("%s a été absent(e) le %s.", student.FullName(), absence.Date.Format("02/01/2006"))
	total, err := s.repo.CountByStudent(ctx, student.ID)
	if err != nil {
		s.logger.Warn("absence count failed", zap.String("student_id", student.ID), zap.Error(err))
	} else if total >= absenceWarningThreshold {
		message += fmt.Sprintf(" Attention : %d absences cette année.", total)
	}

	notification := &models.Notification{
		UserID:    *student.ParentUserID,
		StudentID: &student.ID,
		Title:     "Absence signalée",
		Message:   message,
	}
	var email *notify.EmailMessage
	if student.ParentEmail != "" {
		email = &notify.EmailMessage{
			ToEmail: student.ParentEmail,
			Subject: "Absence signalée",
			Body:    message,
		}
	}
	if err := s.notifier.Notify(ctx, notification, email, nil); err != nil {
		s.logger.Warn("absence notification failed", zap.String("student_id", student.ID), zap.Error(err))
	}
}
