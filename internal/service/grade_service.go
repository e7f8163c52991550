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
	"github.com/smounat/ecole-plus-api/pkg/export"
	"github.com/smounat/ecole-plus-api/pkg/notify"
)

type gradeRepo interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, id string) error
}

type gradeStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type gradeNotifier interface {
	Notify(ctx context.Context, notification *models.Notification, email *notify.EmailMessage, sms *notify.SMSMessage) error
}

// CreateGradeRequest records a subject mark for a student.
type CreateGradeRequest struct {
	StudentID string    `json:"student_id" validate:"required"`
	TeacherID string    `json:"-"`
	Subject   string    `json:"subject" validate:"required"`
	Value     float64   `json:"value" validate:"gte=0,lte=20"`
	Date      time.Time `json:"date"`
}

// GradeService manages subject marks on the twenty-point scale.
type GradeService struct {
	repo      gradeRepo
	students  gradeStudentReader
	notifier  gradeNotifier
	csv       *export.CSVExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs a GradeService.
func NewGradeService(repo gradeRepo, students gradeStudentReader, notifier gradeNotifier, csv *export.CSVExporter, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	return &GradeService{repo: repo, students: students, notifier: notifier, csv: csv, validator: validate, logger: logger}
}

// List returns grade details with pagination metadata.
func (s *GradeService) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, int, error) {
	grades, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, total, nil
}

// Create records a grade and notifies the student's parent. A notification
// failure is logged and never fails the grade entry.
func (s *GradeService) Create(ctx context.Context, req CreateGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	grade := &models.Grade{
		StudentID: req.StudentID,
		Subject:   req.Subject,
		Value:     req.Value,
		Date:      req.Date,
	}
	if req.TeacherID != "" {
		grade.TeacherID = &req.TeacherID
	}
	if grade.Date.IsZero() {
		grade.Date = time.Now().UTC()
	}

	if err := s.repo.Create(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade")
	}

	s.notifyParent(ctx, student, grade)
	return grade, nil
}

// Update modifies an existing grade. Teachers may only touch grades they
// authored; an empty callerTeacherID skips the ownership check (admin).
func (s *GradeService) Update(ctx context.Context, id, callerTeacherID string, req CreateGradeRequest) (*models.Grade, error) {
	if err := s.validator.StructPartial(req, "Subject", "Value"); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	grade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	if err := checkGradeAuthor(grade, callerTeacherID); err != nil {
		return nil, err
	}

	grade.Subject = req.Subject
	grade.Value = req.Value
	if !req.Date.IsZero() {
		grade.Date = req.Date
	}

	if err := s.repo.Update(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade")
	}
	return grade, nil
}

// Delete removes a grade, subject to the same ownership rule as Update.
func (s *GradeService) Delete(ctx context.Context, id, callerTeacherID string) error {
	grade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	if err := checkGradeAuthor(grade, callerTeacherID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade")
	}
	return nil
}

func checkGradeAuthor(grade *models.Grade, callerTeacherID string) error {
	if callerTeacherID == "" {
		return nil
	}
	if grade.TeacherID == nil || *grade.TeacherID != callerTeacherID {
		return appErrors.Clone(appErrors.ErrAccessDenied, "only the author can modify this grade")
	}
	return nil
}

// exportPageSize bounds each repository read while the export walks the
// full result set.
const exportPageSize = 200

// ExportCSV renders the filtered grade listing as a CSV document. The export
// pages through every matching row, not just the first page.
func (s *GradeService) ExportCSV(ctx context.Context, filter models.GradeFilter) ([]byte, error) {
	dataset := export.Dataset{
		Headers: []string{"student", "class", "subject", "grade", "date"},
	}

	filter.Page = 1
	filter.PageSize = exportPageSize
	for {
		grades, _, err := s.repo.List(ctx, filter)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
		}
		for _, grade := range grades {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"student": grade.StudentFirstName + " " + grade.StudentLastName,
				"class":   grade.ClassLevel,
				"subject": grade.Subject,
				"grade":   fmt.Sprintf("%.2f", grade.Value),
				"date":    grade.Date.Format("2006-01-02"),
			})
		}
		if len(grades) < filter.PageSize {
			break
		}
		filter.Page++
	}

	payload, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, nil
}

func (s *GradeService) notifyParent(ctx context.Context, student *models.Student, grade *models.Grade) {
	if s.notifier == nil || student.ParentUserID == nil {
		return
	}
	notification := &models.Notification{
		UserID:    *student.ParentUserID,
		StudentID: &student.ID,
		Title:     "Nouvelle note",
		Message:   fmt.Sprintf("%s a reçu %.1f/20 en %s.", student.FullName(), grade.Value, grade.Subject),
	}
	var email *notify.EmailMessage
	if student.ParentEmail != "" {
		email = &notify.EmailMessage{
			ToEmail: student.ParentEmail,
			Subject: "Nouvelle note publiée",
			Body:    notification.Message,
		}
	}
	if err := s.notifier.Notify(ctx, notification, email, nil); err != nil {
		s.logger.Warn("grade notification failed", zap.String("student_id", student.ID), zap.Error(err))
	}
}
