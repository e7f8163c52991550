package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/smounat/ecole-plus-api/internal/models"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
	"github.com/smounat/ecole-plus-api/pkg/storage"
)

type courseRepo interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListByClassLevel(ctx context.Context, classLevel string) ([]models.CourseDetail, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	SetMaterialPath(ctx context.Context, id, path string) error
	Delete(ctx context.Context, id string) error
}

type courseQuizReader interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.Quiz, error)
	DistinctSubmittedCount(ctx context.Context, studentID, courseID string) (int, error)
}

// CreateCourseRequest declares a course for a class level.
type CreateCourseRequest struct {
	TeacherID   string `json:"teacher_id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	ClassLevel  string `json:"class_level" validate:"required"`
}

// MaterialLink is a time-limited download link for a course document.
type MaterialLink struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CourseService manages courses, their uploaded material and per-student
// quiz progress.
type CourseService struct {
	repo      courseRepo
	quizzes   courseQuizReader
	files     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepo, quizzes courseQuizReader, files *storage.LocalStorage, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, quizzes: quizzes, files: files, signer: signer, validator: validate, logger: logger}
}

// List returns course details with pagination.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, total, nil
}

// Get returns a course by ID.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	return s.load(ctx, id)
}

// Create declares a course.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course := &models.Course{
		TeacherID:   req.TeacherID,
		Name:        req.Name,
		Description: req.Description,
		ClassLevel:  req.ClassLevel,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Update modifies a course.
func (s *CourseService) Update(ctx context.Context, id string, req CreateCourseRequest) (*models.Course, error) {
	course, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		course.Name = req.Name
	}
	if req.ClassLevel != "" {
		course.ClassLevel = req.ClassLevel
	}
	course.Description = req.Description

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// Delete removes a course.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	course, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	if course.MaterialPath != nil && s.files != nil {
		if err := s.files.Delete(*course.MaterialPath); err != nil {
			s.logger.Warn("course material cleanup failed", zap.String("course_id", id), zap.Error(err))
		}
	}
	return nil
}

// UploadMaterial stores the course document on disk and records its path.
func (s *CourseService) UploadMaterial(ctx context.Context, id, filename string, r io.Reader) (*models.Course, error) {
	course, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.files == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "material storage is not configured")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only pdf material is accepted")
	}

	relPath := fmt.Sprintf("courses/%s/%d%s", course.ID, time.Now().UnixNano(), ext)
	if _, err := s.files.SaveStream(relPath, r); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store material")
	}
	if err := s.repo.SetMaterialPath(ctx, course.ID, relPath); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record material path")
	}
	course.MaterialPath = &relPath
	return course, nil
}

// MaterialLink issues a signed, time-limited download token for the course
// material.
func (s *CourseService) MaterialLink(ctx context.Context, id string) (*MaterialLink, error) {
	course, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if course.MaterialPath == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course has no material")
	}
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "material signing is not configured")
	}

	token, expiresAt, err := s.signer.Generate(course.ID, *course.MaterialPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign material link")
	}
	return &MaterialLink{Token: token, ExpiresAt: expiresAt}, nil
}

// OpenMaterial validates a download token and opens the underlying file.
func (s *CourseService) OpenMaterial(ctx context.Context, token string) (*os.File, error) {
	if s.signer == nil || s.files == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "material storage is not configured")
	}
	courseID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrAccessDenied, "invalid or expired material link")
	}
	course, err := s.load(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.MaterialPath == nil || *course.MaterialPath != relPath {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course material not found")
	}
	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open material")
	}
	return file, nil
}

// Progress reports how many of the course's quizzes a student has submitted.
func (s *CourseService) Progress(ctx context.Context, studentID, courseID string) (*models.CourseProgress, error) {
	if _, err := s.load(ctx, courseID); err != nil {
		return nil, err
	}
	quizzes, err := s.quizzes.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list course quizzes")
	}
	done, err := s.quizzes.DistinctSubmittedCount(ctx, studentID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count submissions")
	}

	progress := &models.CourseProgress{CourseID: courseID, Done: done, Total: len(quizzes)}
	if progress.Total > 0 {
		progress.ProgressPct = progress.Done * 100 / progress.Total
	}
	return progress, nil
}

func (s *CourseService) load(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}
