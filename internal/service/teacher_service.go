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

type teacherRepo interface {
	List(ctx context.Context, search string, page, pageSize int) ([]models.TeacherDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.TeacherDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.TeacherDetail, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) error
}

type teacherUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreateTeacherRequest links a teacher record to an existing user account.
type CreateTeacherRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	Specialty string `json:"specialty"`
}

// TeacherService manages teaching staff records.
type TeacherService struct {
	repo      teacherRepo
	users     teacherUserReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepo, users teacherUserReader, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, users: users, validator: validate, logger: logger}
}

// List returns teachers with their account identity.
func (s *TeacherService) List(ctx context.Context, search string, page, pageSize int) ([]models.TeacherDetail, int, error) {
	teachers, total, err := s.repo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, total, nil
}

// Get returns a teacher by ID.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.TeacherDetail, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// GetByUserID resolves the teacher record behind a user account.
func (s *TeacherService) GetByUserID(ctx context.Context, userID string) (*models.TeacherDetail, error) {
	teacher, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrAccessDenied, "no teacher record for this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Create links a teacher record to a user account with the teacher role.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user account does not have the teacher role")
	}

	teacher := &models.Teacher{UserID: req.UserID, Specialty: req.Specialty}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	return teacher, nil
}

// Update modifies a teacher record.
func (s *TeacherService) Update(ctx context.Context, id string, specialty string) (*models.Teacher, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	teacher := detail.Teacher
	teacher.Specialty = specialty
	if err := s.repo.Update(ctx, &teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return &teacher, nil
}

// Delete removes a teacher record. The user account is untouched.
func (s *TeacherService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	return nil
}
