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

type parentRepo interface {
	List(ctx context.Context, search string, page, pageSize int) ([]models.Parent, int, error)
	FindByID(ctx context.Context, id string) (*models.Parent, error)
	FindByUserID(ctx context.Context, userID string) (*models.Parent, error)
	Create(ctx context.Context, parent *models.Parent) error
	Update(ctx context.Context, parent *models.Parent) error
	Delete(ctx context.Context, id string) error
}

// CreateParentRequest registers a guardian contact.
type CreateParentRequest struct {
	Name      string  `json:"name" validate:"required"`
	Phone     string  `json:"phone"`
	Email     string  `json:"email" validate:"omitempty,email"`
	UserID    *string `json:"user_id"`
	StudentID *string `json:"student_id"`
}

// ParentService manages guardian contact records.
type ParentService struct {
	repo      parentRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewParentService constructs a ParentService.
func NewParentService(repo parentRepo, validate *validator.Validate, logger *zap.Logger) *ParentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParentService{repo: repo, validator: validate, logger: logger}
}

// List returns guardian contacts with pagination.
func (s *ParentService) List(ctx context.Context, search string, page, pageSize int) ([]models.Parent, int, error) {
	parents, total, err := s.repo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list parents")
	}
	return parents, total, nil
}

// Get returns a guardian contact by ID.
func (s *ParentService) Get(ctx context.Context, id string) (*models.Parent, error) {
	parent, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "parent not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent")
	}
	return parent, nil
}

// Create registers a guardian contact.
func (s *ParentService) Create(ctx context.Context, req CreateParentRequest) (*models.Parent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parent payload")
	}
	parent := &models.Parent{
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		UserID:    req.UserID,
		StudentID: req.StudentID,
	}
	if err := s.repo.Create(ctx, parent); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create parent")
	}
	return parent, nil
}

// Update modifies a guardian contact.
func (s *ParentService) Update(ctx context.Context, id string, req CreateParentRequest) (*models.Parent, error) {
	parent, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "parent not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent")
	}

	if req.Name != "" {
		parent.Name = req.Name
	}
	parent.Phone = req.Phone
	parent.Email = req.Email
	if req.UserID != nil {
		parent.UserID = req.UserID
	}
	if req.StudentID != nil {
		parent.StudentID = req.StudentID
	}

	if err := s.repo.Update(ctx, parent); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update parent")
	}
	return parent, nil
}

// Delete removes a guardian contact.
func (s *ParentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "parent not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete parent")
	}
	return nil
}
