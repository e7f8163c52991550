package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/smounat/ecole-plus-api/internal/models"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
)

type studentRepo interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
	ListByParentUser(ctx context.Context, parentUserID string) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
	AssignTeacher(ctx context.Context, studentID, teacherID string) error
	RemoveTeacher(ctx context.Context, studentID, teacherID string) error
	TeachersOf(ctx context.Context, studentID string) ([]models.TeacherDetail, error)
	IsOnRoster(ctx context.Context, studentID, teacherID string) (bool, error)
}

type studentTeacherReader interface {
	FindByID(ctx context.Context, id string) (*models.TeacherDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.TeacherDetail, error)
}

// CreateStudentRequest registers a pupil.
type CreateStudentRequest struct {
	FirstName    string     `json:"first_name" validate:"required"`
	LastName     string     `json:"last_name" validate:"required"`
	BirthDate    *time.Time `json:"birth_date"`
	ClassLevel   string     `json:"class_level" validate:"required"`
	UserID       *string    `json:"user_id"`
	ParentUserID *string    `json:"parent_user_id"`
	ParentEmail  string     `json:"parent_email" validate:"omitempty,email"`
}

// UpdateStudentRequest carries the mutable student fields.
type UpdateStudentRequest struct {
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	BirthDate    *time.Time `json:"birth_date"`
	ClassLevel   string     `json:"class_level"`
	ParentUserID *string    `json:"parent_user_id"`
	ParentEmail  string     `json:"parent_email" validate:"omitempty,email"`
}

// StudentService manages pupil records and teacher rosters, gating every
// read through the caller's visibility rules.
type StudentService struct {
	repo      studentRepo
	teachers  studentTeacherReader
	access    *AccessService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(repo studentRepo, teachers studentTeacherReader, access *AccessService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if access == nil {
		access = NewAccessService(logger)
	}
	return &StudentService{repo: repo, teachers: teachers, access: access, validator: validate, logger: logger}
}

// List returns the students visible to the caller. Teachers see their
// roster, parents their children, admins everything.
func (s *StudentService) List(ctx context.Context, claims *models.JWTClaims, filter models.StudentFilter) ([]models.Student, int, error) {
	teacherID, err := s.callerTeacherID(ctx, claims)
	if err != nil {
		return nil, 0, err
	}
	scoped, err := s.access.ScopeStudentFilter(claims, teacherID, filter)
	if err != nil {
		return nil, 0, err
	}
	students, total, err := s.repo.List(ctx, scoped)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, total, nil
}

// Get returns a student with its roster of teachers, enforcing visibility.
func (s *StudentService) Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.StudentDetail, error) {
	student, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, claims, student); err != nil {
		return nil, err
	}

	teachers, err := s.repo.TeachersOf(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student teachers")
	}
	return &models.StudentDetail{Student: *student, Teachers: teachers}, nil
}

// Create registers a student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student := &models.Student{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		BirthDate:    req.BirthDate,
		ClassLevel:   req.ClassLevel,
		UserID:       req.UserID,
		ParentUserID: req.ParentUserID,
		ParentEmail:  req.ParentEmail,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies a student record.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != "" {
		student.FirstName = req.FirstName
	}
	if req.LastName != "" {
		student.LastName = req.LastName
	}
	if req.ClassLevel != "" {
		student.ClassLevel = req.ClassLevel
	}
	if req.BirthDate != nil {
		student.BirthDate = req.BirthDate
	}
	if req.ParentUserID != nil {
		student.ParentUserID = req.ParentUserID
	}
	if req.ParentEmail != "" {
		student.ParentEmail = req.ParentEmail
	}

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Delete removes a student record.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	return nil
}

// AssignTeacher puts a student on a teacher's roster. Re-assigning the same
// pair is a no-op.
func (s *StudentService) AssignTeacher(ctx context.Context, studentID, teacherID string) error {
	if _, err := s.load(ctx, studentID); err != nil {
		return err
	}
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if err := s.repo.AssignTeacher(ctx, studentID, teacherID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign teacher")
	}
	return nil
}

// RemoveTeacher takes a student off a teacher's roster.
func (s *StudentService) RemoveTeacher(ctx context.Context, studentID, teacherID string) error {
	if err := s.repo.RemoveTeacher(ctx, studentID, teacherID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove teacher")
	}
	return nil
}

// GetByUserID resolves the student record behind a pupil account.
func (s *StudentService) GetByUserID(ctx context.Context, userID string) (*models.Student, error) {
	student, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no student record for this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *StudentService) load(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// authorize checks the caller may view the student, resolving roster
// membership for teachers.
func (s *StudentService) authorize(ctx context.Context, claims *models.JWTClaims, student *models.Student) error {
	if claims == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials")
	}

	access := StudentAccess{Role: claims.Role, UserID: claims.UserID, Student: student}
	if claims.Role == models.RoleTeacher {
		teacherID, err := s.callerTeacherID(ctx, claims)
		if err != nil {
			return err
		}
		if teacherID != "" {
			onRoster, err := s.repo.IsOnRoster(ctx, student.ID, teacherID)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check roster")
			}
			access.OnRoster = onRoster
		}
	}
	return s.access.CanViewStudent(access)
}

// callerTeacherID resolves the teacher record behind a teacher account.
func (s *StudentService) callerTeacherID(ctx context.Context, claims *models.JWTClaims) (string, error) {
	if claims == nil || claims.Role != models.RoleTeacher || s.teachers == nil {
		return "", nil
	}
	teacher, err := s.teachers.FindByUserID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrAccessDenied, "no teacher record for this account")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher record")
	}
	return teacher.ID, nil
}
