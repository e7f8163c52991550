package service

import (
	"go.uber.org/zap"

	"github.com/smounat/ecole-plus-api/internal/dto"
	"github.com/smounat/ecole-plus-api/internal/models"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
)

// AccessService resolves roles, routes principals to their dashboard and
// gates record visibility. All decisions are pure so they can be tested
// without any storage.
type AccessService struct {
	logger *zap.Logger
}

// NewAccessService constructs an AccessService.
func NewAccessService(logger *zap.Logger) *AccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{logger: logger}
}

// ResolveRole maps a user record onto the closed role set. Anything outside
// the four assignable roles collapses to RoleUnknown, which is a routing
// branch rather than an error.
func (s *AccessService) ResolveRole(user *models.User) models.UserRole {
	if user == nil {
		return models.RoleUnknown
	}
	if user.Role.Valid() {
		return user.Role
	}
	return models.RoleUnknown
}

// RouteDashboard returns the dashboard destination for a role. Unknown roles
// are sent back to the login screen.
func (s *AccessService) RouteDashboard(role models.UserRole) dto.DashboardTarget {
	switch role {
	case models.RoleStudent:
		return dto.TargetStudentDashboard
	case models.RoleParent:
		return dto.TargetParentDashboard
	case models.RoleTeacher:
		return dto.TargetTeacherDashboard
	case models.RoleAdmin:
		return dto.TargetAdminDashboard
	default:
		return dto.TargetLogin
	}
}

// StudentAccess captures the relationship facts needed to decide whether a
// principal may see a student's records.
type StudentAccess struct {
	Role     models.UserRole
	UserID   string
	Student  *models.Student
	OnRoster bool
}

// CanViewStudent reports whether the principal may read the student's
// records. Admins see everything, teachers see their roster, parents see
// their own children and students see themselves. Everything else is denied.
func (s *AccessService) CanViewStudent(access StudentAccess) error {
	if access.Student == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	switch access.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleTeacher:
		if access.OnRoster {
			return nil
		}
	case models.RoleParent:
		if access.Student.ParentUserID != nil && *access.Student.ParentUserID == access.UserID {
			return nil
		}
	case models.RoleStudent:
		if access.Student.UserID != nil && *access.Student.UserID == access.UserID {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrAccessDenied, "student record is outside your visibility")
}

// ScopeStudentFilter narrows a listing filter to the records the principal
// may see. Admin filters pass through untouched.
func (s *AccessService) ScopeStudentFilter(claims *models.JWTClaims, teacherID string, filter models.StudentFilter) (models.StudentFilter, error) {
	if claims == nil {
		return filter, appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials")
	}
	switch claims.Role {
	case models.RoleAdmin:
		return filter, nil
	case models.RoleTeacher:
		filter.TeacherID = teacherID
		return filter, nil
	case models.RoleParent:
		filter.ParentUserID = claims.UserID
		return filter, nil
	}
	return filter, appErrors.Clone(appErrors.ErrAccessDenied, "listing students is outside your visibility")
}
