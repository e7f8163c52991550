package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smounat/ecole-plus-api/internal/dto"
	"github.com/smounat/ecole-plus-api/internal/models"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestResolveRole(t *testing.T) {
	svc := NewAccessService(nil)

	cases := []struct {
		name string
		user *models.User
		want models.UserRole
	}{
		{"student", &models.User{Role: models.RoleStudent}, models.RoleStudent},
		{"parent", &models.User{Role: models.RoleParent}, models.RoleParent},
		{"teacher", &models.User{Role: models.RoleTeacher}, models.RoleTeacher},
		{"admin", &models.User{Role: models.RoleAdmin}, models.RoleAdmin},
		{"unrecognized role collapses to unknown", &models.User{Role: "JANITOR"}, models.RoleUnknown},
		{"empty role collapses to unknown", &models.User{}, models.RoleUnknown},
		{"nil user collapses to unknown", nil, models.RoleUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, svc.ResolveRole(tc.user))
		})
	}
}

func TestRouteDashboard(t *testing.T) {
	svc := NewAccessService(nil)

	assert.Equal(t, dto.TargetStudentDashboard, svc.RouteDashboard(models.RoleStudent))
	assert.Equal(t, dto.TargetParentDashboard, svc.RouteDashboard(models.RoleParent))
	assert.Equal(t, dto.TargetTeacherDashboard, svc.RouteDashboard(models.RoleTeacher))
	assert.Equal(t, dto.TargetAdminDashboard, svc.RouteDashboard(models.RoleAdmin))
	assert.Equal(t, dto.TargetLogin, svc.RouteDashboard(models.RoleUnknown))
	assert.Equal(t, dto.TargetLogin, svc.RouteDashboard(models.UserRole("anything")))
}

func TestCanViewStudent(t *testing.T) {
	svc := NewAccessService(nil)
	student := &models.Student{
		ID:           "student-1",
		UserID:       strPtr("user-student"),
		ParentUserID: strPtr("user-parent"),
	}

	t.Run("admin sees everything", func(t *testing.T) {
		assert.NoError(t, svc.CanViewStudent(StudentAccess{Role: models.RoleAdmin, UserID: "anyone", Student: student}))
	})

	t.Run("teacher sees roster students only", func(t *testing.T) {
		assert.NoError(t, svc.CanViewStudent(StudentAccess{Role: models.RoleTeacher, UserID: "user-teacher", Student: student, OnRoster: true}))
		err := svc.CanViewStudent(StudentAccess{Role: models.RoleTeacher, UserID: "user-teacher", Student: student})
		assertAccessDenied(t, err)
	})

	t.Run("parent sees own child only", func(t *testing.T) {
		assert.NoError(t, svc.CanViewStudent(StudentAccess{Role: models.RoleParent, UserID: "user-parent", Student: student}))
		err := svc.CanViewStudent(StudentAccess{Role: models.RoleParent, UserID: "other-parent", Student: student})
		assertAccessDenied(t, err)
	})

	t.Run("student sees self only", func(t *testing.T) {
		assert.NoError(t, svc.CanViewStudent(StudentAccess{Role: models.RoleStudent, UserID: "user-student", Student: student}))
		err := svc.CanViewStudent(StudentAccess{Role: models.RoleStudent, UserID: "user-other", Student: student})
		assertAccessDenied(t, err)
	})

	t.Run("unknown role is always denied", func(t *testing.T) {
		err := svc.CanViewStudent(StudentAccess{Role: models.RoleUnknown, UserID: "user-student", Student: student})
		assertAccessDenied(t, err)
	})

	t.Run("missing student is not found", func(t *testing.T) {
		err := svc.CanViewStudent(StudentAccess{Role: models.RoleAdmin})
		var appErr *appErrors.Error
		assert.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	})
}

func TestScopeStudentFilter(t *testing.T) {
	svc := NewAccessService(nil)

	t.Run("admin passes through", func(t *testing.T) {
		filter, err := svc.ScopeStudentFilter(&models.JWTClaims{UserID: "a", Role: models.RoleAdmin}, "", models.StudentFilter{ClassLevel: "CE2"})
		assert.NoError(t, err)
		assert.Equal(t, "CE2", filter.ClassLevel)
		assert.Empty(t, filter.TeacherID)
	})

	t.Run("teacher is pinned to roster", func(t *testing.T) {
		filter, err := svc.ScopeStudentFilter(&models.JWTClaims{UserID: "u", Role: models.RoleTeacher}, "teacher-1", models.StudentFilter{})
		assert.NoError(t, err)
		assert.Equal(t, "teacher-1", filter.TeacherID)
	})

	t.Run("parent is pinned to children", func(t *testing.T) {
		filter, err := svc.ScopeStudentFilter(&models.JWTClaims{UserID: "user-parent", Role: models.RoleParent}, "", models.StudentFilter{})
		assert.NoError(t, err)
		assert.Equal(t, "user-parent", filter.ParentUserID)
	})

	t.Run("student cannot list", func(t *testing.T) {
		_, err := svc.ScopeStudentFilter(&models.JWTClaims{UserID: "u", Role: models.RoleStudent}, "", models.StudentFilter{})
		assertAccessDenied(t, err)
	})
}

func assertAccessDenied(t *testing.T, err error) {
	t.Helper()
	var appErr *appErrors.Error
	assert.True(t, errors.As(err, &appErr), "expected a typed error, got %v", err)
	assert.Equal(t, appErrors.ErrAccessDenied.Code, appErr.Code)
}
