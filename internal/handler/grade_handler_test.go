package handler

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smounat/ecole-plus-api/internal/middleware"
	"github.com/smounat/ecole-plus-api/internal/models"
	"github.com/smounat/ecole-plus-api/internal/service"
)

type fakeGradeStore struct {
	grades     []models.GradeDetail
	lastFilter models.GradeFilter
}

func (f *fakeGradeStore) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, int, error) {
	f.lastFilter = filter
	var out []models.GradeDetail
	for _, g := range f.grades {
		if filter.TeacherID != "" && (g.TeacherID == nil || *g.TeacherID != filter.TeacherID) {
			continue
		}
		out = append(out, g)
	}
	return out, len(out), nil
}

func (f *fakeGradeStore) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeGradeStore) ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error) {
	return nil, nil
}

func (f *fakeGradeStore) Create(ctx context.Context, grade *models.Grade) error { return nil }
func (f *fakeGradeStore) Update(ctx context.Context, grade *models.Grade) error { return nil }
func (f *fakeGradeStore) Delete(ctx context.Context, id string) error           { return nil }

// fakeTeacherDirectory maps user accounts to teacher records.
type fakeTeacherDirectory struct {
	byUserID map[string]string
}

func (f *fakeTeacherDirectory) List(ctx context.Context, search string, page, pageSize int) ([]models.TeacherDetail, int, error) {
	return nil, 0, nil
}

func (f *fakeTeacherDirectory) FindByID(ctx context.Context, id string) (*models.TeacherDetail, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeTeacherDirectory) FindByUserID(ctx context.Context, userID string) (*models.TeacherDetail, error) {
	id, ok := f.byUserID[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.TeacherDetail{Teacher: models.Teacher{ID: id, UserID: userID}}, nil
}

func (f *fakeTeacherDirectory) Create(ctx context.Context, teacher *models.Teacher) error { return nil }
func (f *fakeTeacherDirectory) Update(ctx context.Context, teacher *models.Teacher) error { return nil }
func (f *fakeTeacherDirectory) Delete(ctx context.Context, id string) error               { return nil }

func setClaims(claims *models.JWTClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims != nil {
			c.Set(middleware.ContextUserKey, claims)
		}
	}
}

func strPtr(s string) *string { return &s }

func newGradeRouter(repo *fakeGradeStore, teachers *fakeTeacherDirectory, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	gradeSvc := service.NewGradeService(repo, nil, nil, nil, nil, nil)
	teacherSvc := service.NewTeacherService(teachers, nil, nil, nil)
	h := NewGradeHandler(gradeSvc, teacherSvc)

	r := gin.New()
	r.Use(setClaims(claims))
	r.GET("/grades", h.List)
	r.GET("/grades/export", h.ExportCSV)
	return r
}

func twoTeacherGrades() *fakeGradeStore {
	return &fakeGradeStore{grades: []models.GradeDetail{
		{Grade: models.Grade{ID: "grade-a", TeacherID: strPtr("teacher-a"), Subject: "Maths"}, StudentFirstName: "Awa", StudentLastName: "Diallo"},
		{Grade: models.Grade{ID: "grade-b", TeacherID: strPtr("teacher-b"), Subject: "Histoire"}, StudentFirstName: "Bilal", StudentLastName: "Sow"},
	}}
}

func TestGradeListScopedToCallerTeacher(t *testing.T) {
	repo := twoTeacherGrades()
	teachers := &fakeTeacherDirectory{byUserID: map[string]string{"user-a": "teacher-a"}}
	claims := &models.JWTClaims{UserID: "user-a", Role: models.RoleTeacher}
	r := newGradeRouter(repo, teachers, claims)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/grades", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "teacher-a", repo.lastFilter.TeacherID)
	assert.Contains(t, w.Body.String(), "grade-a")
	assert.NotContains(t, w.Body.String(), "grade-b")
}

func TestGradeListIgnoresForeignTeacherParam(t *testing.T) {
	repo := twoTeacherGrades()
	teachers := &fakeTeacherDirectory{byUserID: map[string]string{"user-a": "teacher-a"}}
	claims := &models.JWTClaims{UserID: "user-a", Role: models.RoleTeacher}
	r := newGradeRouter(repo, teachers, claims)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/grades?teacher_id=teacher-b", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "teacher-a", repo.lastFilter.TeacherID)
	assert.NotContains(t, w.Body.String(), "grade-b")
}

func TestGradeListUnscopedForAdmin(t *testing.T) {
	repo := twoTeacherGrades()
	teachers := &fakeTeacherDirectory{}
	claims := &models.JWTClaims{UserID: "user-admin", Role: models.RoleAdmin}
	r := newGradeRouter(repo, teachers, claims)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/grades", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, repo.lastFilter.TeacherID)
	assert.Contains(t, w.Body.String(), "grade-a")
	assert.Contains(t, w.Body.String(), "grade-b")
}

func TestGradeExportScopedToCallerTeacher(t *testing.T) {
	repo := twoTeacherGrades()
	teachers := &fakeTeacherDirectory{byUserID: map[string]string{"user-a": "teacher-a"}}
	claims := &models.JWTClaims{UserID: "user-a", Role: models.RoleTeacher}
	r := newGradeRouter(repo, teachers, claims)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/grades/export", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "teacher-a", repo.lastFilter.TeacherID)
	assert.Contains(t, w.Body.String(), "Awa Diallo")
	assert.NotContains(t, w.Body.String(), "Bilal Sow")
}
