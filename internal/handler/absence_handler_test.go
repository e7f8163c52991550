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

	"github.com/smounat/ecole-plus-api/internal/models"
	"github.com/smounat/ecole-plus-api/internal/service"
)

type fakeAbsenceStore struct {
	absences   []models.AbsenceDetail
	lastFilter models.AbsenceFilter
}

func (f *fakeAbsenceStore) List(ctx context.Context, filter models.AbsenceFilter) ([]models.AbsenceDetail, int, error) {
	f.lastFilter = filter
	return f.absences, len(f.absences), nil
}

func (f *fakeAbsenceStore) FindByID(ctx context.Context, id string) (*models.Absence, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeAbsenceStore) ListByStudent(ctx context.Context, studentID string) ([]models.Absence, error) {
	return nil, nil
}

func (f *fakeAbsenceStore) Create(ctx context.Context, absence *models.Absence) error { return nil }
func (f *fakeAbsenceStore) Update(ctx context.Context, absence *models.Absence) error { return nil }
func (f *fakeAbsenceStore) Delete(ctx context.Context, id string) error               { return nil }

func (f *fakeAbsenceStore) CountByStudent(ctx context.Context, studentID string) (int, error) {
	return 0, nil
}

func (f *fakeAbsenceStore) SummaryByStudent(ctx context.Context, studentID string) (*models.AbsenceSummary, error) {
	return &models.AbsenceSummary{}, nil
}

func newAbsenceRouter(repo *fakeAbsenceStore, teachers *fakeTeacherDirectory, claims *models.JWTClaims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	absenceSvc := service.NewAbsenceService(repo, nil, nil, nil, nil)
	teacherSvc := service.NewTeacherService(teachers, nil, nil, nil)
	h := NewAbsenceHandler(absenceSvc, nil, teacherSvc)

	r := gin.New()
	r.Use(setClaims(claims))
	r.GET("/absences", h.List)
	return r
}

func TestAbsenceListScopedToCallerTeacher(t *testing.T) {
	repo := &fakeAbsenceStore{}
	teachers := &fakeTeacherDirectory{byUserID: map[string]string{"user-a": "teacher-a"}}
	claims := &models.JWTClaims{UserID: "user-a", Role: models.RoleTeacher}
	r := newAbsenceRouter(repo, teachers, claims)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/absences?teacher_id=teacher-b", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "teacher-a", repo.lastFilter.TeacherID)
}

func TestAbsenceListUnscopedForAdmin(t *testing.T) {
	repo := &fakeAbsenceStore{}
	teachers := &fakeTeacherDirectory{}
	claims := &models.JWTClaims{UserID: "user-admin", Role: models.RoleAdmin}
	r := newAbsenceRouter(repo, teachers, claims)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/absences?teacher_id=teacher-b", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "teacher-b", repo.lastFilter.TeacherID)
}
