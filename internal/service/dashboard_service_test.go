package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smounat/ecole-plus-api/internal/dto"
	"github.com/smounat/ecole-plus-api/internal/models"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
)

type memCache struct {
	values map[string][]byte
	gets   int
	sets   int
}

func (m *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.gets++
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.values == nil {
		m.values = make(map[string][]byte)
	}
	m.values[key] = raw
	return nil
}

func (m *memCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.values = nil
	return nil
}

type dashStudentStub struct {
	student  models.Student
	calls    int
	teachers []models.TeacherDetail
}

func (d *dashStudentStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	copied := d.student
	return &copied, nil
}

func (d *dashStudentStub) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	d.calls++
	if d.student.UserID == nil || *d.student.UserID != userID {
		return nil, sql.ErrNoRows
	}
	copied := d.student
	return &copied, nil
}

func (d *dashStudentStub) ListByParentUser(ctx context.Context, parentUserID string) ([]models.Student, error) {
	if d.student.ParentUserID != nil && *d.student.ParentUserID == parentUserID {
		return []models.Student{d.student}, nil
	}
	return nil, nil
}

func (d *dashStudentStub) TeachersOf(ctx context.Context, studentID string) ([]models.TeacherDetail, error) {
	return d.teachers, nil
}

func (d *dashStudentStub) Count(ctx context.Context) (int, error) { return 1, nil }

func (d *dashStudentStub) CountPerClass(ctx context.Context, teacherID string) ([]dto.ClassCount, error) {
	return []dto.ClassCount{{ClassLevel: d.student.ClassLevel, Total: 1}}, nil
}

type dashGradeStub struct{ grades []models.Grade }

func (d *dashGradeStub) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, int, error) {
	return nil, 0, nil
}

func (d *dashGradeStub) ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error) {
	return d.grades, nil
}

func (d *dashGradeStub) SubjectAverages(ctx context.Context, teacherID string) ([]models.SubjectAverage, error) {
	return nil, nil
}

func (d *dashGradeStub) ClassAverages(ctx context.Context) ([]models.ClassAverage, error) {
	return []models.ClassAverage{{ClassLevel: "CE2", Average: 13.5}}, nil
}

func (d *dashGradeStub) CountByTeacher(ctx context.Context, teacherID string) (int, float64, error) {
	return len(d.grades), 13.5, nil
}

func (d *dashGradeStub) Count(ctx context.Context) (int, error) { return len(d.grades), nil }

type dashAbsenceStub struct{}

func (dashAbsenceStub) List(ctx context.Context, filter models.AbsenceFilter) ([]models.AbsenceDetail, int, error) {
	return nil, 0, nil
}

func (dashAbsenceStub) ListByStudent(ctx context.Context, studentID string) ([]models.Absence, error) {
	return nil, nil
}

func (dashAbsenceStub) CountByTeacher(ctx context.Context, teacherID string) (int, error) {
	return 0, nil
}

func (dashAbsenceStub) CountByTeacherSince(ctx context.Context, teacherID string, since time.Time) (int, error) {
	return 0, nil
}

func (dashAbsenceStub) Count(ctx context.Context) (int, error) { return 0, nil }

type dashBadgeStub struct{ badges []models.Badge }

func (d dashBadgeStub) ListByStudent(ctx context.Context, studentID string) ([]models.Badge, error) {
	return d.badges, nil
}

type dashTransportStub struct{}

func (dashTransportStub) FindByStudentID(ctx context.Context, studentID string) (*models.Transport, error) {
	return nil, sql.ErrNoRows
}

func (dashTransportStub) Count(ctx context.Context) (int, error) { return 0, nil }

type dashCourseStub struct{}

func (dashCourseStub) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	return nil, 0, nil
}

func (dashCourseStub) CountByTeacher(ctx context.Context, teacherID string) (int, error) {
	return 2, nil
}

func (dashCourseStub) Count(ctx context.Context) (int, error) { return 2, nil }

type dashQuizStub struct{}

func (dashQuizStub) CountByTeacher(ctx context.Context, teacherID string) (int, error) { return 3, nil }
func (dashQuizStub) Count(ctx context.Context) (int, error)                            { return 3, nil }

type dashNotificationStub struct{ recent []models.Notification }

func (d dashNotificationStub) ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	return d.recent, nil
}

func (d dashNotificationStub) Recent(ctx context.Context, limit int) ([]models.Notification, error) {
	return d.recent, nil
}

func (d dashNotificationStub) Count(ctx context.Context) (int, error) { return len(d.recent), nil }

type dashTeacherStub struct{ teacher models.TeacherDetail }

func (d dashTeacherStub) FindByUserID(ctx context.Context, userID string) (*models.TeacherDetail, error) {
	if d.teacher.UserID != userID {
		return nil, sql.ErrNoRows
	}
	copied := d.teacher
	return &copied, nil
}

func (d dashTeacherStub) Count(ctx context.Context) (int, error) { return 1, nil }

type dashParentStub struct{}

func (dashParentStub) Count(ctx context.Context) (int, error) { return 1, nil }

func newDashboardFixture(cache dashboardCache) (*DashboardService, *dashStudentStub) {
	userID := "user-1"
	parentID := "parent-1"
	students := &dashStudentStub{student: models.Student{
		ID: "s1", FirstName: "Amine", LastName: "Diallo", ClassLevel: "CE2",
		UserID: &userID, ParentUserID: &parentID,
	}}
	grades := &dashGradeStub{grades: []models.Grade{{ID: "g1", StudentID: "s1", Subject: "Maths", Value: 13.5}}}

	progress := NewProgressService(
		&fakeGradeReader{grades: grades.grades},
		&fakeSubmissionReader{},
		&fakeCounter{},
		&fakeCounter{},
		nil,
	)
	deps := DashboardDeps{
		Students:      students,
		Teachers:      dashTeacherStub{teacher: models.TeacherDetail{Teacher: models.Teacher{ID: "t1", UserID: "user-t"}}},
		Parents:       dashParentStub{},
		Grades:        grades,
		Absences:      dashAbsenceStub{},
		Badges:        dashBadgeStub{badges: []models.Badge{{ID: "b1", StudentID: "s1"}}},
		Transports:    dashTransportStub{},
		Courses:       dashCourseStub{},
		Quizzes:       dashQuizStub{},
		Notifications: dashNotificationStub{recent: []models.Notification{{ID: "n1", UserID: "parent-1"}}},
		Progress:      progress,
	}
	return NewDashboardService(deps, cache, time.Minute, nil), students
}

func TestStudentDashboardComposesRecords(t *testing.T) {
	svc, _ := newDashboardFixture(nil)

	resp, err := svc.StudentDashboard(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "s1", resp.Student.ID)
	assert.Len(t, resp.Grades, 1)
	assert.Len(t, resp.Badges, 1)
	assert.Nil(t, resp.Trans)
	assert.True(t, resp.Progress.Statistics.HasGrades)
	assert.InDelta(t, 13.5, resp.Progress.Statistics.AverageGrade, 0.001)
}

func TestStudentDashboardUnknownAccount(t *testing.T) {
	svc, _ := newDashboardFixture(nil)

	_, err := svc.StudentDashboard(context.Background(), "nobody")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentDashboardServedFromCache(t *testing.T) {
	cache := &memCache{}
	svc, students := newDashboardFixture(cache)
	ctx := context.Background()

	_, err := svc.StudentDashboard(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, students.calls)
	assert.Equal(t, 1, cache.sets)

	// Second call never reaches the repositories.
	resp, err := svc.StudentDashboard(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, students.calls)
	assert.Equal(t, "s1", resp.Student.ID)

	svc.Invalidate(ctx)
	_, err = svc.StudentDashboard(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, students.calls)
}

func TestParentDashboardListsChildren(t *testing.T) {
	svc, _ := newDashboardFixture(nil)

	resp, err := svc.ParentDashboard(context.Background(), "parent-1")
	require.NoError(t, err)
	require.Len(t, resp.Children, 1)
	assert.Equal(t, "s1", resp.Children[0].Student.ID)
	assert.Len(t, resp.Notifications, 1)
}

func TestTeacherDashboardStats(t *testing.T) {
	svc, _ := newDashboardFixture(nil)

	resp, err := svc.TeacherDashboard(context.Background(), "user-t")
	require.NoError(t, err)
	assert.Equal(t, "t1", resp.TeacherID)
	assert.Equal(t, 1, resp.Stats.TotalStudents)
	assert.Equal(t, 1, resp.Stats.TotalGrades)
	assert.Equal(t, 2, resp.Stats.TotalCourses)
	assert.Equal(t, 3, resp.Stats.TotalQuizzes)
	assert.InDelta(t, 13.5, resp.Stats.AverageGrade, 0.001)
}

func TestAdminDashboardCounts(t *testing.T) {
	svc, _ := newDashboardFixture(nil)

	resp, err := svc.AdminDashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Counts.Students)
	assert.Equal(t, 1, resp.Counts.Teachers)
	assert.Equal(t, 2, resp.Counts.Courses)
	assert.Equal(t, 3, resp.Counts.Quizzes)
	require.Len(t, resp.ClassAverages, 1)
	assert.Equal(t, "CE2", resp.ClassAverages[0].ClassLevel)
}
