package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/smounat/ecole-plus-api/internal/dto"
	"github.com/smounat/ecole-plus-api/internal/models"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
)

const (
	dashboardKeyPrefix  = "dashboard:"
	recentListLimit     = 10
	defaultDashboardTTL = 5 * time.Minute
)

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type dashStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
	ListByParentUser(ctx context.Context, parentUserID string) ([]models.Student, error)
	TeachersOf(ctx context.Context, studentID string) ([]models.TeacherDetail, error)
	Count(ctx context.Context) (int, error)
	CountPerClass(ctx context.Context, teacherID string) ([]dto.ClassCount, error)
}

type dashGradeReader interface {
	List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error)
	SubjectAverages(ctx context.Context, teacherID string) ([]models.SubjectAverage, error)
	ClassAverages(ctx context.Context) ([]models.ClassAverage, error)
	CountByTeacher(ctx context.Context, teacherID string) (int, float64, error)
	Count(ctx context.Context) (int, error)
}

type dashAbsenceReader interface {
	List(ctx context.Context, filter models.AbsenceFilter) ([]models.AbsenceDetail, int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Absence, error)
	CountByTeacher(ctx context.Context, teacherID string) (int, error)
	CountByTeacherSince(ctx context.Context, teacherID string, since time.Time) (int, error)
	Count(ctx context.Context) (int, error)
}

type dashBadgeReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Badge, error)
}

type dashTransportReader interface {
	FindByStudentID(ctx context.Context, studentID string) (*models.Transport, error)
	Count(ctx context.Context) (int, error)
}

type dashCourseReader interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	CountByTeacher(ctx context.Context, teacherID string) (int, error)
	Count(ctx context.Context) (int, error)
}

type dashQuizReader interface {
	CountByTeacher(ctx context.Context, teacherID string) (int, error)
	Count(ctx context.Context) (int, error)
}

type dashNotificationReader interface {
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	Recent(ctx context.Context, limit int) ([]models.Notification, error)
	Count(ctx context.Context) (int, error)
}

type dashTeacherReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.TeacherDetail, error)
	Count(ctx context.Context) (int, error)
}

type dashParentReader interface {
	Count(ctx context.Context) (int, error)
}

// DashboardDeps bundles the read models the dashboards are composed from.
type DashboardDeps struct {
	Students      dashStudentReader
	Teachers      dashTeacherReader
	Parents       dashParentReader
	Grades        dashGradeReader
	Absences      dashAbsenceReader
	Badges        dashBadgeReader
	Transports    dashTransportReader
	Courses       dashCourseReader
	Quizzes       dashQuizReader
	Notifications dashNotificationReader
	Progress      *ProgressService
}

// DashboardService composes the per-role dashboard payloads. Responses are
// cached in Redis for a short TTL and invalidated wholesale on writes.
type DashboardService struct {
	deps   DashboardDeps
	cache  dashboardCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewDashboardService constructs a DashboardService. A nil cache disables
// caching.
func NewDashboardService(deps DashboardDeps, cache dashboardCache, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultDashboardTTL
	}
	return &DashboardService{deps: deps, cache: cache, ttl: ttl, logger: logger}
}

// StudentDashboard assembles the pupil dashboard for the given account.
func (s *DashboardService) StudentDashboard(ctx context.Context, userID string) (*dto.StudentDashboardResponse, error) {
	key := dashboardKeyPrefix + "student:" + userID
	var cached dto.StudentDashboardResponse
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	student, err := s.deps.Students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no student record for this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	summary, err := s.childSummary(ctx, *student)
	if err != nil {
		return nil, err
	}
	badges, err := s.deps.Badges.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load badges")
	}
	report, err := s.deps.Progress.Report(ctx, student.ID)
	if err != nil {
		return nil, err
	}

	resp := &dto.StudentDashboardResponse{
		Student:  summary.Student,
		Grades:   summary.Grades,
		Absences: summary.Absences,
		Teachers: summary.Teachers,
		Badges:   badges,
		Trans:    summary.Trans,
		Progress: *report,
	}
	s.toCache(ctx, key, resp)
	return resp, nil
}

// ParentDashboard assembles the parent dashboard with one summary per child.
func (s *DashboardService) ParentDashboard(ctx context.Context, userID string) (*dto.ParentDashboardResponse, error) {
	key := dashboardKeyPrefix + "parent:" + userID
	var cached dto.ParentDashboardResponse
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	children, err := s.deps.Students.ListByParentUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list children")
	}

	resp := &dto.ParentDashboardResponse{Children: []dto.ChildSummary{}}
	for _, child := range children {
		summary, err := s.childSummary(ctx, child)
		if err != nil {
			return nil, err
		}
		resp.Children = append(resp.Children, *summary)
	}

	notifications, err := s.deps.Notifications.ListByUser(ctx, userID, recentListLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notifications")
	}
	resp.Notifications = notifications

	s.toCache(ctx, key, resp)
	return resp, nil
}

// TeacherDashboard assembles the teacher dashboard scoped to the roster.
func (s *DashboardService) TeacherDashboard(ctx context.Context, userID string) (*dto.TeacherDashboardResponse, error) {
	key := dashboardKeyPrefix + "teacher:" + userID
	var cached dto.TeacherDashboardResponse
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	teacher, err := s.deps.Teachers.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no teacher record for this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	resp := &dto.TeacherDashboardResponse{TeacherID: teacher.ID}

	perClass, err := s.deps.Students.CountPerClass(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count roster")
	}
	resp.StudentsPerClass = perClass
	for _, c := range perClass {
		resp.Stats.TotalStudents += c.Total
	}

	gradeCount, avg, err := s.deps.Grades.CountByTeacher(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count grades")
	}
	resp.Stats.TotalGrades = gradeCount
	resp.Stats.AverageGrade = avg

	resp.Stats.TotalAbsences, err = s.deps.Absences.CountByTeacher(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count absences")
	}
	resp.Stats.AbsencesLast7, err = s.deps.Absences.CountByTeacherSince(ctx, teacher.ID, time.Now().AddDate(0, 0, -7))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count recent absences")
	}
	resp.Stats.TotalCourses, err = s.deps.Courses.CountByTeacher(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count courses")
	}
	resp.Stats.TotalQuizzes, err = s.deps.Quizzes.CountByTeacher(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count quizzes")
	}

	resp.SubjectAverages, err = s.deps.Grades.SubjectAverages(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject averages")
	}

	recentGrades, _, err := s.deps.Grades.List(ctx, models.GradeFilter{TeacherID: teacher.ID, Page: 1, PageSize: recentListLimit})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent grades")
	}
	resp.RecentGrades = recentGrades

	recentAbsences, _, err := s.deps.Absences.List(ctx, models.AbsenceFilter{TeacherID: teacher.ID, Page: 1, PageSize: recentListLimit})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recent absences")
	}
	resp.RecentAbsences = recentAbsences

	courses, _, err := s.deps.Courses.List(ctx, models.CourseFilter{TeacherID: teacher.ID, Page: 1, PageSize: recentListLimit})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	resp.Courses = courses

	s.toCache(ctx, key, resp)
	return resp, nil
}

// AdminDashboard assembles the school-wide dashboard.
func (s *DashboardService) AdminDashboard(ctx context.Context) (*dto.AdminDashboardResponse, error) {
	key := dashboardKeyPrefix + "admin"
	var cached dto.AdminDashboardResponse
	if s.fromCache(ctx, key, &cached) {
		return &cached, nil
	}

	resp := &dto.AdminDashboardResponse{}
	counters := []struct {
		dest  *int
		count func(context.Context) (int, error)
		what  string
	}{
		{&resp.Counts.Students, s.deps.Students.Count, "students"},
		{&resp.Counts.Parents, s.deps.Parents.Count, "parents"},
		{&resp.Counts.Teachers, s.deps.Teachers.Count, "teachers"},
		{&resp.Counts.Courses, s.deps.Courses.Count, "courses"},
		{&resp.Counts.Quizzes, s.deps.Quizzes.Count, "quizzes"},
		{&resp.Counts.Grades, s.deps.Grades.Count, "grades"},
		{&resp.Counts.Absences, s.deps.Absences.Count, "absences"},
		{&resp.Counts.Transports, s.deps.Transports.Count, "transports"},
		{&resp.Counts.Notifications, s.deps.Notifications.Count, "notifications"},
	}
	for _, c := range counters {
		total, err := c.count(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count "+c.what)
		}
		*c.dest = total
	}

	classAverages, err := s.deps.Grades.ClassAverages(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class averages")
	}
	resp.ClassAverages = classAverages

	notifications, err := s.deps.Notifications.Recent(ctx, recentListLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notifications")
	}
	resp.RecentNotifications = notifications

	s.toCache(ctx, key, resp)
	return resp, nil
}

// Invalidate drops every cached dashboard. Called after writes that feed the
// dashboards.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, dashboardKeyPrefix+"*"); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) childSummary(ctx context.Context, student models.Student) (*dto.ChildSummary, error) {
	grades, err := s.deps.Grades.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}
	absences, err := s.deps.Absences.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load absences")
	}
	teachers, err := s.deps.Students.TeachersOf(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}

	summary := &dto.ChildSummary{Student: student, Grades: grades, Absences: absences, Teachers: teachers}

	transport, err := s.deps.Transports.FindByStudentID(ctx, student.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transport")
	}
	if err == nil {
		summary.Trans = transport
	}
	return summary, nil
}

func (s *DashboardService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	if err := s.cache.Get(ctx, key, dest); err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return true
}

func (s *DashboardService) toCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}
