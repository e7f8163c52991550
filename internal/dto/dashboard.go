package dto

import "github.com/smounat/ecole-plus-api/internal/models"

// DashboardTarget names the destination a role is routed to after login.
type DashboardTarget string

const (
	TargetStudentDashboard DashboardTarget = "student_dashboard"
	TargetParentDashboard  DashboardTarget = "parent_dashboard"
	TargetTeacherDashboard DashboardTarget = "teacher_dashboard"
	TargetAdminDashboard   DashboardTarget = "admin_dashboard"
	TargetLogin            DashboardTarget = "login"
)

// StudentDashboardResponse is the personal dashboard of a pupil.
type StudentDashboardResponse struct {
	Student  models.Student         `json:"student"`
	Grades   []models.Grade         `json:"grades"`
	Absences []models.Absence       `json:"absences"`
	Teachers []models.TeacherDetail `json:"teachers"`
	Badges   []models.Badge         `json:"badges"`
	Trans    *models.Transport      `json:"transport,omitempty"`
	Progress models.ProgressReport  `json:"progress"`
}

// ChildSummary aggregates one child's records for the parent dashboard.
type ChildSummary struct {
	Student  models.Student         `json:"student"`
	Grades   []models.Grade         `json:"grades"`
	Absences []models.Absence       `json:"absences"`
	Teachers []models.TeacherDetail `json:"teachers"`
	Trans    *models.Transport      `json:"transport,omitempty"`
}

// ParentDashboardResponse lists the parent's children and recent notifications.
type ParentDashboardResponse struct {
	Children      []ChildSummary        `json:"children"`
	Notifications []models.Notification `json:"notifications"`
}

// TeacherStats are the headline counters of the teacher dashboard.
type TeacherStats struct {
	TotalStudents    int     `json:"total_students"`
	TotalGrades      int     `json:"total_grades"`
	TotalAbsences    int     `json:"total_absences"`
	AverageGrade     float64 `json:"average_grade"`
	AbsencesLast7    int     `json:"absences_last_7_days"`
	TotalCourses     int     `json:"total_courses"`
	TotalQuizzes     int     `json:"total_quizzes"`
}

// ClassCount is the number of roster students per class level.
type ClassCount struct {
	ClassLevel string `db:"class_level" json:"class_level"`
	Total      int    `db:"total" json:"total"`
}

// TeacherDashboardResponse captures the personalised teacher dashboard.
type TeacherDashboardResponse struct {
	TeacherID        string                  `json:"teacher_id"`
	Stats            TeacherStats            `json:"stats"`
	StudentsPerClass []ClassCount            `json:"students_per_class"`
	SubjectAverages  []models.SubjectAverage `json:"subject_averages"`
	RecentGrades     []models.GradeDetail    `json:"recent_grades"`
	RecentAbsences   []models.AbsenceDetail  `json:"recent_absences"`
	Courses          []models.CourseDetail   `json:"courses"`
}

// AdminCounts are the global entity counters of the admin dashboard.
type AdminCounts struct {
	Students      int `json:"students"`
	Parents       int `json:"parents"`
	Teachers      int `json:"teachers"`
	Courses       int `json:"courses"`
	Quizzes       int `json:"quizzes"`
	Grades        int `json:"grades"`
	Absences      int `json:"absences"`
	Transports    int `json:"transports"`
	Notifications int `json:"notifications"`
}

// AdminDashboardResponse aggregates the school-wide dashboard payload.
type AdminDashboardResponse struct {
	Counts              AdminCounts           `json:"counts"`
	ClassAverages       []models.ClassAverage `json:"class_averages"`
	RecentNotifications []models.Notification `json:"recent_notifications"`
}
