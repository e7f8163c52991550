package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smounat/ecole-plus-api/internal/middleware"
	"github.com/smounat/ecole-plus-api/internal/models"
	"github.com/smounat/ecole-plus-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth          *AuthHandler
	Dashboard     *DashboardHandler
	Users         *UserHandler
	Students      *StudentHandler
	Teachers      *TeacherHandler
	Parents       *ParentHandler
	Grades        *GradeHandler
	Absences      *AbsenceHandler
	Courses       *CourseHandler
	Quizzes       *QuizHandler
	Games         *GameHandler
	Transports    *TransportHandler
	Payments      *PaymentHandler
	Timetable     *TimetableHandler
	Notifications *NotificationHandler
	Chatbot       *ChatbotHandler
}

// invalidateDashboards drops the cached dashboards after a successful write.
func invalidateDashboards(dashboards *service.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Request.Method != http.MethodGet && c.Writer.Status() < http.StatusBadRequest {
			dashboards.Invalidate(c.Request.Context())
		}
	}
}

// RegisterRoutes mounts every API route under the prefix. Write surfaces are
// gated per role, read surfaces rely on service-level scoping.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService, dashboards *service.DashboardService) {
	api := r.Group(prefix)

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)

	// Signed token in the query string is the access control here, no JWT.
	api.GET("/courses/:id/material", h.Courses.DownloadMaterial)

	authed := api.Group("", middleware.JWT(auth))
	{
		authed.POST("/auth/logout", h.Auth.Logout)
		authed.PUT("/auth/password", h.Auth.ChangePassword)

		authed.GET("/dashboard", h.Dashboard.Me)
		authed.GET("/dashboard/route", h.Dashboard.Route)

		// Admins read any account, everyone else only their own.
		authed.GET("/users/:id", middleware.RBAC("ADMIN", "SELF"), h.Users.Get)

		authed.GET("/students", h.Students.List)
		authed.GET("/students/:id", h.Students.Get)
		authed.GET("/students/:id/progress", h.Students.Progress)

		authed.GET("/teachers", h.Teachers.List)
		authed.GET("/teachers/:id", h.Teachers.Get)

		authed.GET("/courses", h.Courses.List)
		authed.GET("/courses/:id", h.Courses.Get)
		authed.GET("/courses/:id/material-link", h.Courses.MaterialLink)
		authed.GET("/courses/:id/progress", h.Courses.Progress)

		authed.GET("/courses/:id/quizzes", h.Quizzes.ListByCourse)
		authed.GET("/quizzes/:id", h.Quizzes.Get)
		authed.POST("/quizzes/:id/submit", h.Quizzes.Submit)

		authed.GET("/games", h.Games.Overview)
		authed.POST("/games/word-hunt", h.Games.StartWordHunt)
		authed.POST("/games/word-hunt/:sessionId/guess", h.Games.CheckWord)
		authed.POST("/games/math", h.Games.StartMath)
		authed.POST("/games/math/:sessionId/answer", h.Games.CheckMath)
		authed.POST("/games/problems", h.Games.StartProblem)
		authed.POST("/games/problems/:sessionId/answer", h.Games.CheckProblem)

		authed.GET("/absences/students/:studentId/summary", h.Absences.Summary)
		authed.GET("/transports/students/:studentId", h.Transports.Get)
		authed.GET("/timetable", h.Timetable.List)

		authed.GET("/notifications", h.Notifications.List)
		authed.PUT("/notifications/read-all", h.Notifications.MarkAllRead)
		authed.PUT("/notifications/:id/read", h.Notifications.MarkRead)

		authed.POST("/chatbot", h.Chatbot.Ask)
		authed.GET("/chatbot/history", h.Chatbot.History)
		authed.DELETE("/chatbot/history", h.Chatbot.Reset)
	}

	staff := api.Group("", middleware.JWT(auth), middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), invalidateDashboards(dashboards))
	{
		staff.GET("/grades", h.Grades.List)
		staff.POST("/grades", h.Grades.Create)
		staff.PUT("/grades/:id", h.Grades.Update)
		staff.DELETE("/grades/:id", h.Grades.Delete)
		staff.GET("/grades/export", h.Grades.ExportCSV)

		staff.GET("/absences", h.Absences.List)
		staff.POST("/absences", h.Absences.Create)
		staff.PUT("/absences/:id", h.Absences.Update)
		staff.DELETE("/absences/:id", h.Absences.Delete)

		staff.POST("/courses", h.Courses.Create)
		staff.PUT("/courses/:id", h.Courses.Update)
		staff.DELETE("/courses/:id", h.Courses.Delete)
		staff.POST("/courses/:id/material", h.Courses.UploadMaterial)

		staff.POST("/quizzes", h.Quizzes.Create)

		staff.GET("/transports", h.Transports.List)
		staff.PUT("/transports/:id/position", h.Transports.UpdatePosition)
		staff.POST("/transports/bus/:busNumber/arrival", h.Transports.AnnounceArrival)
	}

	admin := api.Group("", middleware.JWT(auth), middleware.RequireRoles(models.RoleAdmin), invalidateDashboards(dashboards))
	{
		admin.GET("/users", h.Users.List)
		admin.POST("/users", h.Users.Create)
		admin.PUT("/users/:id", h.Users.Update)
		admin.DELETE("/users/:id", h.Users.Delete)

		admin.POST("/students", h.Students.Create)
		admin.PUT("/students/:id", h.Students.Update)
		admin.DELETE("/students/:id", h.Students.Delete)
		admin.POST("/students/:id/teachers/:teacherId", h.Students.AssignTeacher)
		admin.DELETE("/students/:id/teachers/:teacherId", h.Students.RemoveTeacher)

		admin.POST("/teachers", h.Teachers.Create)
		admin.PUT("/teachers/:id", h.Teachers.Update)
		admin.DELETE("/teachers/:id", h.Teachers.Delete)

		admin.GET("/parents", h.Parents.List)
		admin.GET("/parents/:id", h.Parents.Get)
		admin.POST("/parents", h.Parents.Create)
		admin.PUT("/parents/:id", h.Parents.Update)
		admin.DELETE("/parents/:id", h.Parents.Delete)

		admin.POST("/transports", h.Transports.Create)
		admin.PUT("/transports/:id", h.Transports.Update)
		admin.DELETE("/transports/:id", h.Transports.Delete)

		admin.POST("/payments/students", h.Payments.CreateStudentPayment)
		admin.GET("/payments/students", h.Payments.ListStudentPayments)
		admin.GET("/payments/students/:id/receipt", h.Payments.StudentReceipt)
		admin.DELETE("/payments/students/:id", h.Payments.DeleteStudentPayment)
		admin.POST("/payments/teachers", h.Payments.CreateTeacherPayment)
		admin.GET("/payments/teachers", h.Payments.ListTeacherPayments)
		admin.DELETE("/payments/teachers/:id", h.Payments.DeleteTeacherPayment)

		admin.POST("/timetable", h.Timetable.Create)
		admin.PUT("/timetable/:id", h.Timetable.Update)
		admin.DELETE("/timetable/:id", h.Timetable.Delete)
	}
}
