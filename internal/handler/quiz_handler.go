package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smounat/ecole-plus-api/internal/models"
	"github.com/smounat/ecole-plus-api/internal/service"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
	"github.com/smounat/ecole-plus-api/pkg/response"
)

// QuizHandler wires HTTP endpoints to the quiz service.
type QuizHandler struct {
	service  *service.QuizService
	students *service.StudentService
}

// NewQuizHandler creates a new handler.
func NewQuizHandler(svc *service.QuizService, students *service.StudentService) *QuizHandler {
	return &QuizHandler{service: svc, students: students}
}

// ListByCourse godoc
// @Summary List quizzes of a course
// @Tags Quizzes
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{courseId}/quizzes [get]
func (h *QuizHandler) ListByCourse(c *gin.Context) {
	quizzes, err := h.service.ListByCourse(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quizzes, nil)
}

// Get godoc
// @Summary Get quiz with questions
// @Description Answers are never included in the payload
// @Tags Quizzes
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /quizzes/{id} [get]
func (h *QuizHandler) Get(c *gin.Context) {
	quiz, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quiz, nil)
}

// Create godoc
// @Summary Create quiz
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param payload body service.CreateQuizRequest true "Quiz payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /quizzes [post]
func (h *QuizHandler) Create(c *gin.Context) {
	var req service.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid quiz payload"))
		return
	}
	quiz, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, quiz)
}

// Submit godoc
// @Summary Submit quiz answers
// @Description Grades the attempt on the ten-point scale, repeat attempts allowed
// @Tags Quizzes
// @Accept json
// @Produce json
// @Param id path string true "Quiz ID"
// @Param payload body service.SubmitQuizRequest true "Answers keyed by question ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /quizzes/{id}/submit [post]
func (h *QuizHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil || claims.Role != models.RoleStudent {
		response.Error(c, appErrors.Clone(appErrors.ErrAccessDenied, "only students submit quizzes"))
		return
	}
	student, err := h.students.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.SubmitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	result, err := h.service.Submit(c.Request.Context(), student.ID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
