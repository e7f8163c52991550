package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smounat/ecole-plus-api/internal/models"
	"github.com/smounat/ecole-plus-api/internal/service"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
	"github.com/smounat/ecole-plus-api/pkg/response"
)

// GameHandler wires HTTP endpoints to the mini-game service.
type GameHandler struct {
	service  *service.GameService
	students *service.StudentService
}

// NewGameHandler creates a new handler.
func NewGameHandler(svc *service.GameService, students *service.StudentService) *GameHandler {
	return &GameHandler{service: svc, students: students}
}

func (h *GameHandler) currentStudent(c *gin.Context) (*models.Student, bool) {
	claims := claimsFromContext(c)
	if claims == nil || claims.Role != models.RoleStudent {
		response.Error(c, appErrors.Clone(appErrors.ErrAccessDenied, "mini-games are for student accounts"))
		return nil, false
	}
	student, err := h.students.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return student, true
}

// Overview godoc
// @Summary Mini-game progression
// @Description Earned mini-game badges and completion percentage
// @Tags Games
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /games [get]
func (h *GameHandler) Overview(c *gin.Context) {
	student, ok := h.currentStudent(c)
	if !ok {
		return
	}
	overview, err := h.service.Overview(c.Request.Context(), student.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview, nil)
}

// StartWordHunt godoc
// @Summary Start a word-hunt round
// @Tags Games
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /games/word-hunt [post]
func (h *GameHandler) StartWordHunt(c *gin.Context) {
	if _, ok := h.currentStudent(c); !ok {
		return
	}
	round, err := h.service.StartWordHunt(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, round, nil)
}

// CheckWord godoc
// @Summary Submit a word-hunt guess
// @Tags Games
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body map[string]string true "Guess"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /games/word-hunt/{sessionId} [post]
func (h *GameHandler) CheckWord(c *gin.Context) {
	student, ok := h.currentStudent(c)
	if !ok {
		return
	}
	var payload struct {
		Guess string `json:"guess" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrMissingFields, "missing fields: guess"))
		return
	}
	turn, err := h.service.CheckWord(c.Request.Context(), c.Param("sessionId"), student.ID, payload.Guess)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, turn, nil)
}

// StartMath godoc
// @Summary Start a mental-math round
// @Tags Games
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /games/math [post]
func (h *GameHandler) StartMath(c *gin.Context) {
	if _, ok := h.currentStudent(c); !ok {
		return
	}
	round, err := h.service.StartMath(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, round, nil)
}

// CheckMath godoc
// @Summary Submit a mental-math answer
// @Tags Games
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body map[string]int true "Answer"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /games/math/{sessionId} [post]
func (h *GameHandler) CheckMath(c *gin.Context) {
	student, ok := h.currentStudent(c)
	if !ok {
		return
	}
	var payload struct {
		Answer *int `json:"answer" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrMissingFields, "missing fields: answer"))
		return
	}
	turn, err := h.service.CheckMath(c.Request.Context(), c.Param("sessionId"), student.ID, *payload.Answer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, turn, nil)
}

// StartProblem godoc
// @Summary Start an illustrated-problem round
// @Tags Games
// @Produce json
// @Param level query string false "Class level"
// @Success 200 {object} response.Envelope
// @Router /games/problem [post]
func (h *GameHandler) StartProblem(c *gin.Context) {
	student, ok := h.currentStudent(c)
	if !ok {
		return
	}
	level := c.Query("level")
	if level == "" {
		level = student.ClassLevel
	}
	round, session, err := h.service.StartProblem(c.Request.Context(), level)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"round": round, "session": session}, nil)
}

// CheckProblem godoc
// @Summary Submit an illustrated-problem answer
// @Tags Games
// @Accept json
// @Produce json
// @Param sessionId path string true "Session ID"
// @Param payload body map[string]string true "Problem ID and answer"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /games/problem/{sessionId} [post]
func (h *GameHandler) CheckProblem(c *gin.Context) {
	student, ok := h.currentStudent(c)
	if !ok {
		return
	}
	var payload struct {
		ProblemID string `json:"problem_id" binding:"required"`
		Answer    string `json:"answer" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrMissingFields, "missing fields: problem_id, answer"))
		return
	}
	turn, err := h.service.CheckProblem(c.Request.Context(), c.Param("sessionId"), student.ID, payload.ProblemID, payload.Answer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, turn, nil)
}
