package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smounat/ecole-plus-api/internal/models"
	"github.com/smounat/ecole-plus-api/internal/service"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
	"github.com/smounat/ecole-plus-api/pkg/response"
)

// StudentHandler wires HTTP endpoints to the student service.
type StudentHandler struct {
	service  *service.StudentService
	progress *service.ProgressService
}

// NewStudentHandler creates a new handler.
func NewStudentHandler(svc *service.StudentService, progress *service.ProgressService) *StudentHandler {
	return &StudentHandler{service: svc, progress: progress}
}

// List godoc
// @Summary List students
// @Description List students visible to the caller with pagination
// @Tags Students
// @Produce json
// @Param name query string false "Name filter"
// @Param class_level query string false "Class level filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	filter := models.StudentFilter{
		Name:       c.Query("name"),
		ClassLevel: c.Query("class_level"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}

	students, total, err := h.service.List(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, students, &models.Pagination{
		Page: filter.Page, PageSize: filter.PageSize, TotalCount: total,
	})
}

// Get godoc
// @Summary Get student
// @Description Get a student with its roster of teachers
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.service.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Progress godoc
// @Summary Student progress report
// @Description Statistics and recommendations for a student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/progress [get]
func (h *StudentHandler) Progress(c *gin.Context) {
	id := c.Param("id")
	// Visibility is the same as for the record itself.
	if _, err := h.service.Get(c.Request.Context(), claimsFromContext(c), id); err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.progress.Report(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Create godoc
// @Summary Create student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}
	student, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.UpdateStudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req service.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}
	student, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Delete student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AssignTeacher godoc
// @Summary Assign teacher to student
// @Description Put a student on a teacher's roster, idempotent
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Param teacherId path string true "Teacher ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/teachers/{teacherId} [put]
func (h *StudentHandler) AssignTeacher(c *gin.Context) {
	if err := h.service.AssignTeacher(c.Request.Context(), c.Param("id"), c.Param("teacherId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RemoveTeacher godoc
// @Summary Remove teacher from student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Param teacherId path string true "Teacher ID"
// @Success 204 {object} response.Envelope
// @Router /students/{id}/teachers/{teacherId} [delete]
func (h *StudentHandler) RemoveTeacher(c *gin.Context) {
	if err := h.service.RemoveTeacher(c.Request.Context(), c.Param("id"), c.Param("teacherId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
