package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smounat/ecole-plus-api/internal/models"
	"github.com/smounat/ecole-plus-api/internal/service"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
	"github.com/smounat/ecole-plus-api/pkg/response"
)

// AbsenceHandler wires HTTP endpoints to the absence service.
type AbsenceHandler struct {
	service  *service.AbsenceService
	students *service.StudentService
	teachers *service.TeacherService
}

// NewAbsenceHandler creates a new handler.
func NewAbsenceHandler(svc *service.AbsenceService, students *service.StudentService, teachers *service.TeacherService) *AbsenceHandler {
	return &AbsenceHandler{service: svc, students: students, teachers: teachers}
}

// List godoc
// @Summary List absences
// @Tags Absences
// @Produce json
// @Param student_id query string false "Student filter"
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Router /absences [get]
func (h *AbsenceHandler) List(c *gin.Context) {
	filter := models.AbsenceFilter{
		StudentID: c.Query("student_id"),
		TeacherID: c.Query("teacher_id"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
	}
	// Teacher callers only see their own roster regardless of the query.
	teacherID, err := callerTeacherID(c, h.teachers)
	if err != nil {
		response.Error(c, err)
		return
	}
	if teacherID != "" {
		filter.TeacherID = teacherID
	}
	absences, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, absences, &models.Pagination{
		Page: filter.Page, PageSize: filter.PageSize, TotalCount: total,
	})
}

// Summary godoc
// @Summary Absence summary for a student
// @Tags Absences
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /absences/students/{studentId}/summary [get]
func (h *AbsenceHandler) Summary(c *gin.Context) {
	studentID := c.Param("studentId")
	if _, err := h.students.Get(c.Request.Context(), claimsFromContext(c), studentID); err != nil {
		response.Error(c, err)
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Create godoc
// @Summary Record absence
// @Description Record a missed day, the parent is notified and warned past the threshold
// @Tags Absences
// @Accept json
// @Produce json
// @Param payload body service.CreateAbsenceRequest true "Absence payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /absences [post]
func (h *AbsenceHandler) Create(c *gin.Context) {
	var req service.CreateAbsenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid absence payload"))
		return
	}
	absence, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, absence)
}

// Update godoc
// @Summary Update absence
// @Tags Absences
// @Accept json
// @Produce json
// @Param id path string true "Absence ID"
// @Param payload body service.CreateAbsenceRequest true "Absence payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /absences/{id} [put]
func (h *AbsenceHandler) Update(c *gin.Context) {
	var req service.CreateAbsenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid absence payload"))
		return
	}
	absence, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, absence, nil)
}

// Delete godoc
// @Summary Delete absence
// @Tags Absences
// @Produce json
// @Param id path string true "Absence ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /absences/{id} [delete]
func (h *AbsenceHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
