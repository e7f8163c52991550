package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smounat/ecole-plus-api/internal/models"
	"github.com/smounat/ecole-plus-api/internal/service"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
	"github.com/smounat/ecole-plus-api/pkg/response"
)

// GradeHandler wires HTTP endpoints to the grade service.
type GradeHandler struct {
	service  *service.GradeService
	teachers *service.TeacherService
}

// NewGradeHandler creates a new handler.
func NewGradeHandler(svc *service.GradeService, teachers *service.TeacherService) *GradeHandler {
	return &GradeHandler{service: svc, teachers: teachers}
}

// gradeFilterFromQuery builds the listing filter. Teacher callers are pinned
// to their own grade entries regardless of the teacher_id query parameter.
func (h *GradeHandler) gradeFilterFromQuery(c *gin.Context) (models.GradeFilter, error) {
	filter := models.GradeFilter{
		StudentID:  c.Query("student_id"),
		TeacherID:  c.Query("teacher_id"),
		Subject:    c.Query("subject"),
		ClassLevel: c.Query("class_level"),
		Search:     c.Query("search"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
	}
	teacherID, err := callerTeacherID(c, h.teachers)
	if err != nil {
		return models.GradeFilter{}, err
	}
	if teacherID != "" {
		filter.TeacherID = teacherID
	}
	return filter, nil
}

// List godoc
// @Summary List grades
// @Tags Grades
// @Produce json
// @Param student_id query string false "Student filter"
// @Param subject query string false "Subject filter"
// @Param page query int false "Page"
// @Success 200 {object} response.Envelope
// @Router /grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	filter, err := h.gradeFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	grades, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, &models.Pagination{
		Page: filter.Page, PageSize: filter.PageSize, TotalCount: total,
	})
}

// Create godoc
// @Summary Record grade
// @Description Record a mark on the 0-20 scale, the parent is notified
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.CreateGradeRequest true "Grade payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) Create(c *gin.Context) {
	var req service.CreateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grade payload"))
		return
	}
	teacherID, err := callerTeacherID(c, h.teachers)
	if err != nil {
		response.Error(c, err)
		return
	}
	req.TeacherID = teacherID
	grade, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grade)
}

// Update godoc
// @Summary Update grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Grade ID"
// @Param payload body service.CreateGradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grades/{id} [put]
func (h *GradeHandler) Update(c *gin.Context) {
	var req service.CreateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grade payload"))
		return
	}
	teacherID, err := callerTeacherID(c, h.teachers)
	if err != nil {
		response.Error(c, err)
		return
	}
	grade, err := h.service.Update(c.Request.Context(), c.Param("id"), teacherID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grade, nil)
}

// Delete godoc
// @Summary Delete grade
// @Tags Grades
// @Produce json
// @Param id path string true "Grade ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grades/{id} [delete]
func (h *GradeHandler) Delete(c *gin.Context) {
	teacherID, err := callerTeacherID(c, h.teachers)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), teacherID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportCSV godoc
// @Summary Export grades as CSV
// @Tags Grades
// @Produce text/csv
// @Param student_id query string false "Student filter"
// @Success 200 {string} string "CSV document"
// @Router /grades/export [get]
func (h *GradeHandler) ExportCSV(c *gin.Context) {
	filter, err := h.gradeFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := h.service.ExportCSV(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="grades.csv"`)
	c.Data(http.StatusOK, "text/csv", payload)
}
