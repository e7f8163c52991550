package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smounat/ecole-plus-api/internal/models"
	"github.com/smounat/ecole-plus-api/internal/service"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
	"github.com/smounat/ecole-plus-api/pkg/response"
)

// CourseHandler wires HTTP endpoints to the course service.
type CourseHandler struct {
	service *service.CourseService
}

// NewCourseHandler creates a new handler.
func NewCourseHandler(svc *service.CourseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param teacher_id query string false "Teacher filter"
// @Param class_level query string false "Class level filter"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	filter := models.CourseFilter{
		TeacherID:  c.Query("teacher_id"),
		ClassLevel: c.Query("class_level"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 20),
	}
	courses, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, &models.Pagination{
		Page: filter.Page, PageSize: filter.PageSize, TotalCount: total,
	})
}

// Get godoc
// @Summary Get course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create godoc
// @Summary Create course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Update course
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.CreateCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	var req service.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete godoc
// @Summary Delete course
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 204 {object} response.Envelope
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UploadMaterial godoc
// @Summary Upload course material
// @Description Attach a PDF document to the course
// @Tags Courses
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Course ID"
// @Param file formData file true "PDF document"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses/{id}/material [post]
func (h *CourseHandler) UploadMaterial(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrMissingFields, "missing fields: file"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read upload"))
		return
	}
	defer file.Close()

	course, err := h.service.UploadMaterial(c.Request.Context(), c.Param("id"), fileHeader.Filename, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// MaterialLink godoc
// @Summary Issue a signed material link
// @Description Returns a time-limited token for downloading the course material
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id}/material/link [get]
func (h *CourseHandler) MaterialLink(c *gin.Context) {
	link, err := h.service.MaterialLink(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// DownloadMaterial godoc
// @Summary Download course material
// @Description Streams the PDF behind a valid signed token
// @Tags Courses
// @Produce application/pdf
// @Param token query string true "Signed token"
// @Success 200 {string} string "PDF document"
// @Failure 403 {object} response.Envelope
// @Router /courses/material/download [get]
func (h *CourseHandler) DownloadMaterial(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrMissingFields, "missing fields: token"))
		return
	}
	file, err := h.service.OpenMaterial(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", `attachment; filename="material.pdf"`)
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	io.Copy(c.Writer, file)
}

// Progress godoc
// @Summary Course progress for the current student
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Param student_id query string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/progress [get]
func (h *CourseHandler) Progress(c *gin.Context) {
	studentID := c.Query("student_id")
	if studentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrMissingFields, "missing fields: student_id"))
		return
	}
	progress, err := h.service.Progress(c.Request.Context(), studentID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}
