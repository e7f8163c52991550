package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smounat/ecole-plus-api/internal/service"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
	"github.com/smounat/ecole-plus-api/pkg/response"
)

// ParentHandler wires HTTP endpoints to the parent service.
type ParentHandler struct {
	service *service.ParentService
}

// NewParentHandler creates a new handler.
func NewParentHandler(svc *service.ParentService) *ParentHandler {
	return &ParentHandler{service: svc}
}

// List godoc
// @Summary List guardian contacts
// @Tags Parents
// @Produce json
// @Param search query string false "Name search"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /parents [get]
func (h *ParentHandler) List(c *gin.Context) {
	parents, total, err := h.service.List(c.Request.Context(), c.Query("search"), queryInt(c, "page", 1), queryInt(c, "page_size", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"items": parents, "total": total}, nil)
}

// Get godoc
// @Summary Get guardian contact
// @Tags Parents
// @Produce json
// @Param id path string true "Parent ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /parents/{id} [get]
func (h *ParentHandler) Get(c *gin.Context) {
	parent, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parent, nil)
}

// Create godoc
// @Summary Register guardian contact
// @Tags Parents
// @Accept json
// @Produce json
// @Param payload body service.CreateParentRequest true "Parent payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /parents [post]
func (h *ParentHandler) Create(c *gin.Context) {
	var req service.CreateParentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid parent payload"))
		return
	}
	parent, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, parent)
}

// Update godoc
// @Summary Update guardian contact
// @Tags Parents
// @Accept json
// @Produce json
// @Param id path string true "Parent ID"
// @Param payload body service.CreateParentRequest true "Parent payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /parents/{id} [put]
func (h *ParentHandler) Update(c *gin.Context) {
	var req service.CreateParentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid parent payload"))
		return
	}
	parent, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parent, nil)
}

// Delete godoc
// @Summary Delete guardian contact
// @Tags Parents
// @Produce json
// @Param id path string true "Parent ID"
// @Success 204 {object} response.Envelope
// @Router /parents/{id} [delete]
func (h *ParentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
