package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smounat/ecole-plus-api/internal/service"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
	"github.com/smounat/ecole-plus-api/pkg/response"
)

// TimetableHandler wires HTTP endpoints to the timetable service.
type TimetableHandler struct {
	service *service.TimetableService
}

// NewTimetableHandler creates a new handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// List godoc
// @Summary List timetable slots
// @Tags Timetable
// @Produce json
// @Param day query string false "School day filter"
// @Success 200 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) List(c *gin.Context) {
	slots, err := h.service.List(c.Request.Context(), c.Query("day"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Create godoc
// @Summary Create timetable slot
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body service.CreateTimetableSlotRequest true "Slot payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetable [post]
func (h *TimetableHandler) Create(c *gin.Context) {
	var req service.CreateTimetableSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable payload"))
		return
	}
	slot, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// Update godoc
// @Summary Update timetable slot
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param payload body service.CreateTimetableSlotRequest true "Slot payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/{id} [put]
func (h *TimetableHandler) Update(c *gin.Context) {
	var req service.CreateTimetableSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable payload"))
		return
	}
	slot, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// Delete godoc
// @Summary Delete timetable slot
// @Tags Timetable
// @Produce json
// @Param id path string true "Slot ID"
// @Success 204 {object} response.Envelope
// @Router /timetable/{id} [delete]
func (h *TimetableHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
