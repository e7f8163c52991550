package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smounat/ecole-plus-api/internal/service"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
	"github.com/smounat/ecole-plus-api/pkg/response"
)

// TransportHandler wires HTTP endpoints to the transport service.
type TransportHandler struct {
	service  *service.TransportService
	students *service.StudentService
}

// NewTransportHandler creates a new handler.
func NewTransportHandler(svc *service.TransportService, students *service.StudentService) *TransportHandler {
	return &TransportHandler{service: svc, students: students}
}

// List godoc
// @Summary List transport records
// @Tags Transport
// @Produce json
// @Param mode query string false "Mode filter"
// @Success 200 {object} response.Envelope
// @Router /transports [get]
func (h *TransportHandler) List(c *gin.Context) {
	transports, total, err := h.service.List(c.Request.Context(), c.Query("mode"), queryInt(c, "page", 1), queryInt(c, "page_size", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"items": transports, "total": total}, nil)
}

// Get godoc
// @Summary Transport record of a student
// @Tags Transport
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /transports/students/{studentId} [get]
func (h *TransportHandler) Get(c *gin.Context) {
	studentID := c.Param("studentId")

	// Visibility follows the student record: parents see their own children,
	// teachers their roster, students themselves, admins everything.
	if _, err := h.students.Get(c.Request.Context(), claimsFromContext(c), studentID); err != nil {
		response.Error(c, err)
		return
	}

	transport, err := h.service.Get(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	// A registered bus rider may not have reported a position yet.
	if transport.Latitude == nil || transport.Longitude == nil {
		response.JSON(c, http.StatusOK, transport, nil, map[string]interface{}{"position": "no_position"})
		return
	}
	response.JSON(c, http.StatusOK, transport, nil)
}

// Create godoc
// @Summary Register transport
// @Tags Transport
// @Accept json
// @Produce json
// @Param payload body service.CreateTransportRequest true "Transport payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /transports [post]
func (h *TransportHandler) Create(c *gin.Context) {
	var req service.CreateTransportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transport payload"))
		return
	}
	transport, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, transport)
}

// UpdatePosition godoc
// @Summary Report GPS position
// @Description Both coordinates are required, a partial ping is rejected with the missing field names
// @Tags Transport
// @Accept json
// @Produce json
// @Param id path string true "Transport ID"
// @Param payload body service.UpdatePositionRequest true "Coordinates"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /transports/{id}/position [put]
func (h *TransportHandler) UpdatePosition(c *gin.Context) {
	var req service.UpdatePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid position payload"))
		return
	}
	transport, err := h.service.UpdatePosition(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transport, nil)
}

// AnnounceArrival godoc
// @Summary Announce bus arrival
// @Description Notifies the parents of every rider of the bus
// @Tags Transport
// @Produce json
// @Param busNumber path string true "Bus number"
// @Success 200 {object} response.Envelope
// @Router /transports/bus/{busNumber}/arrival [post]
func (h *TransportHandler) AnnounceArrival(c *gin.Context) {
	notified, err := h.service.AnnounceBusArrival(c.Request.Context(), c.Param("busNumber"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"notified": notified}, nil)
}

// Update godoc
// @Summary Update transport record
// @Tags Transport
// @Accept json
// @Produce json
// @Param id path string true "Transport ID"
// @Param payload body service.CreateTransportRequest true "Transport payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /transports/{id} [put]
func (h *TransportHandler) Update(c *gin.Context) {
	var req service.CreateTransportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transport payload"))
		return
	}
	transport, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transport, nil)
}

// Delete godoc
// @Summary Delete transport record
// @Tags Transport
// @Produce json
// @Param id path string true "Transport ID"
// @Success 204 {object} response.Envelope
// @Router /transports/{id} [delete]
func (h *TransportHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
