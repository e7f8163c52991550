package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smounat/ecole-plus-api/internal/service"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
	"github.com/smounat/ecole-plus-api/pkg/response"
)

// ChatbotHandler wires HTTP endpoints to the chatbot service.
type ChatbotHandler struct {
	service *service.ChatbotService
}

// NewChatbotHandler creates a new handler.
func NewChatbotHandler(svc *service.ChatbotService) *ChatbotHandler {
	return &ChatbotHandler{service: svc}
}

// Ask godoc
// @Summary Ask the school assistant
// @Tags Chatbot
// @Accept json
// @Produce json
// @Param payload body map[string]string true "Message"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /chatbot [post]
func (h *ChatbotHandler) Ask(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrMissingFields, "missing fields: message"))
		return
	}
	reply, err := h.service.Ask(c.Request.Context(), claims.UserID, payload.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reply, nil)
}

// History godoc
// @Summary My assistant conversation
// @Tags Chatbot
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /chatbot/history [get]
func (h *ChatbotHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	history, err := h.service.History(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// Reset godoc
// @Summary Reset my assistant conversation
// @Tags Chatbot
// @Produce json
// @Success 204 {object} response.Envelope
// @Router /chatbot/history [delete]
func (h *ChatbotHandler) Reset(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Reset(c.Request.Context(), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
