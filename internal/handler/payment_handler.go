package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smounat/ecole-plus-api/internal/service"
	appErrors "github.com/smounat/ecole-plus-api/pkg/errors"
	"github.com/smounat/ecole-plus-api/pkg/response"
)

// PaymentHandler wires HTTP endpoints to the payment service.
type PaymentHandler struct {
	service *service.PaymentService
}

// NewPaymentHandler creates a new handler.
func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: svc}
}

// CreateStudentPayment godoc
// @Summary Record tuition payment
// @Description Records the payment and confirms it to the parent
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.CreateStudentPaymentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /payments/students [post]
func (h *PaymentHandler) CreateStudentPayment(c *gin.Context) {
	var req service.CreateStudentPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payment payload"))
		return
	}
	payment, err := h.service.CreateStudentPayment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// ListStudentPayments godoc
// @Summary List tuition payments
// @Tags Payments
// @Produce json
// @Param student_id query string false "Student filter"
// @Success 200 {object} response.Envelope
// @Router /payments/students [get]
func (h *PaymentHandler) ListStudentPayments(c *gin.Context) {
	payments, total, err := h.service.ListStudentPayments(c.Request.Context(), c.Query("student_id"), queryInt(c, "page", 1), queryInt(c, "page_size", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"items": payments, "total": total}, nil)
}

// StudentReceipt godoc
// @Summary Download payment receipt
// @Tags Payments
// @Produce application/pdf
// @Param id path string true "Payment ID"
// @Success 200 {string} string "PDF receipt"
// @Failure 404 {object} response.Envelope
// @Router /payments/students/{id}/receipt [get]
func (h *PaymentHandler) StudentReceipt(c *gin.Context) {
	receipt, err := h.service.StudentReceipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="receipt.pdf"`)
	c.Data(http.StatusOK, "application/pdf", receipt)
}

// DeleteStudentPayment godoc
// @Summary Delete tuition payment
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 204 {object} response.Envelope
// @Router /payments/students/{id} [delete]
func (h *PaymentHandler) DeleteStudentPayment(c *gin.Context) {
	if err := h.service.DeleteStudentPayment(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateTeacherPayment godoc
// @Summary Record salary payment
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body service.CreateTeacherPaymentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /payments/teachers [post]
func (h *PaymentHandler) CreateTeacherPayment(c *gin.Context) {
	var req service.CreateTeacherPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payment payload"))
		return
	}
	payment, err := h.service.CreateTeacherPayment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// ListTeacherPayments godoc
// @Summary List salary payments
// @Tags Payments
// @Produce json
// @Param teacher_id query string false "Teacher filter"
// @Success 200 {object} response.Envelope
// @Router /payments/teachers [get]
func (h *PaymentHandler) ListTeacherPayments(c *gin.Context) {
	payments, total, err := h.service.ListTeacherPayments(c.Request.Context(), c.Query("teacher_id"), queryInt(c, "page", 1), queryInt(c, "page_size", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"items": payments, "total": total}, nil)
}

// DeleteTeacherPayment godoc
// @Summary Delete salary payment
// @Tags Payments
// @Produce json
// @Param id path string true "Payment ID"
// @Success 204 {object} response.Envelope
// @Router /payments/teachers/{id} [delete]
func (h *PaymentHandler) DeleteTeacherPayment(c *gin.Context) {
	if err := h.service.DeleteTeacherPayment(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
