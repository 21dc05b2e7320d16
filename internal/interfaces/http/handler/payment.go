package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	commissionapp "github.com/ticketbook/backend/internal/application/commission"
)

// PaymentRecorder accepts payments from the payment subsystem
type PaymentRecorder interface {
	RecordPayment(ctx context.Context, req commissionapp.RecordPaymentRequest) (*commissionapp.RecordPaymentResponse, error)
	ImportPayments(ctx context.Context, req commissionapp.ImportPaymentsRequest) (*commissionapp.ImportPaymentsResponse, error)
}

// PaymentHandler is the payment ingest surface
type PaymentHandler struct {
	BaseHandler
	payments PaymentRecorder
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments PaymentRecorder) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// RecordPayment godoc
// @Summary      Record a payment
// @Description  Store one payment and return its book's commission outcome. The payment is stored even when the commission update fails; the failure is reported in commission_error.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body commissionapp.RecordPaymentRequest true "Payment"
// @Success      201 {object} dto.Response{data=commissionapp.RecordPaymentResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payments [post]
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	var req commissionapp.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.payments.RecordPayment(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ImportPayments godoc
// @Summary      Import payments
// @Description  Store a batch of payments. Commission is recomputed asynchronously from the PaymentRecorded events.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body commissionapp.ImportPaymentsRequest true "Payments"
// @Success      202 {object} dto.Response{data=commissionapp.ImportPaymentsResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payments/import [post]
func (h *PaymentHandler) ImportPayments(c *gin.Context) {
	var req commissionapp.ImportPaymentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	resp, err := h.payments.ImportPayments(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, resp)
}
