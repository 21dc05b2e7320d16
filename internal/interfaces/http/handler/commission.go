package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	commissionapp "github.com/ticketbook/backend/internal/application/commission"
)

// CommissionRecalculator runs the recalculation pipeline
type CommissionRecalculator interface {
	RecalculateEvent(ctx context.Context, eventID uuid.UUID) (*commissionapp.RecalculationReport, error)
	RecalculateBook(ctx context.Context, bookID uuid.UUID) (*commissionapp.BookOutcome, error)
}

// CommissionQuerier reads the persisted commission ledger
type CommissionQuerier interface {
	ListCommissionRecords(ctx context.Context, eventID uuid.UUID, filter commissionapp.ListRecordsFilter) ([]commissionapp.CommissionRecordResponse, error)
	SumCommission(ctx context.Context, eventID uuid.UUID) (*commissionapp.CommissionTotalResponse, error)
	SummarizeByLevel1(ctx context.Context, eventID uuid.UUID) (*commissionapp.EventSummaryResponse, error)
}

// CommissionDiagnoser explains an event's commission without writing
type CommissionDiagnoser interface {
	Diagnose(ctx context.Context, eventID uuid.UUID) (*commissionapp.EventDiagnosticsResponse, error)
}

// CommissionHandler serves recalculation and ledger queries
type CommissionHandler struct {
	BaseHandler
	recalculator CommissionRecalculator
	querier      CommissionQuerier
	diagnoser    CommissionDiagnoser
}

// NewCommissionHandler creates a new CommissionHandler
func NewCommissionHandler(
	recalculator CommissionRecalculator,
	querier CommissionQuerier,
	diagnoser CommissionDiagnoser,
) *CommissionHandler {
	return &CommissionHandler{
		recalculator: recalculator,
		querier:      querier,
		diagnoser:    diagnoser,
	}
}

// RecalculateEvent godoc
// @Summary      Recalculate an event's commission
// @Description  Recompute every book of an event. Book failures are part of the report; the request itself still succeeds.
// @Tags         commission
// @Produce      json
// @Param        event_id path string true "Event ID" format(uuid)
// @Success      200 {object} dto.Response{data=commissionapp.RecalculationReport}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /commission/events/{event_id}/recalculate [post]
func (h *CommissionHandler) RecalculateEvent(c *gin.Context) {
	eventID, ok := h.bindEventID(c)
	if !ok {
		return
	}

	report, err := h.recalculator.RecalculateEvent(c.Request.Context(), eventID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// RecalculateBook godoc
// @Summary      Recalculate one book's commission
// @Description  Recompute the commission records of a single book
// @Tags         commission
// @Produce      json
// @Param        book_id path string true "Book ID" format(uuid)
// @Success      200 {object} dto.Response{data=commissionapp.BookOutcome}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      429 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /commission/books/{book_id}/recalculate [post]
func (h *CommissionHandler) RecalculateBook(c *gin.Context) {
	bookID, ok := h.bindBookID(c)
	if !ok {
		return
	}

	outcome, err := h.recalculator.RecalculateBook(c.Request.Context(), bookID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, outcome)
}

// ListRecords godoc
// @Summary      List commission records
// @Description  List an event's commission records, optionally filtered by type or level 1 value
// @Tags         commission
// @Produce      json
// @Param        event_id path string true "Event ID" format(uuid)
// @Param        type query string false "Commission type" Enums(early, standard, extra_books)
// @Param        level_1_value query string false "Level 1 attribution value"
// @Success      200 {object} dto.Response{data=[]commissionapp.CommissionRecordResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /commission/events/{event_id}/records [get]
func (h *CommissionHandler) ListRecords(c *gin.Context) {
	eventID, ok := h.bindEventID(c)
	if !ok {
		return
	}

	var filter commissionapp.ListRecordsFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.ValidationError(c, err)
		return
	}

	records, err := h.querier.ListCommissionRecords(c.Request.Context(), eventID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}

// GetTotal godoc
// @Summary      Get total commission
// @Description  Sum every commission record of an event
// @Tags         commission
// @Produce      json
// @Param        event_id path string true "Event ID" format(uuid)
// @Success      200 {object} dto.Response{data=commissionapp.CommissionTotalResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /commission/events/{event_id}/total [get]
func (h *CommissionHandler) GetTotal(c *gin.Context) {
	eventID, ok := h.bindEventID(c)
	if !ok {
		return
	}

	total, err := h.querier.SumCommission(c.Request.Context(), eventID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, total)
}

// GetSummary godoc
// @Summary      Summarize commission by level 1
// @Description  Group an event's commission totals by level 1 value and commission type
// @Tags         commission
// @Produce      json
// @Param        event_id path string true "Event ID" format(uuid)
// @Success      200 {object} dto.Response{data=commissionapp.EventSummaryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /commission/events/{event_id}/summary [get]
func (h *CommissionHandler) GetSummary(c *gin.Context) {
	eventID, ok := h.bindEventID(c)
	if !ok {
		return
	}

	summary, err := h.querier.SummarizeByLevel1(c.Request.Context(), eventID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// GetDiagnostics godoc
// @Summary      Diagnose an event's commission
// @Description  Report expected against persisted records per book without writing anything
// @Tags         commission
// @Produce      json
// @Param        event_id path string true "Event ID" format(uuid)
// @Success      200 {object} dto.Response{data=commissionapp.EventDiagnosticsResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /commission/events/{event_id}/diagnostics [get]
func (h *CommissionHandler) GetDiagnostics(c *gin.Context) {
	eventID, ok := h.bindEventID(c)
	if !ok {
		return
	}

	report, err := h.diagnoser.Diagnose(c.Request.Context(), eventID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
