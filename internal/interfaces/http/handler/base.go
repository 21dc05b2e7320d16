// Package handler implements the HTTP handlers of the commission API.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ticketbook/backend/internal/domain/commission"
	"github.com/ticketbook/backend/internal/domain/shared"
	"github.com/ticketbook/backend/internal/infrastructure/logger"
	"github.com/ticketbook/backend/internal/interfaces/http/dto"
	"github.com/ticketbook/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 accepted response
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 validation error response for a binding error
func (h *BaseHandler) ValidationError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// HandleError maps err to an HTTP response. Domain errors keep their code;
// a commission PersistenceError is reported by its stable code; anything
// else becomes a 500 that only carries the request id.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)

	var persistenceErr *commission.PersistenceError
	if errors.As(err, &persistenceErr) {
		code := dto.NormalizeErrorCode(persistenceErr.Code())
		if code == dto.ErrCodeConcurrencyConflict {
			c.JSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(code, "Commission update conflicted with a concurrent change", requestID))
			return
		}
		logger.L(c.Request.Context()).Error("commission persistence failure", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(dto.ErrCodePersistence, "Commission could not be persisted", requestID))
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		c.JSON(dto.HTTPStatus(code), dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID))
		return
	}

	logger.L(c.Request.Context()).Error("unhandled request error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		requestID,
	))
}

// bindEventID parses the event_id path parameter, writing a validation
// error and returning false when it is not a UUID
func (h *BaseHandler) bindEventID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.EventIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.ValidationError(c, err)
		return uuid.Nil, false
	}
	return uuid.MustParse(req.EventID), true
}

// bindBookID parses the book_id path parameter
func (h *BaseHandler) bindBookID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.BookIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.ValidationError(c, err)
		return uuid.Nil, false
	}
	return uuid.MustParse(req.BookID), true
}
