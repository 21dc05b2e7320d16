package dto

import (
	"net/http"
	"strings"
)

// API error codes. Every code a client can see is listed here with its status.
const (
	ErrCodeInternal    = "ERR_INTERNAL"
	ErrCodeUnavailable = "ERR_UNAVAILABLE"

	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"

	// ErrCodeInvalidState and ErrCodeBusinessRule reject a well-formed
	// request the ledger cannot accept
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodePersistence reports a book whose commission transaction failed
	ErrCodePersistence = "ERR_PERSISTENCE"

	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

var statusByCode = map[string]int{
	ErrCodeInternal:            http.StatusInternalServerError,
	ErrCodeUnavailable:         http.StatusServiceUnavailable,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:        http.StatusUnprocessableEntity,
	ErrCodePersistence:         http.StatusInternalServerError,
	ErrCodeRateLimited:         http.StatusTooManyRequests,
	ErrCodeRequestTooLarge:     http.StatusRequestEntityTooLarge,
}

// domain codes that are not covered by the prefix and suffix rules
var codeByDomainCode = map[string]string{
	"ALREADY_EXISTS":            ErrCodeAlreadyExists,
	"INVALID_STATE":             ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT":      ErrCodeConcurrencyConflict,
	"DUPLICATE_COMMISSION_TYPE": ErrCodeBusinessRule,
	"EXCLUSIVE_TIERS":           ErrCodeBusinessRule,
	"PERSISTENCE_FAILURE":       ErrCodePersistence,
	"VALIDATION_ERROR":          ErrCodeValidation,
	"BAD_REQUEST":               ErrCodeBadRequest,
	"INTERNAL_ERROR":            ErrCodeInternal,
}

// HTTPStatus returns the status for an API error code, 500 when unknown
func HTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// NormalizeErrorCode converts a domain error code to its API code.
// *NOT_FOUND codes become ERR_NOT_FOUND and INVALID_* codes ERR_INVALID_INPUT.
// API codes and unrecognised codes pass through unchanged.
func NormalizeErrorCode(code string) string {
	if mapped, ok := codeByDomainCode[code]; ok {
		return mapped
	}
	switch {
	case strings.HasPrefix(code, "ERR_"):
		return code
	case strings.HasSuffix(code, "NOT_FOUND"):
		return ErrCodeNotFound
	case strings.HasPrefix(code, "INVALID_"):
		return ErrCodeInvalidInput
	}
	return code
}
