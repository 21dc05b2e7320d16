package commission

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/ticketbook/backend/internal/domain/shared"
)

// ErrorKind classifies commission engine failures
type ErrorKind string

const (
	// ErrorKindConfiguration covers missing or invalid commission settings
	ErrorKindConfiguration ErrorKind = "configuration"
	// ErrorKindDataQuality covers input data the engine refuses to attribute
	ErrorKindDataQuality ErrorKind = "data_quality"
	// ErrorKindPersistence covers transaction and connectivity failures
	ErrorKindPersistence ErrorKind = "persistence"
)

// Diagnostic codes
const (
	CodeSettingsNotConfigured = "SETTINGS_NOT_CONFIGURED"
	CodeCommissionDisabled    = "COMMISSION_DISABLED"
	CodeMissingDeadline       = "MISSING_DEADLINE"
	CodeInvalidDeadline       = "INVALID_DEADLINE"
	CodeInvalidPercent        = "INVALID_PERCENT"
	CodeEmptyAttribution      = "EMPTY_ATTRIBUTION"
	CodeMissingDistribution   = "MISSING_DISTRIBUTION"
	CodeZeroExpectedAmount    = "ZERO_EXPECTED_AMOUNT"
	CodePersistenceFailure    = "PERSISTENCE_FAILURE"
)

// Diagnostic is a non-fatal ConfigurationError or DataQualityError.
// It causes the affected tier or book to be skipped and is reported, never thrown.
type Diagnostic struct {
	Kind    ErrorKind       `json:"kind"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Tier    *CommissionType `json:"tier,omitempty"`
}

// Error implements the error interface
func (d Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s", d.Code, d.Message)
}

// NewConfigurationError creates a configuration diagnostic
func NewConfigurationError(code, message string) Diagnostic {
	return Diagnostic{Kind: ErrorKindConfiguration, Code: code, Message: message}
}

// NewTierConfigurationError creates a configuration diagnostic bound to a tier
func NewTierConfigurationError(tier CommissionType, code, message string) Diagnostic {
	d := NewConfigurationError(code, message)
	d.Tier = &tier
	return d
}

// NewDataQualityError creates a data-quality diagnostic
func NewDataQualityError(code, message string) Diagnostic {
	return Diagnostic{Kind: ErrorKindDataQuality, Code: code, Message: message}
}

// PersistenceError is fatal for a single book's update. The book's
// transaction is rolled back and the error is propagated to the caller.
type PersistenceError struct {
	Op     string
	BookID uuid.UUID
	Err    error
}

// NewPersistenceError wraps err as a PersistenceError
func NewPersistenceError(op string, bookID uuid.UUID, err error) *PersistenceError {
	return &PersistenceError{Op: op, BookID: bookID, Err: err}
}

// Error implements the error interface
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("commission persistence failure (%s, book %s): %v", e.Op, e.BookID, e.Err)
}

// Unwrap returns the underlying cause
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Code returns the stable error code
func (e *PersistenceError) Code() string {
	if code := shared.ErrorCode(e.Err); code != "" {
		return code
	}
	return CodePersistenceFailure
}
