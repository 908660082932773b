package utils

import (
	"errors"
	"fmt"
	"net/http"

	"dataframe-gateway/internal/provider"
)

// Error codes with HTTP status mapping
const (
	// General errors
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeValidationFailed   = "VALIDATION_ERROR"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"

	// Storage errors
	ErrCodeDatabaseError = "DATABASE_ERROR"

	// Source errors
	ErrCodeSourceNotFound      = "SOURCE_NOT_FOUND"
	ErrCodeSourceExists        = "SOURCE_EXISTS"
	ErrCodeSourceArchived      = "SOURCE_ARCHIVED"
	ErrCodeInvalidSourceConfig = "INVALID_SOURCE_CONFIG"

	// Load errors
	ErrCodeFetchFailed     = "FETCH_FAILED"
	ErrCodeFetchTimeout    = "FETCH_TIMEOUT"
	ErrCodePathNotFound    = "PATH_NOT_FOUND"
	ErrCodeParseFailed     = "PARSE_FAILED"
	ErrCodeParserNotFound  = "PARSER_NOT_FOUND"
	ErrCodeExportFailed    = "EXPORT_FAILED"
	ErrCodeUnsupportedType = "UNSUPPORTED_SOURCE_TYPE"

	// Authentication errors
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	ErrCodeInvalidToken = "INVALID_TOKEN"

	// Validation error codes
	ErrCodeInvalidUUID       = "INVALID_UUID"
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeInvalidParameters = "INVALID_PARAMETERS"
)

// HTTPStatus maps error codes to HTTP status codes
var HTTPStatus = map[string]int{
	ErrCodeInvalidRequest:     http.StatusBadRequest,
	ErrCodeValidationFailed:   http.StatusUnprocessableEntity,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeInternalError:      http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeRateLimitExceeded:  http.StatusTooManyRequests,

	ErrCodeDatabaseError: http.StatusInternalServerError,

	ErrCodeSourceNotFound:      http.StatusNotFound,
	ErrCodeSourceExists:        http.StatusConflict,
	ErrCodeSourceArchived:      http.StatusConflict,
	ErrCodeInvalidSourceConfig: http.StatusBadRequest,

	ErrCodeFetchFailed:     http.StatusBadGateway,
	ErrCodeFetchTimeout:    http.StatusGatewayTimeout,
	ErrCodePathNotFound:    http.StatusUnprocessableEntity,
	ErrCodeParseFailed:     http.StatusUnprocessableEntity,
	ErrCodeParserNotFound:  http.StatusBadRequest,
	ErrCodeExportFailed:    http.StatusInternalServerError,
	ErrCodeUnsupportedType: http.StatusBadRequest,

	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeInvalidToken: http.StatusUnauthorized,

	ErrCodeInvalidUUID:       http.StatusBadRequest,
	ErrCodeInvalidJSON:       http.StatusBadRequest,
	ErrCodeInvalidParameters: http.StatusBadRequest,
}

// AppError represents an application error with additional context
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// ErrorBuilder provides a fluent interface for creating errors
type ErrorBuilder struct {
	code    string
	message string
	details string
	cause   error
}

// NewErrorBuilder creates a new error builder
func NewErrorBuilder(code string) *ErrorBuilder {
	return &ErrorBuilder{code: code}
}

// WithMessage sets the error message
func (eb *ErrorBuilder) WithMessage(message string) *ErrorBuilder {
	eb.message = message
	return eb
}

// WithDetails sets the error details
func (eb *ErrorBuilder) WithDetails(details string) *ErrorBuilder {
	eb.details = details
	return eb
}

// WithCause sets the underlying error cause
func (eb *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	eb.cause = cause
	return eb
}

// Build constructs the final AppError
func (eb *ErrorBuilder) Build() *AppError {
	if eb.message == "" {
		eb.message = getDefaultMessage(eb.code)
	}

	return &AppError{
		Code:    eb.code,
		Message: eb.message,
		Details: eb.details,
		Cause:   eb.cause,
	}
}

var defaultMessages = map[string]string{
	ErrCodeInvalidRequest:     "The request is invalid",
	ErrCodeValidationFailed:   "Validation failed",
	ErrCodeUnauthorized:       "Unauthorized access",
	ErrCodeForbidden:          "Access forbidden",
	ErrCodeNotFound:           "Resource not found",
	ErrCodeConflict:           "Resource conflict",
	ErrCodeInternalError:      "Internal server error",
	ErrCodeServiceUnavailable: "Service temporarily unavailable",
	ErrCodeRateLimitExceeded:  "Rate limit exceeded",

	ErrCodeDatabaseError: "Database error",

	ErrCodeSourceNotFound:      "Source not found",
	ErrCodeSourceExists:        "Source already exists",
	ErrCodeSourceArchived:      "Source is archived",
	ErrCodeInvalidSourceConfig: "Invalid source configuration",

	ErrCodeFetchFailed:     "Failed to fetch source data",
	ErrCodeFetchTimeout:    "Source request timed out",
	ErrCodePathNotFound:    "Property path not found in response",
	ErrCodeParseFailed:     "Response could not be parsed",
	ErrCodeParserNotFound:  "Response parser not found",
	ErrCodeExportFailed:    "Failed to encode dataframes",
	ErrCodeUnsupportedType: "Unsupported source type",

	ErrCodeTokenExpired: "Token expired",
	ErrCodeInvalidToken: "Invalid token",

	ErrCodeInvalidUUID:       "Invalid UUID format",
	ErrCodeInvalidJSON:       "Invalid JSON format",
	ErrCodeInvalidParameters: "Invalid parameters",
}

// getDefaultMessage returns a default message for error codes
func getDefaultMessage(code string) string {
	if msg, exists := defaultMessages[code]; exists {
		return msg
	}
	return "Unknown error"
}

// Convenience functions for common error types
func NewDatabaseError(cause error, details string) *AppError {
	return NewErrorBuilder(ErrCodeDatabaseError).
		WithCause(cause).
		WithDetails(details).
		Build()
}

func NewNotFoundError(resource string) *AppError {
	return NewErrorBuilder(ErrCodeNotFound).
		WithMessage(fmt.Sprintf("%s not found", resource)).
		Build()
}

func NewValidationError(message string, details string) *AppError {
	return NewErrorBuilder(ErrCodeValidationFailed).
		WithMessage(message).
		WithDetails(details).
		Build()
}

// FromProviderError maps an ingestion error onto an application error code.
// A parser lookup failure is also a configuration error, so it is checked first.
func FromProviderError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var code string
	switch {
	case errors.Is(err, provider.ErrParserNotFound):
		code = ErrCodeParserNotFound
	case errors.Is(err, provider.ErrConfiguration):
		code = ErrCodeInvalidSourceConfig
	case errors.Is(err, provider.ErrTimeout):
		code = ErrCodeFetchTimeout
	case errors.Is(err, provider.ErrFetch):
		code = ErrCodeFetchFailed
	case errors.Is(err, provider.ErrPathNotFound):
		code = ErrCodePathNotFound
	case errors.Is(err, provider.ErrParse):
		code = ErrCodeParseFailed
	default:
		code = ErrCodeInternalError
	}

	return NewErrorBuilder(code).
		WithDetails(err.Error()).
		WithCause(err).
		Build()
}

// GetErrorStatus returns the HTTP status code for an error
func GetErrorStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if status, exists := HTTPStatus[appErr.Code]; exists {
			return status
		}
	}
	return http.StatusInternalServerError
}
