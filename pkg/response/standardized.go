package response

import (
	"time"

	"dataframe-gateway/internal/utils"
)

// StandardResponse is the JSON envelope of every gateway API reply
type StandardResponse struct {
	Success       bool        `json:"success"`
	Data          interface{} `json:"data,omitempty"`
	Count         *int        `json:"count,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	Message       string      `json:"message,omitempty"`
	CorrelationID string      `json:"correlationId"`
	Timestamp     time.Time   `json:"timestamp"`
}

// ErrorInfo carries the machine-readable code of a failed request
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func envelope(success bool, correlationID string) *StandardResponse {
	return &StandardResponse{
		Success:       success,
		CorrelationID: correlationID,
		Timestamp:     time.Now().UTC(),
	}
}

// SuccessResponse wraps data in a successful envelope
func SuccessResponse(data interface{}, correlationID string) *StandardResponse {
	resp := envelope(true, correlationID)
	resp.Data = data
	return resp
}

// ListResponse wraps a collection together with its size
func ListResponse(items interface{}, count int, correlationID string) *StandardResponse {
	resp := SuccessResponse(items, correlationID)
	resp.Count = &count
	return resp
}

// SuccessMessageResponse reports a completed action that returns no data
func SuccessMessageResponse(message, correlationID string) *StandardResponse {
	resp := envelope(true, correlationID)
	resp.Message = message
	return resp
}

// ErrorResponse builds a failed envelope
func ErrorResponse(code, message, details, correlationID string) *StandardResponse {
	resp := envelope(false, correlationID)
	resp.Error = &ErrorInfo{Code: code, Message: message, Details: details}
	return resp
}

// ErrorResponseFromAppError builds a failed envelope from an AppError
func ErrorResponseFromAppError(appErr *utils.AppError, correlationID string) *StandardResponse {
	return ErrorResponse(appErr.Code, appErr.Message, appErr.Details, correlationID)
}

// UnauthorizedResponse is returned when a request carries no valid token
func UnauthorizedResponse(message string, correlationID string) *StandardResponse {
	if message == "" {
		message = "Authentication required"
	}
	return ErrorResponse(utils.ErrCodeUnauthorized, message, "", correlationID)
}

// ForbiddenResponse is returned when a token lacks a required role
func ForbiddenResponse(message string, correlationID string) *StandardResponse {
	if message == "" {
		message = "Insufficient permissions"
	}
	return ErrorResponse(utils.ErrCodeForbidden, message, "", correlationID)
}
