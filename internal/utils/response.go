// internal/utils/response.go
package utils

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"printer-service/internal/model"
)

// RequestIDKey is the gin context key holding the request id
const RequestIDKey = "request_id"

// APIResponse represents standard API response structure
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError represents error information
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse sends a successful response
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: getRequestID(c),
	})
}

// ErrorResponse sends an error response
func ErrorResponse(c *gin.Context, statusCode int, message string, err error) {
	apiError := &APIError{
		Code:    getErrorCode(statusCode),
		Message: message,
	}

	if err != nil {
		apiError.Details = err.Error()
	}

	c.JSON(statusCode, APIResponse{
		Success:   false,
		Message:   message,
		Error:     apiError,
		Timestamp: time.Now(),
		RequestID: getRequestID(c),
	})
}

// FailFromError sends an error response with the status matching err
func FailFromError(c *gin.Context, message string, err error) {
	ErrorResponse(c, StatusFromError(err), message, err)
}

// StatusFromError maps the error taxonomy onto HTTP statuses
func StatusFromError(err error) int {
	var transportErr *model.TransportError

	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotConnected):
		// checked first: a write to a detached printer wraps ErrDeviceNotFound too
		return http.StatusConflict
	case errors.Is(err, model.ErrConfigNotFound), errors.Is(err, model.ErrDeviceNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrUnsupportedTransport):
		return http.StatusNotImplemented
	case errors.As(err, &transportErr), errors.Is(err, model.ErrNoEndpoint):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func getRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// getErrorCode returns error code based on HTTP status
func getErrorCode(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusInternalServerError:
		return "INTERNAL_SERVER_ERROR"
	case http.StatusNotImplemented:
		return "NOT_IMPLEMENTED"
	case http.StatusBadGateway:
		return "PRINTER_ERROR"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		return "UNKNOWN_ERROR"
	}
}
