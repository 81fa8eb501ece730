package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/orcvnrln/papersim/internal/types"
)

// Response represents a standardized API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents an error response
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeEngineInactive   = "ENGINE_INACTIVE"
	ErrCodeOrderRejected    = "ORDER_REJECTED"
	ErrCodeNotCancellable   = "ORDER_NOT_CANCELLABLE"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
)

// Handle processes the error and returns appropriate response
func Handle(c *gin.Context, data interface{}, err error) {
	if err == nil {
		Success(c, data)
		return
	}

	switch {
	case errors.Is(err, types.ErrOrderNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, types.ErrEngineInactive):
		errorWithStatus(c, http.StatusConflict, ErrCodeEngineInactive, err.Error())
	case errors.Is(err, types.ErrOrderNotCancellable):
		errorWithStatus(c, http.StatusUnprocessableEntity, ErrCodeNotCancellable, err.Error())
	case errors.Is(err, types.ErrInsufficientFunds),
		errors.Is(err, types.ErrInsufficientPosition),
		errors.Is(err, types.ErrMaxPositionsExceeded):
		Rejected(c, data, err.Error())
	case errors.Is(err, types.ErrInvalidConfiguration), errors.Is(err, types.ErrNoTrades):
		errorWithStatus(c, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
	default:
		InternalError(c, "An unexpected error occurred")
	}
}

// Success sends a successful response
func Success(c *gin.Context, data interface{}) {
	status := http.StatusOK
	if c.Request.Method == "POST" {
		status = http.StatusCreated
	}

	c.JSON(status, Response{
		Success: true,
		Data:    data,
	})
}

// Rejected sends a 422 response carrying the rejected order so the
// caller can inspect status and rejection reason.
func Rejected(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusUnprocessableEntity, Response{
		Success: false,
		Data:    data,
		Error: &Error{
			Code:    ErrCodeOrderRejected,
			Message: message,
		},
	})
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	errorWithStatus(c, http.StatusNotFound, ErrCodeNotFound, message)
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	errorWithStatus(c, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	errorWithStatus(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	errorWithStatus(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

func errorWithStatus(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
		},
	})
}
