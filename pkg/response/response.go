package response

import (
	"errors"
	"net/http"
	"time"

	"campus-wallet/pkg/apperror"
	"campus-wallet/pkg/ids"

	"github.com/gin-gonic/gin"
)

// SuccessResponse is the standard success envelope.
type SuccessResponse struct {
	Data      interface{} `json:"data"`
	Meta      *PageMeta   `json:"meta,omitempty"`
	RequestID string      `json:"request_id"`
	Timestamp string      `json:"timestamp"`
}

// ErrorResponse is the standard error envelope. ReasonCode is the
// machine-readable rejection code clients branch on.
type ErrorResponse struct {
	ReasonCode string `json:"reason_code"`
	Message    string `json:"message"`
	Retryable  bool   `json:"retryable,omitempty"`
	RequestID  string `json:"request_id"`
	Timestamp  string `json:"timestamp"`
}

// PageMeta describes a paginated listing.
type PageMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// OK sends a 200 response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data:      data,
		RequestID: getRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Created sends a 201 response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, SuccessResponse{
		Data:      data,
		RequestID: getRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Paginated sends a 200 response with a listing and page metadata.
func Paginated(c *gin.Context, data interface{}, page, pageSize int, total int64) {
	c.JSON(http.StatusOK, SuccessResponse{
		Data:      data,
		Meta:      &PageMeta{Page: page, PageSize: pageSize, Total: total},
		RequestID: getRequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Error sends an error response. It checks if err is an *apperror.AppError
// and maps it accordingly, otherwise returns 500.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, ErrorResponse{
			ReasonCode: appErr.Code,
			Message:    appErr.Message,
			Retryable:  appErr.Retryable,
			RequestID:  getRequestID(c),
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		ReasonCode: "internal",
		Message:    "Internal server error",
		RequestID:  getRequestID(c),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

// getRequestID retrieves the request ID from context, or generates one.
func getRequestID(c *gin.Context) string {
	if id, exists := c.Get("request_id"); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ids.NewRequestID()
}
