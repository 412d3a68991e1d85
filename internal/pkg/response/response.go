package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Parastud/ParkEase/internal/pkg/domain"
)

// Envelope is the common response body shape.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError carries a machine-readable code alongside the message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PaginatedEnvelope wraps list responses with paging metadata.
type PaginatedEnvelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Total   int64       `json:"total"`
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
}

// Success writes a 200 envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 envelope.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paginated writes a 200 list envelope with paging metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, PaginatedEnvelope{
		Success: true,
		Data:    items,
		Total:   total,
		Page:    page,
		Limit:   limit,
	})
}

// BadRequest writes a 400 envelope with a validation code.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Envelope{
		Success: false,
		Error:   &APIError{Code: string(domain.ErrCodeValidation), Message: message},
	})
}

// Error maps a domain error to its HTTP status and writes the envelope.
func Error(c *gin.Context, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		c.JSON(http.StatusInternalServerError, Envelope{
			Success: false,
			Error:   &APIError{Code: "INTERNAL", Message: "internal server error"},
		})
		return
	}

	c.JSON(statusFor(de.Code), Envelope{
		Success: false,
		Error:   &APIError{Code: string(de.Code), Message: de.Message},
	})
}

func statusFor(code domain.ErrorCode) int {
	switch code {
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeValidation, domain.ErrCodeInvalidState:
		return http.StatusBadRequest
	case domain.ErrCodeForbidden:
		return http.StatusForbidden
	case domain.ErrCodeConflict, domain.ErrCodeSoldOut:
		return http.StatusConflict
	case domain.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
