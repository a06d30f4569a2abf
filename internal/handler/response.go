package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pasarela/internal/repository"
	"pasarela/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrMissingOrderNumber),
		errors.Is(err, service.ErrMissingNationalID),
		errors.Is(err, service.ErrInvalidAmount):
		return http.StatusBadRequest

	// Conflict: concurrent writes to the same order
	case errors.Is(err, service.ErrOrderBusy):
		return http.StatusConflict

	// Upstream gateway failures
	case errors.Is(err, service.ErrUpstreamGateway):
		return http.StatusBadGateway

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
