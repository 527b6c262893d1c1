package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"freight/internal/repository"
	"freight/internal/service"
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
// Concurrency conflicts get their own status so the UI can say "this record
// changed since you loaded it" instead of "something went wrong".
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidOrderID),
		errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidRouteID),
		errors.Is(err, service.ErrInvalidWeight),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrVehicleRequired),
		errors.Is(err, service.ErrDriverRequired),
		errors.Is(err, service.ErrInvalidStageType),
		errors.Is(err, service.ErrUnknownStage),
		errors.Is(err, service.ErrNoTripIDs):
		return http.StatusBadRequest

	// Conflict errors - caller must refetch and retry
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, service.ErrTripCanceled),
		errors.Is(err, service.ErrTripLocked):
		return http.StatusConflict

	// Misconfigured organization pipeline
	case errors.Is(err, service.ErrPipelineIncomplete):
		return http.StatusUnprocessableEntity

	// Default to internal server error (includes ErrDuplicateTripCode,
	// which is a rare internal fault surfaced as a generic failure).
	default:
		return http.StatusInternalServerError
	}
}

// actor resolves the acting user for audit fields. Authentication is an
// external collaborator; upstream middleware injects the header.
func actor(c *gin.Context) string {
	if id := c.GetHeader("X-User-ID"); id != "" {
		return id
	}
	return "system"
}
