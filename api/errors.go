package api

import (
	"errors"
	"net/http"

	"github.com/darshanhv296/Flight-Management-System/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg, Code: code})
}

// RespondDomainError maps a service error to its HTTP status and code.
func RespondDomainError(c *gin.Context, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	respondError(c, status, code, msg)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrAlreadyCancelled):
		return http.StatusConflict, "already_cancelled"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrMissingFields):
		return http.StatusBadRequest, "missing_fields"
	case errors.Is(err, domain.ErrBookingRequired):
		return http.StatusBadRequest, "booking_required"
	case errors.Is(err, domain.ErrStorageFailure):
		return http.StatusServiceUnavailable, "storage_failure"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func respondBadRequest(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, "bad_request", err.Error())
}
