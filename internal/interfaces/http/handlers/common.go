// Package handlers implements the HTTP endpoints of the citation service.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/CiteGuard/pkg/errors"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondError maps application error codes onto HTTP statuses.  Unknown
// errors are masked so internals never leak to callers.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := errors.GetCode(err)

	switch {
	case errors.IsCode(err, errors.ErrCodeValidation),
		errors.IsCode(err, errors.ErrCodeBadRequest),
		errors.IsCode(err, errors.ErrCodeEmptyDocument),
		errors.IsCode(err, errors.ErrCodeJobPayloadInvalid):
		status = http.StatusBadRequest
	case errors.IsNotFound(err):
		status = http.StatusNotFound
	case errors.IsCode(err, errors.ErrCodeConflict):
		status = http.StatusConflict
	case errors.IsCode(err, errors.ErrCodeTooManyRequests):
		status = http.StatusTooManyRequests
	case errors.IsUnavailable(err):
		status = http.StatusServiceUnavailable
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		code = errors.ErrCodeInternal
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Code: string(code), Message: msg})
}
