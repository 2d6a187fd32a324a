package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/studynest/internal/common"
	"github.com/gin-gonic/gin"
)

const internalErrorMessage = "internal error"

// statusFor maps a service error onto an HTTP status. Conflicts and
// oversized payloads are reported as 400 to match existing clients.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, common.ErrorInvalidInput),
		errors.Is(err, common.ErrorAlreadyExists),
		errors.Is(err, common.ErrorPayloadTooLarge),
		errors.As(err, &maxBytes):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError aborts the request with an {"error": ...} body. Internal
// details are attached to the gin context for the access log only.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		msg = common.ErrorPayloadTooLarge.Error()
	}
	if status == http.StatusInternalServerError {
		msg = internalErrorMessage
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}
