package api

import (
	"errors"
	"fmt"
	"net/http"

	"protoapp/internal/rbac"
	"protoapp/pkg/logger"

	"github.com/gin-gonic/gin"
)

var (
	ErrNotFound        = errors.New("no matching endpoint")
	ErrBadRequest      = errors.New("bad request")
	ErrTooManyRequests = errors.New("too many requests")

	ErrDuplicateEndpoint = errors.New("duplicate endpoint")
)

// BadRequest wraps ErrBadRequest with a log-only reason.
func BadRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBadRequest, fmt.Sprintf(format, args...))
}

// Reject wraps rbac.ErrRejected with a log-only reason.
func Reject(format string, args ...any) error {
	return fmt.Errorf("%w: %s", rbac.ErrRejected, fmt.Sprintf(format, args...))
}

// StatusOf maps an error to the HTTP status sent to the client.
// Anything unrecognised is an internal failure.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, rbac.ErrRejected):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteError logs err and aborts with its status and an empty body.
// Error text never reaches the client.
func WriteError(c *gin.Context, err error) {
	status := StatusOf(err)
	log := logger.FromGin(c)

	switch {
	case status >= http.StatusInternalServerError:
		log.Error("request failed", "status", status, "err", err)
		_ = c.Error(err)
	case errors.Is(err, rbac.ErrRejected):
		// the checker already logged the reason
		log.Debug("request rejected", "status", status, "err", err)
	default:
		log.Warn("request failed", "status", status, "err", err)
	}
	c.AbortWithStatus(status)
}
