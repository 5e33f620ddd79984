// Package response maps domain errors to HTTP replies.
package response

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/soloq/internal/domain"
)

const (
	CodeNotFound = "player_not_found"
	CodeInternal = "internal_error"
)

// ErrorBody is the JSON envelope of every failure. Only Error is stable.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Status classifies err into an HTTP status and a stable code.
func Status(err error) (int, string) {
	var (
		verr *domain.ValidationError
		ierr *domain.IdentityError
		rerr *domain.RateLimitError
		serr *domain.StoreError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Code
	case errors.As(err, &ierr):
		return http.StatusUnauthorized, ierr.Code
	case errors.As(err, &rerr):
		return http.StatusTooManyRequests, domain.CodeRateLimited
	case errors.As(err, &serr):
		return http.StatusInternalServerError, domain.CodeStoreFailure
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// Error aborts the request with the mapped status and envelope.
func Error(c *gin.Context, err error) {
	status, code := Status(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorBody{Error: code, Message: message(err, status)})
}

func message(err error, status int) string {
	var serr *domain.StoreError
	if errors.As(err, &serr) {
		// Driver messages stay in the logs.
		return "store failure at " + string(serr.Step)
	}
	if status == http.StatusInternalServerError {
		return http.StatusText(status)
	}
	return err.Error()
}

// RateLimitHeaders sets the window headers; reset is unix milliseconds.
func RateLimitHeaders(c *gin.Context, remaining int, resetUnixMilli int64) {
	c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(resetUnixMilli, 10))
}
