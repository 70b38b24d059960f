package api

import (
	"context"
	"errors"
	"net/http"

	apperrors "github.com/weatherengine/maritime/internal/errors"
)

// statusFor maps a service error to an HTTP status and whether the caller
// may usefully try again.
func statusFor(err error) (int, bool) {
	var netErr apperrors.NetworkError
	var beErr apperrors.BackendError

	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest, false
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, false
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, false
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, false
	case errors.Is(err, apperrors.ErrRateLimit):
		return http.StatusTooManyRequests, true
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, true
	case errors.Is(err, apperrors.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, true
	case errors.As(err, &netErr), errors.As(err, &beErr):
		return http.StatusBadGateway, apperrors.IsRetryable(err)
	case errors.Is(err, apperrors.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, true
	default:
		return http.StatusInternalServerError, false
	}
}
