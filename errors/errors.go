package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation          = fmt.Errorf("invalid request")
	ErrNotFound            = fmt.Errorf("resource not found")
	ErrForbidden           = fmt.Errorf("caller is not allowed to act on this resource")
	ErrDuplicateConnection = fmt.Errorf("a connection already exists for this pair")
	ErrInvalidTransition   = fmt.Errorf("connection is not in a state allowing this change")
	ErrUnavailable         = fmt.Errorf("durable store write failed")
	ErrSinkFull            = fmt.Errorf("session buffer full")
	ErrWorkerPanic         = fmt.Errorf("worker panic")
)

// MapToHTTPStatus resolves a domain error to its stable HTTP status and
// user-visible message. Unknown errors are treated as internal.
func MapToHTTPStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, ErrValidation.Error()
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, ErrNotFound.Error()
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, ErrForbidden.Error()
	case errors.Is(err, ErrDuplicateConnection):
		return http.StatusConflict, ErrDuplicateConnection.Error()
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict, ErrInvalidTransition.Error()
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable, ErrUnavailable.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
