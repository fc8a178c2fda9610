package server

import (
	"fmt"
	"net/http"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrStoreUnavailable indicates the transition store could not be read
type ErrStoreUnavailable struct {
	Cause error
}

func (e *ErrStoreUnavailable) Error() string {
	return fmt.Sprintf("transition store unavailable: %v", e.Cause)
}

func (e *ErrStoreUnavailable) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrValidation:
		return http.StatusBadRequest
	case *ErrStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
