// Package server provides the HTTP API for signal-outreach.
package server

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrSignalNotFound indicates no stored record exists for the id
type ErrSignalNotFound struct {
	ID string
}

func (e *ErrSignalNotFound) Error() string {
	return fmt.Sprintf("signal not found: %s", e.ID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNoLandingPage indicates the stored record has no landing page
type ErrNoLandingPage struct {
	ID string
}

func (e *ErrNoLandingPage) Error() string {
	return fmt.Sprintf("no landing page for signal: %s", e.ID)
}

// ErrPipeline wraps a pipeline failure that could not be recorded
type ErrPipeline struct {
	Err error
}

func (e *ErrPipeline) Error() string {
	return fmt.Sprintf("pipeline failed: %v", e.Err)
}

func (e *ErrPipeline) Unwrap() error { return e.Err }

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		notFound   *ErrSignalNotFound
		noLanding  *ErrNoLandingPage
		validation *ErrValidation
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &notFound), errors.As(err, &noLanding):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
