package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"not found", &ErrSignalNotFound{ID: "sig_1"}, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", &ErrSignalNotFound{ID: "sig_1"}), http.StatusNotFound},
		{"no landing page", &ErrNoLandingPage{ID: "sig_1"}, http.StatusNotFound},
		{"validation", &ErrValidation{Field: "id", Message: "required"}, http.StatusBadRequest},
		{"pipeline", &ErrPipeline{Err: errors.New("store down")}, http.StatusInternalServerError},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "signal not found: sig_1", (&ErrSignalNotFound{ID: "sig_1"}).Error())
	assert.Equal(t, "validation error: signal.id - required", (&ErrValidation{Field: "signal.id", Message: "required"}).Error())

	cause := errors.New("store down")
	err := &ErrPipeline{Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "pipeline failed: store down", err.Error())
}
