package apperror

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
		{"validation", Validation("delta", "must be greater than zero"), http.StatusBadRequest},
		{"not found", NotFound("stock item", "abc"), http.StatusNotFound},
		{"conflict", Conflict("request %s is %s", "r1", "approved"), http.StatusConflict},
		{"wrapped conflict", fmt.Errorf("approve: %w", Conflict("stale")), http.StatusConflict},
		{"revision mismatch", fmt.Errorf("failed to update stock: %w", ErrRevisionMismatch), http.StatusConflict},
		{"internal", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestNewEnvelope_HidesInternalErrors(t *testing.T) {
	env := NewEnvelope("❌ Error", errors.New("pq: password authentication failed"))
	assert.False(t, env.Success)
	assert.Equal(t, "internal server error", env.Error)

	env = NewEnvelope("❌ Error", Validation("remarks", "required"))
	assert.Equal(t, "remarks: required", env.Error)
}
