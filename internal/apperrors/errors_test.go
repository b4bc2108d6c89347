package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsUnwrapToSentinels(t *testing.T) {
	assert.ErrorIs(t, NewNotFoundError("issue not found"), ErrNotFound)
	assert.ErrorIs(t, NewValidationFailedError("bad"), ErrValidation)
	assert.ErrorIs(t, NewForbiddenError("no"), ErrForbidden)
	assert.ErrorIs(t, NewUnauthorizedError("who"), ErrUnauthorized)
	assert.ErrorIs(t, NewPreconditionFailedError("stale"), ErrPreconditionFailed)
	assert.ErrorIs(t, NewConflictError("dup"), ErrDuplicate)

	cause := errors.New("connection reset")
	depErr := NewDependencyError("failed to update issue", cause)
	assert.ErrorIs(t, depErr, ErrDependency)
	assert.ErrorIs(t, depErr, cause)
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error code wins", NewAppError(http.StatusTeapot, "teapot", nil), http.StatusTeapot},
		{"wrapped unauthorized", fmt.Errorf("ctx: %w", ErrUnauthorized), http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"not found", ErrNotFound, http.StatusNotFound},
		{"validation", ErrValidation, http.StatusBadRequest},
		{"precondition", fmt.Errorf("%w: status is rejected", ErrPreconditionFailed), http.StatusBadRequest},
		{"duplicate", ErrDuplicate, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestMessageHidesUnknownCauses(t *testing.T) {
	assert.Equal(t, "Internal server error", Message(errors.New("pq: password authentication failed")))
	assert.Equal(t, "Issue not found", Message(NewNotFoundError("Issue not found")))
	assert.Equal(t, "Forbidden", Message(fmt.Errorf("wrap: %w", ErrForbidden)))
}
