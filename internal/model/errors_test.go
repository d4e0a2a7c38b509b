package model

import (
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestPublicError_Kinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"invalid", InvalidInput("Address is required"), ErrInvalidInput},
		{"not found", NotFound("Address not found"), ErrNotFound},
		{"unavailable", Unavailable("Failed to geocode address"), ErrUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			wrapped := eris.Wrap(tt.err, "geocode")
			assert.True(t, errors.Is(wrapped, tt.kind))
			assert.Equal(t, tt.err.Error(), PublicMessage(wrapped, "fallback"))
		})
	}
}

func TestPublicMessage_Fallback(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "Failed to fetch events", PublicMessage(errors.New("boom"), "Failed to fetch events"))
	assert.Equal(t, "x", PublicMessage(nil, "x"))
}
