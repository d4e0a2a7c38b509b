package model

import (
	"errors"

	"github.com/rotisserie/eris"
)

// Error kinds surfaced by the HTTP layer. Test with errors.Is.
var (
	// ErrInvalidInput marks malformed or missing request fields (400).
	ErrInvalidInput = eris.New("invalid input")
	// ErrNotFound marks a lookup with zero matches (404).
	ErrNotFound = eris.New("not found")
	// ErrUpstreamUnavailable marks a missing credential or a failed provider call (500).
	ErrUpstreamUnavailable = eris.New("upstream unavailable")
)

// PublicError pairs an error kind with the message returned to API callers.
type PublicError struct {
	Kind    error
	Message string
}

func (e *PublicError) Error() string { return e.Message }

func (e *PublicError) Unwrap() error { return e.Kind }

// InvalidInput returns a PublicError of kind ErrInvalidInput.
func InvalidInput(msg string) error {
	return &PublicError{Kind: ErrInvalidInput, Message: msg}
}

// NotFound returns a PublicError of kind ErrNotFound.
func NotFound(msg string) error {
	return &PublicError{Kind: ErrNotFound, Message: msg}
}

// Unavailable returns a PublicError of kind ErrUpstreamUnavailable.
func Unavailable(msg string) error {
	return &PublicError{Kind: ErrUpstreamUnavailable, Message: msg}
}

// PublicMessage returns the caller-facing message in err's chain, or fallback.
func PublicMessage(err error, fallback string) string {
	var pe *PublicError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return fallback
}
