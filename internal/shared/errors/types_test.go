package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"nil error", nil, KindNone},
		{"validation", NewValidationError("gender", "Please select a gender"), KindValidation},
		{"wrapped logical", fmt.Errorf("submit: %w", &LogicalError{Op: "login"}), KindLogical},
		{"transport", &TransportError{Op: "chat", StatusCode: 500}, KindTransport},
		{"connection refused", errors.New("dial tcp: connection refused"), KindTransport},
		{"deadline", context.DeadlineExceeded, KindTransport},
		{"plain", errors.New("boom"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.err))
		})
	}
}

func TestUserMessagePrefersServerText(t *testing.T) {
	fallback := "Invalid credentials. Please try again later"

	assert.Equal(t, "", UserMessage(nil, fallback))
	assert.Equal(t, "user not found", UserMessage(&TransportError{Op: "login", StatusCode: 404, Message: "user not found"}, fallback))
	assert.Equal(t, fallback, UserMessage(&TransportError{Op: "login", Err: errors.New("eof")}, fallback))
	assert.Equal(t, "bad otp", UserMessage(&LogicalError{Op: "verify_otp", Message: "bad otp"}, fallback))
	assert.Equal(t, "Please select a gender", UserMessage(NewValidationError("gender", "Please select a gender"), fallback))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"no response", &TransportError{Op: "chat", Err: errors.New("eof")}, true},
		{"server error 503", &TransportError{Op: "chat", StatusCode: 503}, true},
		{"rate limit 429", &TransportError{Op: "chat", StatusCode: 429}, true},
		{"bad request", &TransportError{Op: "chat", StatusCode: 400}, false},
		{"logical", &LogicalError{Op: "chat"}, false},
		{"canceled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTransient(tt.err))
		})
	}
}

func TestErrorStrings(t *testing.T) {
	assert.Equal(t, "gender: required", NewValidationError("gender", "required").Error())
	assert.Equal(t, "required", NewValidationError("", "required").Error())
	assert.Equal(t, "login: request was not successful", (&LogicalError{Op: "login"}).Error())
	assert.Equal(t, "login: HTTP 401: nope", (&TransportError{Op: "login", StatusCode: 401, Message: "nope"}).Error())
	assert.Equal(t, "login: HTTP 502", (&TransportError{Op: "login", StatusCode: 502}).Error())

	inner := errors.New("reset")
	wrapped := &TransportError{Op: "login", Err: inner}
	assert.ErrorIs(t, wrapped, inner)
	assert.Equal(t, "transport", KindTransport.String())
}
