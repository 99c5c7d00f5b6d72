package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Kind classifies a failure the way the screens react to it.
type Kind int

const (
	// KindNone is returned for a nil error.
	KindNone Kind = iota
	// KindValidation - caught before any network call, shown as a blocking alert.
	KindValidation
	// KindLogical - the backend answered with success=false.
	KindLogical
	// KindTransport - network or HTTP failure.
	KindTransport
	// KindUnknown - anything else.
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindLogical:
		return "logical"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// ValidationError reports invalid local input. No state is mutated when it is
// returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// LogicalError reports a well-formed backend reply carrying success=false.
type LogicalError struct {
	Op      string // login, verify_otp, register, conversation, upload
	Message string // server provided message, may be empty
}

func (e *LogicalError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: request was not successful", e.Op)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// TransportError reports a network failure or a non-2xx HTTP response.
type TransportError struct {
	Op         string
	StatusCode int    // zero when no response was received
	Message    string // message field decoded from an error body, if any
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Message != "":
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: transport failure", e.Op)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// KindOf classifies err.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return KindValidation
	}
	var logicalErr *LogicalError
	if errors.As(err, &logicalErr) {
		return KindLogical
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return KindTransport
	}
	if isNetworkError(err) {
		return KindTransport
	}
	return KindUnknown
}

// ServerMessage returns the message the backend attached to err, if any.
func ServerMessage(err error) string {
	var logicalErr *LogicalError
	if errors.As(err, &logicalErr) {
		return logicalErr.Message
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Message
	}
	return ""
}

// UserMessage picks the text shown to the user: the validation message, the
// server provided message when present, otherwise fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}
	if msg := strings.TrimSpace(ServerMessage(err)); msg != "" {
		return msg
	}
	return fallback
}

// IsTransient reports whether a retry could plausibly succeed. Nothing in the
// client retries automatically; the flag only shapes notices and logs.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		if transportErr.StatusCode == 0 {
			return true
		}
		return isTransientHTTPStatus(transportErr.StatusCode)
	}
	return isNetworkError(err)
}

func isTransientHTTPStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return code >= 500
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	lower := strings.ToLower(err.Error())
	for _, pattern := range []string{"connection refused", "connection reset", "no such host", "broken pipe"} {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
