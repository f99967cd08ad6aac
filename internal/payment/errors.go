package payment

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// DeclineError is a refused charge: an expected, per-candidate outcome
// that drives cascade continuation, never an abort.
type DeclineError struct {
	Code   string
	Reason string
}

func (e *DeclineError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if strings.TrimSpace(e.Code) == "" {
		return fmt.Sprintf("charge declined: %s", e.Reason)
	}
	return fmt.Sprintf("charge declined (%s): %s", e.Code, e.Reason)
}

// TransportError classifies gateway call failures that are not declines.
type TransportError struct {
	StatusCode int
	Message    string
	Transient  bool
	Cause      error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 4)
	parts = append(parts, "payment transport error")
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsDeclined reports whether an error is a gateway decline rather than a
// transport failure.
func IsDeclined(err error) bool {
	var decline *DeclineError
	return errors.As(err, &decline)
}

// DeclineReason extracts a provider-facing reason from a decline error.
func DeclineReason(err error) string {
	var decline *DeclineError
	if errors.As(err, &decline) && strings.TrimSpace(decline.Reason) != "" {
		return decline.Reason
	}
	return "payment was not accepted"
}

// IsTransient reports whether a failed call might succeed on a later
// attempt. The cascade does not retry either way; this feeds audit rows
// and logs.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}
