package validator

import (
	"errors"
	"fmt"
)

var (
	ErrSyntaxRejected     = errors.New("address rejected by syntax filter")
	ErrResolution         = errors.New("MX resolution failed")
	ErrInvalidHost        = errors.New("invalid host")
	ErrProbeTimeout       = errors.New("probe timed out waiting for a reply")
	ErrProbeConnection    = errors.New("probe connection failed")
	ErrConnectionClosed   = errors.New("connection closed before a decision was reached")
	ErrUnexpectedResponse = errors.New("unexpected response")
	ErrMailboxUnavailable = errors.New("mailbox unavailable")
)

// ValidationError is returned by the validation steps. It matches both the classification (error) and the cause
// (Internal) with errors.Is
type ValidationError struct {
	Validator string
	Internal  error
	error
}

func (e ValidationError) Unwrap() []error {
	return []error{e.error, e.Internal}
}

// ResolutionError is the result of a failed MX lookup
type ResolutionError struct {
	Domain string
	Cause  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolving MX for domain %q failed: %s", e.Domain, e.Cause)
}

func (e *ResolutionError) Unwrap() []error {
	return []error{ErrResolution, e.Cause}
}

// ProbeError is returned when an SMTP probe ended without the remote deciding on the recipient
type ProbeError struct {
	Phase    Phase
	Internal error
	error
}

func (e ProbeError) Error() string {
	if e.Internal == nil {
		return fmt.Sprintf("%s (phase %s)", e.error, e.Phase)
	}

	return fmt.Sprintf("%s (phase %s): %s", e.error, e.Phase, e.Internal)
}

func (e ProbeError) Unwrap() []error {
	return []error{e.error, e.Internal}
}
