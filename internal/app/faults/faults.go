package faults

import (
	"context"
	"errors"
	"fmt"

	"directstay/internal/app/policies"
)

// Kind classifies a failure by how the storefront must react to it.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindUnauthenticated  Kind = "unauthenticated"
	KindRemoteFailure    Kind = "remote_failure"
	KindSessionExpired   Kind = "session_expired"
	KindConfigurationGap Kind = "configuration_gap"
)

// Error is the only error type that leaves the draft controller and the checkout machine.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func ValidationErr(err error) *Error {
	return &Error{Kind: KindValidation, Message: err.Error(), Err: err}
}

func Unauthenticated(err error) *Error {
	return &Error{Kind: KindUnauthenticated, Message: "authentication required", Err: err}
}

func Remote(err error) *Error {
	return &Error{Kind: KindRemoteFailure, Message: "the booking service is unavailable, please retry", Err: err}
}

func SessionExpired(message string) *Error {
	return &Error{Kind: KindSessionExpired, Message: message}
}

func ConfigurationGap(message string) *Error {
	return &Error{Kind: KindConfigurationGap, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain, or KindRemoteFailure
// for anything unclassified.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindRemoteFailure
}

// Is reports whether err carries kind.
func Is(err error, kind Kind) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == kind
}

// FromRemote maps a collaborator error onto the taxonomy. Backend validation
// messages are kept verbatim so they can be shown to the user as-is.
func FromRemote(err error) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	var rv *policies.RemoteValidationError
	switch {
	case errors.As(err, &rv):
		return &Error{Kind: KindValidation, Message: rv.Message, Err: err}
	case errors.Is(err, policies.ErrUnauthenticated):
		return Unauthenticated(err)
	case errors.Is(err, policies.ErrBookingExpired):
		return &Error{Kind: KindSessionExpired, Message: "the booking has expired, please start again", Err: err}
	case errors.Is(err, policies.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindRemoteFailure, Message: "the payment service timed out, please retry", Err: err}
	default:
		return Remote(err)
	}
}
