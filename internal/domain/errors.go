package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSignInRequired     = errors.New("please sign in first")
	ErrSubmissionInFlight = errors.New("a booking is already being submitted")
	ErrUnknownService     = errors.New("selected service is not in the catalog")
)

// ValidationError reports missing or invalid input caught before any network call.
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

// AuthError is a login or registration rejected by the backend.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("authentication rejected (http %d)", e.Status)
	}
	return e.Message
}

// TransportError covers network failures, undecodable bodies and non-2xx replies.
// Message holds the backend-provided text when there was one.
type TransportError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: http %d", e.Op, e.Status)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// PartialBookingFailure means the appointment exists but its order was not created.
// No compensating cancellation is attempted.
type PartialBookingFailure struct {
	AppointmentID string
	Err           error
}

func (e *PartialBookingFailure) Error() string {
	return fmt.Sprintf("appointment %s created but order failed: %v", e.AppointmentID, e.Err)
}

func (e *PartialBookingFailure) Unwrap() error { return e.Err }

// UserMessage turns an error into the text shown to the visitor.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, ErrSignInRequired) {
		return "Please sign in first."
	}
	if errors.Is(err, ErrSubmissionInFlight) {
		return "Your booking is already being submitted."
	}
	if errors.Is(err, ErrUnknownService) {
		return "Choose service, date and time"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}

	var partial *PartialBookingFailure
	if errors.As(err, &partial) {
		msg := "Your appointment was created but checkout failed"
		if detail := backendMessage(partial.Err); detail != "" {
			msg += ": " + detail
		}
		return msg + ". Please contact us before booking again."
	}

	var authErr *AuthError
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message
	}

	if detail := backendMessage(err); detail != "" {
		return detail
	}

	return "Something went wrong. Please try again later."
}

func backendMessage(err error) string {
	var tErr *TransportError
	if errors.As(err, &tErr) {
		return tErr.Message
	}
	return ""
}
