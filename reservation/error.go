package reservation

import "fmt"

type ErrorReason string

const (
	REASON_INVALID_REQUEST ErrorReason = "INVALID_REQUEST"
	REASON_REJECTED        ErrorReason = "REJECTED"
	REASON_NETWORK_ERROR   ErrorReason = "NETWORK_ERROR"
	REASON_UNAVAILABLE     ErrorReason = "UNAVAILABLE"
	REASON_BAD_RESPONSE    ErrorReason = "BAD_RESPONSE"
)

type Error struct {
	Reason  ErrorReason
	Message string
	Cause   error
	// Code is the service error code when the request was rejected.
	Code   string
	Status int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s. Cause: %s", e.Reason, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newReservationError(reason ErrorReason, message string, cause error) *Error {
	return &Error{
		Reason:  reason,
		Message: message,
		Cause:   cause,
	}
}

func NewInvalidRequestError(message string, cause error) *Error {
	return newReservationError(REASON_INVALID_REQUEST, message, cause)
}

func NewRejectedError(status int, code string, message string) *Error {
	e := newReservationError(REASON_REJECTED, message, nil)
	e.Status = status
	e.Code = code
	return e
}

func NewNetworkError(message string, cause error) *Error {
	return newReservationError(REASON_NETWORK_ERROR, message, cause)
}

func NewUnavailableError(message string, cause error) *Error {
	return newReservationError(REASON_UNAVAILABLE, message, cause)
}

func NewBadResponseError(message string, cause error) *Error {
	return newReservationError(REASON_BAD_RESPONSE, message, cause)
}
