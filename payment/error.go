package payment

import "fmt"

type ErrorReason string

const (
	REASON_DECLINED             ErrorReason = "DECLINED"
	REASON_NETWORK_ERROR        ErrorReason = "NETWORK_ERROR"
	REASON_USER_CANCELLED       ErrorReason = "USER_CANCELLED"
	REASON_CONFIGURATION_ERROR  ErrorReason = "CONFIGURATION_ERROR"
	REASON_PROVIDER_UNAVAILABLE ErrorReason = "PROVIDER_UNAVAILABLE"
	REASON_SETTLE_IN_PROGRESS   ErrorReason = "SETTLE_IN_PROGRESS"
	REASON_INVALID_DETAILS      ErrorReason = "INVALID_DETAILS"
)

type Error struct {
	Reason  ErrorReason
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s. Cause: %s", e.Reason, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the user may try the same method again.
func (e *Error) Retryable() bool {
	switch e.Reason {
	case REASON_DECLINED, REASON_NETWORK_ERROR, REASON_USER_CANCELLED, REASON_INVALID_DETAILS:
		return true
	default:
		return false
	}
}

func newPaymentError(reason ErrorReason, message string, cause error) *Error {
	return &Error{
		Reason:  reason,
		Message: message,
		Cause:   cause,
	}
}

func NewDeclinedError(message string, cause error) *Error {
	return newPaymentError(REASON_DECLINED, message, cause)
}

func NewNetworkError(message string, cause error) *Error {
	return newPaymentError(REASON_NETWORK_ERROR, message, cause)
}

func NewUserCancelledError(message string) *Error {
	return newPaymentError(REASON_USER_CANCELLED, message, nil)
}

func NewConfigurationError(message string, cause error) *Error {
	return newPaymentError(REASON_CONFIGURATION_ERROR, message, cause)
}

func NewProviderUnavailableError(method Method) *Error {
	return newPaymentError(REASON_PROVIDER_UNAVAILABLE, fmt.Sprintf("Payment method %q is not available", method), nil)
}

func NewSettleInProgressError(sessionID string) *Error {
	return newPaymentError(REASON_SETTLE_IN_PROGRESS, fmt.Sprintf("A settlement is already in progress for session %s", sessionID), nil)
}

func NewInvalidDetailsError(message string, cause error) *Error {
	return newPaymentError(REASON_INVALID_DETAILS, message, cause)
}
