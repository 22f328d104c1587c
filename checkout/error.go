package checkout

import (
	"errors"
	"fmt"

	"github.com/tonatiuh19/intelivoucher-checkout/payment"
	"github.com/tonatiuh19/intelivoucher-checkout/session"
	"github.com/tonatiuh19/intelivoucher-checkout/validation"
)

type ErrorReason string

const (
	REASON_VALIDATION_FAILED       ErrorReason = "VALIDATION_FAILED"
	REASON_BUSY                    ErrorReason = "BUSY"
	REASON_STEP_MISMATCH           ErrorReason = "STEP_MISMATCH"
	REASON_NO_PREVIOUS_STEP        ErrorReason = "NO_PREVIOUS_STEP"
	REASON_SESSION_COMPLETE        ErrorReason = "SESSION_COMPLETE"
	REASON_SESSION_NOT_FOUND       ErrorReason = "SESSION_NOT_FOUND"
	REASON_PAYMENT_REQUIRED        ErrorReason = "PAYMENT_REQUIRED"
	REASON_PAYMENT_NOT_READY       ErrorReason = "PAYMENT_NOT_READY"
	REASON_PROVIDER_UNAVAILABLE    ErrorReason = "PROVIDER_UNAVAILABLE"
	REASON_CONFIGURATION_ERROR     ErrorReason = "CONFIGURATION_ERROR"
	REASON_PAYMENT_DECLINED        ErrorReason = "PAYMENT_DECLINED"
	REASON_NETWORK_ERROR           ErrorReason = "NETWORK_ERROR"
	REASON_USER_CANCELLED          ErrorReason = "USER_CANCELLED"
	REASON_SUBMISSION_FAILED       ErrorReason = "SUBMISSION_FAILED"
	REASON_HOLD_EXPIRED            ErrorReason = "HOLD_EXPIRED"
	REASON_EVENT_NOT_AVAILABLE     ErrorReason = "EVENT_NOT_AVAILABLE"
	REASON_FAILED_TO_LOAD_CHECKOUT ErrorReason = "FAILED_TO_LOAD_CHECKOUT"
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

// Fields returns the failing fields of a VALIDATION_FAILED error.
func (e *Error) Fields() validation.Errors {
	var errs validation.Errors
	if errors.As(e.Cause, &errs) {
		return errs
	}
	return nil
}

func newCheckoutError(reason ErrorReason, message string, cause error) *Error {
	return &Error{
		Reason:  reason,
		Message: message,
		Cause:   cause,
	}
}

func NewValidationError(step session.Step, errs validation.Errors) *Error {
	return newCheckoutError(REASON_VALIDATION_FAILED, fmt.Sprintf("%s data is invalid", step), errs)
}

func NewBusyError() *Error {
	return newCheckoutError(REASON_BUSY, "another checkout operation is in progress", nil)
}

func NewStepMismatchError(current session.Step, wanted session.Step) *Error {
	return newCheckoutError(REASON_STEP_MISMATCH, fmt.Sprintf("session is on %s, not %s", current, wanted), nil)
}

func NewNoPreviousStepError(current session.Step) *Error {
	return newCheckoutError(REASON_NO_PREVIOUS_STEP, fmt.Sprintf("%s has no previous step", current), nil)
}

func NewSessionCompleteError() *Error {
	return newCheckoutError(REASON_SESSION_COMPLETE, "checkout is already confirmed, start a new session", nil)
}

func NewSessionNotFoundError(id string) *Error {
	return newCheckoutError(REASON_SESSION_NOT_FOUND, fmt.Sprintf("checkout session %s does not exist", id), nil)
}

func NewPaymentRequiredError(message string) *Error {
	return newCheckoutError(REASON_PAYMENT_REQUIRED, message, nil)
}

func NewPaymentNotReadyError(message string) *Error {
	return newCheckoutError(REASON_PAYMENT_NOT_READY, message, nil)
}

func NewHoldExpiredError() *Error {
	return newCheckoutError(REASON_HOLD_EXPIRED, "the ticket hold has expired", nil)
}

func NewSubmissionFailedError(message string, cause error) *Error {
	return newCheckoutError(REASON_SUBMISSION_FAILED, message, cause)
}

// newRequestValidationError reports a reservation request that would be refused.
// Nothing has been charged when it is returned.
func newRequestValidationError(err error) *Error {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		errs = validation.Errors{{Field: "request", Message: err.Error()}}
	}
	return newCheckoutError(REASON_VALIDATION_FAILED, "reservation request is incomplete", errs)
}

func NewMissingUserError() *Error {
	return newCheckoutError(REASON_VALIDATION_FAILED, "a checkout needs a user", validation.Errors{{Field: "userId", Message: "is required"}})
}

func NewEventNotAvailableError(message string, cause error) *Error {
	return newCheckoutError(REASON_EVENT_NOT_AVAILABLE, message, cause)
}

func NewFailedToLoadCheckoutError(message string, cause error) *Error {
	return newCheckoutError(REASON_FAILED_TO_LOAD_CHECKOUT, message, cause)
}

// fromPaymentError translates a provider failure into the checkout taxonomy.
func fromPaymentError(err error) *Error {
	var payErr *payment.Error
	if !errors.As(err, &payErr) {
		return newCheckoutError(REASON_NETWORK_ERROR, "payment provider call failed", err)
	}

	switch payErr.Reason {
	case payment.REASON_DECLINED:
		return newCheckoutError(REASON_PAYMENT_DECLINED, payErr.Message, err)
	case payment.REASON_NETWORK_ERROR:
		return newCheckoutError(REASON_NETWORK_ERROR, payErr.Message, err)
	case payment.REASON_USER_CANCELLED:
		return newCheckoutError(REASON_USER_CANCELLED, payErr.Message, err)
	case payment.REASON_CONFIGURATION_ERROR:
		return newCheckoutError(REASON_CONFIGURATION_ERROR, payErr.Message, err)
	case payment.REASON_PROVIDER_UNAVAILABLE:
		return newCheckoutError(REASON_PROVIDER_UNAVAILABLE, payErr.Message, err)
	case payment.REASON_SETTLE_IN_PROGRESS:
		return newCheckoutError(REASON_BUSY, payErr.Message, err)
	case payment.REASON_INVALID_DETAILS:
		return newCheckoutError(REASON_VALIDATION_FAILED, payErr.Message, err)
	default:
		return newCheckoutError(REASON_NETWORK_ERROR, payErr.Message, err)
	}
}
