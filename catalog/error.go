package catalog

import "fmt"

type ErrorReason string

const (
	REASON_INVALID_EVENT        ErrorReason = "INVALID_EVENT"
	REASON_EVENT_DOES_NOT_EXIST ErrorReason = "EVENT_DOES_NOT_EXIST"
	REASON_EVENT_ALREADY_EXISTS ErrorReason = "EVENT_ALREADY_EXISTS"
	REASON_FAILED_TO_TRANSLATE  ErrorReason = "FAILED_TO_TRANSLATE"
	REASON_FAILED_TO_FETCH      ErrorReason = "FAILED_TO_FETCH"
	REASON_FAILED_TO_WRITE      ErrorReason = "FAILED_TO_WRITE"
	REASON_TIMEOUT              ErrorReason = "TIMEOUT"
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

func newCatalogError(reason ErrorReason, message string, cause error) *Error {
	return &Error{
		Reason:  reason,
		Message: message,
		Cause:   cause,
	}
}

// NewInvalidEventError wraps the list of problems found by Event.Validate.
func NewInvalidEventError(message string, cause error) *Error {
	return newCatalogError(REASON_INVALID_EVENT, message, cause)
}

func NewEventDoesNotExistsError(message string, cause error) *Error {
	return newCatalogError(REASON_EVENT_DOES_NOT_EXIST, message, cause)
}

func NewEventAlreadyExistsError(message string, cause error) *Error {
	return newCatalogError(REASON_EVENT_ALREADY_EXISTS, message, cause)
}

// NewFailedToTranslateError covers conversion to and from a storage or cache model.
func NewFailedToTranslateError(message string, cause error) *Error {
	return newCatalogError(REASON_FAILED_TO_TRANSLATE, message, cause)
}

func NewFailedToFetchError(message string, cause error) *Error {
	return newCatalogError(REASON_FAILED_TO_FETCH, message, cause)
}

func NewFailedToWriteError(message string, cause error) *Error {
	return newCatalogError(REASON_FAILED_TO_WRITE, message, cause)
}

func NewTimeoutError(message string) *Error {
	return newCatalogError(REASON_TIMEOUT, message, nil)
}
