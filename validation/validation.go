package validation

import (
	"fmt"
	"strings"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) Error() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Message)
}

// Errors collects every failing field of a step.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, f := range e {
		msgs = append(msgs, f.Error())
	}
	return strings.Join(msgs, "; ")
}

// Err returns nil when there are no failures so callers can use the usual err != nil check.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for _, f := range e {
		fields = append(fields, f.Field)
	}
	return fields
}

func (e Errors) Has(field string) bool {
	for _, f := range e {
		if f.Field == field {
			return true
		}
	}
	return false
}

func (e *Errors) add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// Rule validates one concern of a step's fields and returns all of its failures.
type Rule[T any] func(T) Errors

// All runs every rule and concatenates their failures.
func All[T any](rules ...Rule[T]) Rule[T] {
	return func(v T) Errors {
		var errs Errors
		for _, r := range rules {
			errs = append(errs, r(v)...)
		}
		return errs
	}
}

func indexed(prefix string, i int, field string) string {
	return fmt.Sprintf("%s[%d].%s", prefix, i, field)
}
