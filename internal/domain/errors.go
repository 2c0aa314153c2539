package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrDispatchExhausted   = errors.New("no message could be sent")
	ErrPersistence         = errors.New("persistence failed")
	ErrCorrelationNotFound = errors.New("no message matches message id")
	ErrMissingMessageID    = errors.New("cannot update message with null message id")
)

// FieldError describes why a single payload field was rejected.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every field of a payload that failed validation.
type ValidationError struct {
	Entity string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	causes := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		causes = append(causes, fmt.Sprintf("%s: %s", f.Field, f.Reason))
	}
	return fmt.Sprintf("%d validation error(s) for %s: %s", len(e.Fields), e.Entity, strings.Join(causes, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func (e *ValidationError) add(field string, err error) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: err.Error()})
}

// errOrNil keeps a nil *ValidationError from turning into a non-nil error.
func (e *ValidationError) errOrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// DispatchExhaustedError is returned when every recipient failed.
type DispatchExhaustedError struct {
	ErrorCodes []*int64
}

func (e *DispatchExhaustedError) Error() string {
	codes := make([]string, 0, len(e.ErrorCodes))
	for _, c := range e.ErrorCodes {
		if c == nil {
			codes = append(codes, "none")
			continue
		}
		codes = append(codes, fmt.Sprint(*c))
	}
	return "Sending Twilio messages resulted in errors: " + strings.Join(codes, ", ")
}

func (e *DispatchExhaustedError) Unwrap() error {
	return ErrDispatchExhausted
}
