// Package apperr defines the error taxonomy shared by use cases and transports.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindTransient
	// KindIntegrity marks persisted data that violates a structural invariant (cycles, runaway depth).
	KindIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTransient:
		return "transient"
	case KindIntegrity:
		return "integrity"
	default:
		return "internal"
	}
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(code, message string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message, Fields: fields}
}

func NotFound(entity, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s %s not found", entity, id),
	}
}

func Conflict(code, message string, err error) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message, Err: err}
}

func Transient(message string, err error) *Error {
	return &Error{Kind: KindTransient, Code: "TEMPORARILY_UNAVAILABLE", Message: message, Err: err}
}

func Integrity(message string) *Error {
	return &Error{Kind: KindIntegrity, Code: "STRUCTURE_INTEGRITY", Message: message}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: "INTERNAL", Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsNotFound(err error) bool   { return err != nil && KindOf(err) == KindNotFound }
func IsValidation(err error) bool { return err != nil && KindOf(err) == KindValidation }
func IsConflict(err error) bool   { return err != nil && KindOf(err) == KindConflict }
func IsTransient(err error) bool  { return err != nil && KindOf(err) == KindTransient }
func IsIntegrity(err error) bool  { return err != nil && KindOf(err) == KindIntegrity }
