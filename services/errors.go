package services

import (
	"errors"
	"fmt"
	"strings"

	"sevaconnect-backend/models"
	"sevaconnect-backend/repository"
)

// Kind classifies a service failure for the HTTP layer.
type Kind string

const (
	KindValidation         Kind = "VALIDATION"
	KindNotFound           Kind = "NOT_FOUND"
	KindConflict           Kind = "CONFLICT"
	KindForbidden          Kind = "FORBIDDEN"
	KindUnauthenticated    Kind = "UNAUTHENTICATED"
	KindUnauthenticatedOTP Kind = "UNAUTHENTICATED_OTP"
	KindInternal           Kind = "INTERNAL"
)

// Error is returned by every service operation that fails.
type Error struct {
	Kind    Kind
	Message string
	Fields  []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, INTERNAL for foreign errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func invalid(field, format string, args ...interface{}) error {
	e := &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
	if field != "" {
		e.Fields = []string{field}
	}
	return e
}

func missingFields(fields ...string) error {
	return &Error{
		Kind:    KindValidation,
		Message: "Missing required fields: " + strings.Join(fields, ", "),
		Fields:  fields,
	}
}

func notFound(what string) error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func conflict(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func forbidden(format string, args ...interface{}) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func unauthenticated(msg string) error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func otpMismatch() error {
	return &Error{Kind: KindUnauthenticatedOTP, Message: "The code you entered is incorrect."}
}

func internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// storeError maps repository sentinels onto service kinds. what names the
// record for NOT_FOUND messages.
func storeError(err error, what string) error {
	var se *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &se):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return notFound(what)
	case errors.Is(err, repository.ErrDuplicate):
		return &Error{Kind: KindConflict, Message: what + " already exists", Err: err}
	case errors.Is(err, repository.ErrInUse):
		return &Error{Kind: KindConflict, Message: what + " is still in use", Err: err}
	case errors.Is(err, repository.ErrForeignKey):
		return &Error{Kind: KindValidation, Message: what + " references a record that does not exist", Err: err}
	}
	return internal("store failure", err)
}

// patchError converts patch rule failures into VALIDATION errors.
func patchError(err error) error {
	var unknown *models.UnknownFieldsError
	if errors.As(err, &unknown) {
		return &Error{Kind: KindValidation, Message: unknown.Error(), Fields: unknown.Fields, Err: err}
	}
	var fe *models.FieldError
	if errors.As(err, &fe) {
		return &Error{Kind: KindValidation, Message: fe.Error(), Fields: []string{fe.Field}, Err: err}
	}
	return invalid("", "%v", err)
}
