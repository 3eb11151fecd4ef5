package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema is returned when a payload or record violates the token schema
	ErrSchema = errors.New("schema error")

	// ErrUnauthorized is returned when the caller lacks the capability required by an operation
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is returned when a token does not exist or has been burned
	ErrNotFound = errors.New("token not found")

	// ErrAlreadyExists is returned when attempting to mint a token id that was used before
	ErrAlreadyExists = errors.New("token already exists")

	// ErrNotOwner is returned when an ownership precondition does not hold
	ErrNotOwner = errors.New("not owner")

	// ErrSelfTransfer is returned when a transfer targets its own sender
	ErrSelfTransfer = errors.New("self transfer")

	// ErrNotTransferable is returned when transferring or approving a non-transferable token
	ErrNotTransferable = errors.New("token is not transferable")

	// ErrInvalidAddress is returned for malformed or zero addresses
	ErrInvalidAddress = fmt.Errorf("%w: invalid address", ErrSchema)

	// ErrInvalidTokenID is returned for token ids not in canonical form
	ErrInvalidTokenID = fmt.Errorf("%w: invalid token id", ErrSchema)
)

// ErrorKind is the stable name of an error class surfaced to callers
type ErrorKind string

const (
	KindSchema          ErrorKind = "SchemaError"
	KindUnauthorized    ErrorKind = "Unauthorized"
	KindNotFound        ErrorKind = "NotFound"
	KindAlreadyExists   ErrorKind = "AlreadyExists"
	KindNotOwner        ErrorKind = "NotOwner"
	KindSelfTransfer    ErrorKind = "SelfTransfer"
	KindNotTransferable ErrorKind = "NotTransferable"
	KindInternal        ErrorKind = "Internal"
)

// Retriable reports whether resubmitting the same input could succeed once state changes.
// Schema, authorization and self-transfer failures never succeed without a new payload.
func (k ErrorKind) Retriable() bool {
	switch k {
	case KindNotFound, KindAlreadyExists, KindNotOwner, KindInternal:
		return true
	default:
		return false
	}
}

// Sentinel returns the error value of the kind, or nil for an unknown kind
func (k ErrorKind) Sentinel() error {
	switch k {
	case KindSchema:
		return ErrSchema
	case KindUnauthorized:
		return ErrUnauthorized
	case KindNotFound:
		return ErrNotFound
	case KindAlreadyExists:
		return ErrAlreadyExists
	case KindNotOwner:
		return ErrNotOwner
	case KindSelfTransfer:
		return ErrSelfTransfer
	case KindNotTransferable:
		return ErrNotTransferable
	default:
		return nil
	}
}

// KindOf maps an error to its kind. Errors that wrap none of the registry
// sentinels are host or storage failures and map to KindInternal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSchema):
		return KindSchema
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, ErrNotOwner):
		return KindNotOwner
	case errors.Is(err, ErrSelfTransfer):
		return KindSelfTransfer
	case errors.Is(err, ErrNotTransferable):
		return KindNotTransferable
	default:
		return KindInternal
	}
}

// SchemaError reports the first schema constraint a value violated
type SchemaError struct {
	Field  string
	Reason string
}

// NewSchemaError creates a SchemaError for field with a formatted reason
func NewSchemaError(field string, format string, args ...interface{}) *SchemaError {
	return &SchemaError{
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: %s: %s", e.Field, e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchema
}
