// Package domain holds the quote model and the errors the rest of the
// service speaks in. Nothing here knows about HTTP or JSON; adapters map
// these errors onto their own status codes.
package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every typed error below unwraps to exactly one of these.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrValidation        = errors.New("validation failed")
	ErrForbidden         = errors.New("forbidden")
	ErrUnavailable       = errors.New("unavailable")
	ErrMalformedDocument = errors.New("malformed quote document")
)

// ErrEmptyCache means no snapshot has ever been loaded. It is an
// UnavailableError so generic outage handling covers it.
var ErrEmptyCache error = &UnavailableError{Service: "quote-cache", Reason: "no quotes loaded"}

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}

	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError returns a *NotFoundError.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError is a state conflict reported by a dependency.
type ConflictError struct {
	Entity string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.Entity, e.Reason)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NewConflictError returns a *ConflictError.
func NewConflictError(entity, reason string) error {
	return &ConflictError{Entity: entity, Reason: reason}
}

// ValidationError rejects caller input. Field is empty when the whole
// input is at fault.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}

	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError returns a *ValidationError.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ForbiddenError means a dependency refused the operation.
type ForbiddenError struct {
	Operation string
	Reason    string
}

func (e *ForbiddenError) Error() string {
	msg := e.Operation + " forbidden"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return msg
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// NewForbiddenError returns a *ForbiddenError.
func NewForbiddenError(operation, reason string) error {
	return &ForbiddenError{Operation: operation, Reason: reason}
}

// UnavailableError is a temporary outage of a named dependency.
type UnavailableError struct {
	Service string
	Reason  string
}

func (e *UnavailableError) Error() string {
	msg := e.Service + " unavailable"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return msg
}

func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

// NewUnavailableError returns an *UnavailableError.
func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

// MalformedDocumentError rejects a quote document whose top level is not
// the expected year map. Cause is the decoder error, if any.
type MalformedDocumentError struct {
	Reason string
	Cause  error
}

func (e *MalformedDocumentError) Error() string {
	if e.Cause == nil {
		return "malformed quote document: " + e.Reason
	}

	return fmt.Sprintf("malformed quote document: %s: %v", e.Reason, e.Cause)
}

func (e *MalformedDocumentError) Unwrap() error { return ErrMalformedDocument }

// NewMalformedDocumentError returns a *MalformedDocumentError.
func NewMalformedDocumentError(reason string, cause error) error {
	return &MalformedDocumentError{Reason: reason, Cause: cause}
}

// FetchError wraps a failure to retrieve the document. It matches both its
// cause and ErrUnavailable.
type FetchError struct {
	Source string
	Cause  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching quotes from %s: %v", e.Source, e.Cause)
}

func (e *FetchError) Unwrap() []error { return []error{e.Cause, ErrUnavailable} }

// NewFetchError returns a *FetchError.
func NewFetchError(source string, cause error) error {
	return &FetchError{Source: source, Cause: cause}
}

func IsNotFound(err error) bool          { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool          { return errors.Is(err, ErrConflict) }
func IsValidation(err error) bool        { return errors.Is(err, ErrValidation) }
func IsForbidden(err error) bool         { return errors.Is(err, ErrForbidden) }
func IsUnavailable(err error) bool       { return errors.Is(err, ErrUnavailable) }
func IsMalformedDocument(err error) bool { return errors.Is(err, ErrMalformedDocument) }
func IsEmptyCache(err error) bool        { return errors.Is(err, ErrEmptyCache) }
