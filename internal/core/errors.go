package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies domain errors. The transport maps each kind to one status code.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindUnauthenticated  Kind = "unauthenticated"
	KindPermissionDenied Kind = "permission_denied"
	KindNotFound         Kind = "not_found"
)

// Default messages.
const (
	MsgNotAuthenticated   = "Authentication credentials were not provided."
	MsgAuthRequired       = "Authentication required."
	MsgInvalidToken       = "Invalid token."
	MsgPermissionDenied   = "You do not have permission to perform this action."
	MsgStaffRequired      = "Permission denied. Staff access required."
	MsgNotFound           = "Not found."
	MsgFieldRequired      = "This field is required."
	MsgUnknownRecipient   = "Invalid username or user does not exist."
	MsgUsernameTaken      = "A user with that username already exists."
	MsgInvalidCredentials = "Unable to log in with provided credentials."
)

var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
)

// Error wraps a kind and human-readable message.
// Fields is set for validation errors and maps a payload field to its messages.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string][]string
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
	}
	return e.Message + ": " + strings.Join(parts, ", ")
}

// Is lets errors.Is match a *Error against the package sentinels by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthenticated:
		return e.Kind == KindUnauthenticated
	case ErrPermissionDenied:
		return e.Kind == KindPermissionDenied
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrValidation:
		return e.Kind == KindValidation
	}
	return false
}

func coreError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Unauthenticated builds a 401-class error.
func Unauthenticated(msg string) *Error {
	return coreError(KindUnauthenticated, msg)
}

// PermissionDenied builds a 403-class error.
func PermissionDenied(msg string) *Error {
	return coreError(KindPermissionDenied, msg)
}

// NotFound builds a 404-class error with the default message.
func NotFound() *Error {
	return coreError(KindNotFound, MsgNotFound)
}

// FieldError builds a validation error for a single field.
func FieldError(field, msg string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "invalid input",
		Fields:  map[string][]string{field: {msg}},
	}
}

// FieldErrors accumulates per-field validation messages.
type FieldErrors map[string][]string

// Add records msg for field.
func (f FieldErrors) Add(field, msg string) {
	f[field] = append(f[field], msg)
}

// Merge copies every message of other into f.
func (f FieldErrors) Merge(other FieldErrors) {
	for field, msgs := range other {
		f[field] = append(f[field], msgs...)
	}
}

// Err returns nil when no field failed, otherwise a validation *Error.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return &Error{Kind: KindValidation, Message: "invalid input", Fields: map[string][]string(f)}
}
