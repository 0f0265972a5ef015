// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Feedline Contributors

// Package fault defines the error kinds returned by feed and account
// operations and the envelope they render to.
package fault

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an operation failure.
type Kind uint8

const (
	// KindInternal is an unexpected failure in a collaborator.
	KindInternal Kind = iota
	// KindUnauthenticated means a credential was required but missing or invalid.
	KindUnauthenticated
	// KindForbidden means the caller is known but does not own the resource.
	KindForbidden
	// KindNotFound means the referenced entity does not exist.
	KindNotFound
	// KindInvalidInput means one or more validation rules failed.
	KindInvalidInput
	// KindConflict means the entity already exists.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Status returns the stable status code reported for the kind.
func (k Kind) Status() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure. Violations is only populated for
// KindInvalidInput and holds one message per violated rule.
type Error struct {
	Kind       Kind
	Message    string
	Violations []string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so errors.Is(err, fault.ErrForbidden)
// works for any forbidden failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrInvalidInput    = &Error{Kind: KindInvalidInput}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrInternal        = &Error{Kind: KindInternal}
)

// Unauthenticated builds a KindUnauthenticated error.
func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

// Forbidden builds a KindForbidden error.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// NotFound builds a KindNotFound error wrapping an optional cause.
func NotFound(msg string, cause error) *Error {
	return &Error{Kind: KindNotFound, Message: msg, Err: cause}
}

// Invalid builds a KindInvalidInput error carrying every violation.
func Invalid(msg string, violations []string) *Error {
	return &Error{Kind: KindInvalidInput, Message: msg, Violations: violations}
}

// Conflict builds a KindConflict error wrapping an optional cause.
func Conflict(msg string, cause error) *Error {
	return &Error{Kind: KindConflict, Message: msg, Err: cause}
}

// Internal builds a KindInternal error around a collaborator failure.
func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: cause}
}

// As returns the outermost *Error in the chain.
func As(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// KindOf classifies err. Errors without a fault in their chain are internal.
func KindOf(err error) Kind {
	if fe, ok := As(err); ok {
		return fe.Kind
	}
	return KindInternal
}
