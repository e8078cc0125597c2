// Package apperr defines the two error families every engine operation
// surfaces: Validation (malformed or semantically invalid input) and
// Permission (the caller lacks the required role or membership). A third
// kind, NotFound, marks internal invariant violations; it is treated as a
// programming error and aborts the operation that detected it.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindPermission
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Code is a stable machine-readable identifier for one failure condition.
// The request layer maps Kind to a transport status and forwards Code and
// Message verbatim; it never inspects message text.
type Code string

const (
	CodeAlreadyMember       Code = "ALREADY_MEMBER"
	CodePrivateChannel      Code = "PRIVATE_CHANNEL"
	CodeNotAMember          Code = "NOT_A_MEMBER"
	CodeAlreadyOwner        Code = "ALREADY_OWNER"
	CodeTargetNotOwner      Code = "TARGET_NOT_OWNER"
	CodeTargetNotMember     Code = "TARGET_NOT_MEMBER"
	CodeTargetIsGlobalOwner Code = "TARGET_IS_GLOBAL_OWNER"
	CodeNotAuthorized       Code = "NOT_AUTHORIZED"
	CodeTooLong             Code = "TOO_LONG"
	CodeEmpty               Code = "EMPTY"
	CodeStartOutOfRange     Code = "START_OUT_OF_RANGE"
	CodeInvalidReact        Code = "INVALID_REACT"
	CodeAlreadyReacted      Code = "ALREADY_REACTED"
	CodeNotReacted          Code = "NOT_REACTED"
	CodeAlreadyPinned       Code = "ALREADY_PINNED"
	CodeNotPinned           Code = "NOT_PINNED"
	CodeInvalidLevel        Code = "INVALID_LEVEL"
	CodeSoleOwner           Code = "SOLE_OWNER_PROTECTION"
	CodeAlreadyActive       Code = "ALREADY_ACTIVE"
	CodeNoActiveStandup     Code = "NO_ACTIVE_STANDUP"
	CodeInThePast           Code = "IN_THE_PAST"
	CodeCancelled           Code = "CANCELLED"
	CodeNotFound            Code = "NOT_FOUND"
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeEmailTaken          Code = "EMAIL_TAKEN"
	CodeHandleTaken         Code = "HANDLE_TAKEN"
	CodeBadCredentials      Code = "BAD_CREDENTIALS"
	CodeAlreadyLoggedIn     Code = "ALREADY_LOGGED_IN"
	CodeTerminated          Code = "ACCOUNT_TERMINATED"
	CodeBadToken            Code = "BAD_TOKEN"
	CodeBadResetCode        Code = "BAD_RESET_CODE"
)

type Error struct {
	Kind    Kind
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s): %s", e.Code, e.Kind, e.Message)
}

// Validation builds an input-validation failure.
func Validation(code Code, format string, args ...any) error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Permission builds an access failure.
func Permission(code Code, format string, args ...any) error {
	return &Error{Kind: KindPermission, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFound marks a broken cross-table reference. Callers treat it as
// fatal to the operation, not as a user-facing condition to patch over.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// CodeOf returns the stable code of err, or "" when err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsPermission(err error) bool { return KindOf(err) == KindPermission }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
