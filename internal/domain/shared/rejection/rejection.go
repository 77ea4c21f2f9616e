// Package rejection holds the user-facing failure taxonomy shared by the
// reservation core. Every guard in the domain maps to exactly one Reason.
package rejection

import (
	"errors"
	"fmt"
)

type Reason string

const (
	InvalidRange                 Reason = "INVALID_RANGE"
	DatesUnavailable             Reason = "DATES_UNAVAILABLE"
	PriceMismatch                Reason = "PRICE_MISMATCH"
	Unauthorized                 Reason = "UNAUTHORIZED"
	InvalidStateTransition       Reason = "INVALID_STATE_TRANSITION"
	MissingSuccessfulTransaction Reason = "MISSING_SUCCESSFUL_TRANSACTION"
	AlreadyInTargetState         Reason = "ALREADY_IN_TARGET_STATE"
)

var defaultMessages = map[Reason]string{
	InvalidRange:                 "date range is invalid",
	DatesUnavailable:             "requested dates are not available",
	PriceMismatch:                "quoted price does not match the current price",
	Unauthorized:                 "actor is not allowed to perform this action",
	InvalidStateTransition:       "reservation is not in the required state",
	MissingSuccessfulTransaction: "no qualifying payment transaction found",
	AlreadyInTargetState:         "already done",
}

// Error is a recoverable rejection returned to callers instead of a generic failure.
type Error struct {
	Reason Reason
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if msg, ok := defaultMessages[e.Reason]; ok {
		return msg
	}
	return string(e.Reason)
}

// Is matches any rejection carrying the same reason when the target has no detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Reason != e.Reason {
		return false
	}
	return t.Detail == "" || t.Detail == e.Detail
}

var (
	ErrInvalidRange                 = &Error{Reason: InvalidRange}
	ErrDatesUnavailable             = &Error{Reason: DatesUnavailable}
	ErrPriceMismatch                = &Error{Reason: PriceMismatch}
	ErrUnauthorized                 = &Error{Reason: Unauthorized}
	ErrInvalidStateTransition       = &Error{Reason: InvalidStateTransition}
	ErrMissingSuccessfulTransaction = &Error{Reason: MissingSuccessfulTransaction}
	ErrAlreadyInTargetState         = &Error{Reason: AlreadyInTargetState}
)

func New(reason Reason, detail string) *Error {
	return &Error{Reason: reason, Detail: detail}
}

func Newf(reason Reason, format string, args ...any) *Error {
	return &Error{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the rejection reason from an error chain.
func ReasonOf(err error) (Reason, bool) {
	var rej *Error
	if errors.As(err, &rej) {
		return rej.Reason, true
	}
	return "", false
}
