// Package apperr carries the error kinds every layer reports to its caller.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindInjection
	KindInsufficientStock
	KindInvalidState
	KindConflict
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindValidation:
		return "VALIDATION"
	case KindInjection:
		return "INJECTION_SUSPECTED"
	case KindInsufficientStock:
		return "INSUFFICIENT_STOCK"
	case KindInvalidState:
		return "INVALID_STATE"
	case KindConflict:
		return "CONFLICT"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindForbidden:
		return "FORBIDDEN"
	default:
		return "INTERNAL"
	}
}

// Error is a classified failure with a message safe to show to the caller.
type Error struct {
	Kind   Kind
	Msg    string
	Detail any
}

func (e *Error) Error() string { return e.Msg }

// StockShortage is the Detail of a KindInsufficientStock error.
type StockShortage struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Available   int    `json:"available"`
	Requested   int    `json:"requested"`
}

func newf(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) error     { return newf(KindNotFound, format, args...) }
func Validation(format string, args ...any) error   { return newf(KindValidation, format, args...) }
func Injection(format string, args ...any) error    { return newf(KindInjection, format, args...) }
func InvalidState(format string, args ...any) error { return newf(KindInvalidState, format, args...) }
func Conflict(format string, args ...any) error     { return newf(KindConflict, format, args...) }
func Unauthorized(format string, args ...any) error { return newf(KindUnauthorized, format, args...) }
func Forbidden(format string, args ...any) error    { return newf(KindForbidden, format, args...) }

func InsufficientStock(s StockShortage) error {
	return &Error{
		Kind: KindInsufficientStock,
		Msg: fmt.Sprintf("Insufficient quantity for product: %s. Available: %d, Requested: %d",
			s.ProductName, s.Available, s.Requested),
		Detail: s,
	}
}

// KindOf reports the kind of the first *Error in err's chain.
// Unclassified errors are KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
