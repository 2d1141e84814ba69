package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure of a client or connector call.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfigurationMissing
	KindConfigurationIncomplete
	KindValidation
	KindNetwork
	KindRateLimited
	KindWrongResponse
	KindEmptyBody
)

// String returns the stable name used in logs and metrics.
func (k Kind) String() string {
	switch k {
	case KindConfigurationMissing:
		return "configuration_missing"
	case KindConfigurationIncomplete:
		return "configuration_incomplete"
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network_error"
	case KindRateLimited:
		return "rate_limited"
	case KindWrongResponse:
		return "wrong_response"
	case KindEmptyBody:
		return "empty_body"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. An *Error matches the sentinel of its Kind.
var (
	ErrConfigurationMissing    = errors.New("client configuration missing")
	ErrConfigurationIncomplete = errors.New("client configuration incomplete")
	ErrValidation              = errors.New("validation failed")
	ErrNetwork                 = errors.New("network error")
	ErrRateLimited             = errors.New("rate limited")
	ErrWrongResponse           = errors.New("wrong response")
	ErrEmptyBody               = errors.New("empty or unparseable response body")

	// Validation sub-kinds, wrapped inside a KindValidation *Error.
	ErrNotConnected      = errors.New("not connected")
	ErrUnsupportedMethod = errors.New("unsupported request method")
	ErrMethodNotAllowed  = errors.New("request method not allowed for resource")
	ErrInactive          = errors.New("resource has been deleted")
)

func (k Kind) sentinel() error {
	switch k {
	case KindConfigurationMissing:
		return ErrConfigurationMissing
	case KindConfigurationIncomplete:
		return ErrConfigurationIncomplete
	case KindValidation:
		return ErrValidation
	case KindNetwork:
		return ErrNetwork
	case KindRateLimited:
		return ErrRateLimited
	case KindWrongResponse:
		return ErrWrongResponse
	case KindEmptyBody:
		return ErrEmptyBody
	}
	return nil
}

// Error is the failure value returned by the transport and the connectors.
type Error struct {
	Kind   Kind
	Op     string // e.g. "GET products"
	Status int    // HTTP status, 0 when no response was received
	Body   []byte // raw response body for diagnostics
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel that corresponds to the error's Kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && s == target
}

// NewError builds an *Error of the given kind.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validationf builds a KindValidation error wrapping cause.
func Validationf(op string, cause error, format string, args ...any) *Error {
	var err error
	if format != "" {
		err = fmt.Errorf("%w: %s", cause, fmt.Sprintf(format, args...))
	} else {
		err = cause
	}
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

// KindOf returns the Kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
