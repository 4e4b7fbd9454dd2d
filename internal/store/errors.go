package store

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a store failure
type Kind int

const (
	Unknown Kind = iota
	NotFound
	ServerError
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not found"
	case ServerError:
		return "server error"
	default:
		return "unknown"
	}
}

var (
	ErrNotFound    = errors.New("not found")
	ErrServerError = errors.New("server error")
	ErrMissingID   = errors.New("bill id is required")
)

// Error is returned by store clients when a call is rejected
type Error struct {
	Op         string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Op, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrNotFound and ErrServerError by classification
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == NotFound
	case ErrServerError:
		return e.Kind == ServerError
	}
	return false
}

// KindOf returns the classification of err, Unknown if it is not a store error
func KindOf(err error) Kind {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Kind
	}
	return Unknown
}

// KindFromStatus classifies an HTTP status code
func KindFromStatus(code int) Kind {
	switch {
	case code == http.StatusNotFound:
		return NotFound
	case code >= http.StatusInternalServerError:
		return ServerError
	default:
		return Unknown
	}
}

// StatusError builds the error for a rejected response
func StatusError(op string, code int, body string) *Error {
	if body == "" {
		body = http.StatusText(code)
	}
	return &Error{
		Op:         op,
		Kind:       KindFromStatus(code),
		StatusCode: code,
		Err:        errors.New(body),
	}
}
