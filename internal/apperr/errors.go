package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/MimeLyc/job-tracker/pkg/log"
)

type ErrorType int

const (
	ErrValidation ErrorType = iota
	ErrNotFound
	ErrUnsupportedFormat
	ErrStorage
	ErrConfig
	ErrUnknown
)

type Error struct {
	Type    ErrorType
	Message string
	Context map[string]any
	Cause   error
}

func NewError(errorType ErrorType, message string) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
	}
}

func NewErrorWithCause(errorType ErrorType, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Context: make(map[string]any),
		Cause:   cause,
	}
}

func WrapError(err error, errorType ErrorType, message string) *Error {
	return NewErrorWithCause(errorType, message, err)
}

func (e *Error) Error() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s] %s", e.Type.String(), e.Message))

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ctxParts := make([]string, 0, len(keys))
		for _, k := range keys {
			ctxParts = append(ctxParts, fmt.Sprintf("%s=%v", k, e.Context[k]))
		}
		parts = append(parts, fmt.Sprintf("context: %s", strings.Join(ctxParts, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " | ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) WithContext(key string, value any) *Error {
	e.Context[key] = value
	return e
}

func (t ErrorType) String() string {
	switch t {
	case ErrValidation:
		return "Validation"
	case ErrNotFound:
		return "NotFound"
	case ErrUnsupportedFormat:
		return "UnsupportedFormat"
	case ErrStorage:
		return "Storage"
	case ErrConfig:
		return "Config"
	default:
		return "Unknown"
	}
}

func IsErrorType(err error, errorType ErrorType) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// TypeOf returns ErrUnknown for errors that did not come from this package.
func TypeOf(err error) ErrorType {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrUnknown
}

// IsClientError reports whether err was caused by caller input.
func IsClientError(err error) bool {
	switch TypeOf(err) {
	case ErrValidation, ErrNotFound, ErrUnsupportedFormat:
		return true
	default:
		return false
	}
}

func HTTPStatus(err error) int {
	switch TypeOf(err) {
	case ErrValidation, ErrUnsupportedFormat:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message is the user-facing text for err. Server-side failures are not
// described in detail.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && IsClientError(err) {
		return appErr.Message
	}
	return "internal error"
}

// Report logs err and returns false if it is not an *Error.
func Report(err error) bool {
	var appErr *Error
	if !errors.As(err, &appErr) {
		log.Error("Unknown error: %v", err)
		return false
	}
	if IsClientError(err) {
		log.Warn("Request rejected: %v", err)
	} else {
		log.Error("Error detail: %v", err)
	}
	return true
}
