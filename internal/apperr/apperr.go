package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the error shape rendered to callers.
type AppError struct {
	Code       string
	Message    string
	StatusCode int
	Internal   error
}

func (e *AppError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Internal != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is matches on Code so callers can compare against the kinds below.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// Kinds. Use the constructors to attach a message.
var (
	ErrBadRequest   = &AppError{Code: "BAD_REQUEST", Message: "Invalid request", StatusCode: http.StatusBadRequest}
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrNotFound     = &AppError{Code: "NOT_FOUND", Message: "Not found", StatusCode: http.StatusNotFound}
	ErrConflict     = &AppError{Code: "CONFLICT", Message: "Conflict", StatusCode: http.StatusConflict}
	ErrGone         = &AppError{Code: "GONE", Message: "Gone", StatusCode: http.StatusGone}
	ErrStore        = &AppError{Code: "STORE_FAILURE", Message: "Store failure", StatusCode: http.StatusInternalServerError}
	ErrInternal     = &AppError{Code: "INTERNAL", Message: "Internal error", StatusCode: http.StatusInternalServerError}
)

func with(kind *AppError, msg string, err error) *AppError {
	cpy := *kind
	if msg != "" {
		cpy.Message = msg
	}
	cpy.Internal = err
	return &cpy
}

func BadRequest(msg string) *AppError   { return with(ErrBadRequest, msg, nil) }
func Unauthorized(msg string) *AppError { return with(ErrUnauthorized, msg, nil) }
func NotFound(msg string) *AppError     { return with(ErrNotFound, msg, nil) }
func Conflict(msg string) *AppError     { return with(ErrConflict, msg, nil) }
func Gone(msg string) *AppError         { return with(ErrGone, msg, nil) }

// Store surfaces the store's own message, as the public contract requires.
func Store(err error) *AppError {
	if err == nil {
		return with(ErrStore, "", nil)
	}
	return with(ErrStore, err.Error(), err)
}

// From converts any error into an AppError, defaulting to internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return with(ErrInternal, "", err)
}
