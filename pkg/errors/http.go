package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeInvalidInput = "INVALID_INPUT"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInternal     = "INTERNAL_ERROR"
)

// HTTPError is an error classified with the status code callers should
// surface. Anything that is not an HTTPError is treated as unexpected.
type HTTPError struct {
	Code       string
	Message    string
	StatusCode int
	Err        error
}

func NewHTTPError(code string, message string, statusCode int) *HTTPError {
	return &HTTPError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Wrap keeps err in the chain so errors.Is still matches domain sentinels.
func (e *HTTPError) Wrap(err error) *HTTPError {
	e.Err = err
	return e
}

func InvalidInput(message string) *HTTPError {
	return NewHTTPError(CodeInvalidInput, message, http.StatusBadRequest)
}

func NotFound(message string) *HTTPError {
	return NewHTTPError(CodeNotFound, message, http.StatusNotFound)
}

func Conflict(message string) *HTTPError {
	return NewHTTPError(CodeConflict, message, http.StatusConflict)
}

func Unauthorized(message string) *HTTPError {
	return NewHTTPError(CodeUnauthorized, message, http.StatusUnauthorized)
}

func Internal(message string, err error) *HTTPError {
	return &HTTPError{
		Code:       CodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// AsHTTPError classifies err, converting unknown errors into a 500.
func AsHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode == 0 {
			httpErr.StatusCode = http.StatusInternalServerError
		}
		return httpErr
	}
	return Internal("Internal server error", err)
}

func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return AsHTTPError(err).StatusCode
}
