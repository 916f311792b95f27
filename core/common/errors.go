package common

import (
	"fmt"

	"github.com/pkg/errors"
)

/*Error - an error with a stable code and a human readable message */
type Error struct {
	Code string `json:"code,omitempty"`
	Msg  string `json:"msg"`
}

/*NewError - create a new error */
func NewError(code string, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

/*NewErrorf - create a new error with a formatted message */
func NewErrorf(code string, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func (err *Error) Error() string {
	if err.Code == "" {
		return err.Msg
	}
	return fmt.Sprintf("%s: %s", err.Code, err.Msg)
}

// Is reports whether target carries the same code, so wrapped and
// re-messaged errors still match their sentinel.
func (err *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == err.Code
}

// Wrap attaches a code error as the cause of a context message.
func Wrap(err *Error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// WithCause returns a code error that keeps the underlying error visible in
// its message.
func WithCause(code *Error, cause error) error {
	if cause == nil {
		return code
	}
	return errors.Wrap(code, cause.Error())
}

/*InvalidRequest - create error messages that are needed when validating request input */
func InvalidRequest(msg string) error {
	return NewError("invalid_request", fmt.Sprintf("Invalid request (%v)", msg))
}

// GetCode returns the code of the first *Error found in the chain, or "".
func GetCode(err error) string {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code
	}
	return ""
}
