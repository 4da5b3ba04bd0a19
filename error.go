package candydelivery

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
)

// Application error codes.
const (
	ECONFLICT = "conflict"
	EINTERNAL = "internal"
	EINVALID  = "invalid"
	EMISMATCH = "mismatch"
	ENOTFOUND = "not_found"
)

const DefaultErrorMessage = "An internal error has occurred. Please contact technical support."

// Error is the error returned by usecases and repositories.
// Op builds a logical stack of operations the error passed through,
// Code and Message are meant for the caller, Err is the underlying cause.
type Error struct {
	Op      string
	Code    string
	Message string
	Fields  map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	var buf bytes.Buffer

	if e.Op != "" {
		fmt.Fprintf(&buf, "%s: ", e.Op)
	}

	if e.Err != nil {
		buf.WriteString(e.Err.Error())
	} else {
		if e.Code != "" {
			fmt.Fprintf(&buf, "<%s> ", e.Code)
		}
		buf.WriteString(e.Message)
	}

	return buf.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf is a helper returning an *Error with the given code and formatted message.
func Errorf(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// OpError wraps err with the operation name, keeping its code.
func OpError(op string, err error) error {
	if err == nil {
		return nil
	}

	return &Error{Op: op, Err: err}
}

// ErrorWithCode wraps err and assigns it the given code.
func ErrorWithCode(err error, code string) error {
	return &Error{Code: code, Err: err}
}

// ErrorCode returns the first code found in the error chain.
// Non-application errors are always EINTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	for errors.As(err, &e) {
		if e.Code != "" {
			return e.Code
		}
		if e.Err == nil {
			break
		}
		err = e.Err
	}

	return EINTERNAL
}

// ErrorMessage returns the first human-readable message found in the error chain.
// Validation causes without a message are returned as is, anything else is hidden.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	code := ErrorCode(err)

	cause := err
	var e *Error
	for errors.As(cause, &e) {
		if e.Message != "" {
			return e.Message
		}
		if e.Err == nil {
			break
		}
		cause = e.Err
	}

	if code == EINVALID {
		return cause.Error()
	}

	return DefaultErrorMessage
}

// ErrorFields merges Fields of every *Error in the chain, outer values win.
func ErrorFields(err error) map[string]interface{} {
	res := map[string]interface{}{}

	var e *Error
	for errors.As(err, &e) {
		for k, v := range e.Fields {
			if _, ok := res[k]; !ok {
				res[k] = v
			}
		}
		if e.Err == nil {
			break
		}
		err = e.Err
	}

	return res
}

var codes = map[string]int{
	ECONFLICT: http.StatusConflict,
	EINVALID:  http.StatusBadRequest,
	EMISMATCH: http.StatusBadRequest,
	ENOTFOUND: http.StatusNotFound,
	EINTERNAL: http.StatusInternalServerError,
}

func ErrCodeToHTTPStatus(err error) int {
	if code, ok := codes[ErrorCode(err)]; ok {
		return code
	}

	return http.StatusInternalServerError
}
