// Package errclass defines stable, machine-readable error classes for the
// query and maintenance surfaces. The ingestion path never returns errors to
// producers, so these only appear on the management side.
package errclass

import "fmt"

// Error is a stable, machine-readable error class.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// WithMessage returns a new Error with the same Code but a specific message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg}
}

// WithMessagef returns a new Error with a formatted message.
func (e *Error) WithMessagef(format string, args ...any) *Error {
	return &Error{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// All stable error classes.
var (
	ErrDateInvalid       = &Error{Code: "E_DATE_INVALID"}
	ErrRangeInvalid      = &Error{Code: "E_RANGE_INVALID"}
	ErrTypeUnknown       = &Error{Code: "E_TYPE_UNKNOWN"}
	ErrStatusInvalid     = &Error{Code: "E_STATUS_INVALID"}
	ErrFormatUnsupported = &Error{Code: "E_FORMAT_UNSUPPORTED"}
	ErrDirUnreadable     = &Error{Code: "E_DIR_UNREADABLE"}
	ErrCompressVerify    = &Error{Code: "E_COMPRESS_VERIFY"}
)
