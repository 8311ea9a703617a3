// Package validate holds the error type returned for malformed client input.
package validate

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Error reports invalid input. It is always the caller's fault and maps to a
// 4xx response.
type Error struct {
	Field   string
	Message string
}

// New returns an Error for field with a formatted message.
func New(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// As reports whether err is or wraps an *Error.
func As(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
