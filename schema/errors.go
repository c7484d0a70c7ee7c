package schema

import (
	"errors"
	"fmt"
)

// ReflectError reports a schema reflection failure: the table is
// missing or introspection itself failed. Reflection failures are
// never cached, so the next call retries.
type ReflectError struct {
	// Code identifies the error category.
	Code ReflectErrorCode

	// Table is the table name the reflection was requested for.
	Table string

	// Bind is the bind key the reflection ran against.
	Bind string

	// Err is the underlying cause, when one exists.
	Err error
}

// ReflectErrorCode categorizes reflection errors.
type ReflectErrorCode string

const (
	// ErrCodeTableNotFound indicates the named table does not exist
	// in the live schema.
	ErrCodeTableNotFound ReflectErrorCode = "TABLE_NOT_FOUND"

	// ErrCodeIntrospectFailed indicates the introspection query
	// itself failed.
	ErrCodeIntrospectFailed ReflectErrorCode = "INTROSPECT_FAILED"

	// ErrCodeNoEngine indicates the bind has no engine to introspect
	// through.
	ErrCodeNoEngine ReflectErrorCode = "NO_ENGINE"
)

// Error implements the error interface.
func (e *ReflectError) Error() string {
	msg := fmt.Sprintf("%s: table %q", e.Code, e.Table)
	if e.Bind != "" {
		msg += fmt.Sprintf(" (bind=%s)", e.Bind)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ReflectError) Unwrap() error {
	return e.Err
}

// IsReflectError reports whether err is (or wraps) a ReflectError.
func IsReflectError(err error) bool {
	var re *ReflectError
	return errors.As(err, &re)
}
