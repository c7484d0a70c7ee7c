package engine

import (
	"errors"
	"fmt"
)

// ConfigError reports a misconfiguration: the caller asked for
// something the configuration cannot satisfy. Fix the config and
// retry; the operation will not succeed on its own.
type ConfigError struct {
	// Code identifies the error category.
	Code ConfigErrorCode

	// Bind is the bind key the request was made against.
	Bind string

	// Message is a human-readable description.
	Message string
}

// ConfigErrorCode categorizes configuration errors.
type ConfigErrorCode string

const (
	// ErrCodeUnknownBind indicates a named bind absent from the bind
	// map was requested.
	ErrCodeUnknownBind ConfigErrorCode = "UNKNOWN_BIND"

	// ErrCodeInvalidURI indicates a connection URI that could not be
	// split into driver and DSN parts.
	ErrCodeInvalidURI ConfigErrorCode = "INVALID_URI"

	// ErrCodeEngineUnbound indicates an operation required an engine
	// but the bind has no URI configured.
	ErrCodeEngineUnbound ConfigErrorCode = "ENGINE_UNBOUND"
)

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Bind != "" {
		return fmt.Sprintf("%s: %s (bind=%s)", e.Code, e.Message, e.Bind)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// NewUnknownBindError creates a ConfigError for a bind key missing
// from the bind map.
func NewUnknownBindError(bind string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeUnknownBind,
		Bind:    bind,
		Message: "bind key not present in bind map",
	}
}

// NewUnboundError creates a ConfigError for an operation that needs
// an engine on a bind with no URI configured.
func NewUnboundError(bind string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeEngineUnbound,
		Bind:    bind,
		Message: "no database configured for bind",
	}
}

// ConnectError reports that opening or reaching a database failed.
// This is transient territory (network, auth, DNS); the caller may
// retry. The underlying driver error is wrapped and available via
// errors.Unwrap.
type ConnectError struct {
	Bind string
	URI  string
	Err  error
}

// Error implements the error interface.
func (e *ConnectError) Error() string {
	return fmt.Sprintf("CONNECT_FAILED: %v (bind=%q)", e.Err, e.Bind)
}

// Unwrap returns the underlying driver error.
func (e *ConnectError) Unwrap() error {
	return e.Err
}

// IsConnectError reports whether err is (or wraps) a ConnectError.
func IsConnectError(err error) bool {
	var ce *ConnectError
	return errors.As(err, &ce)
}
