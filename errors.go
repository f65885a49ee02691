package gpost

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigError reports an option that could not be set or validated.
type ConfigError struct {
	Option  string
	Value   string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Option != "" {
		return fmt.Sprintf("gpost: option %s: %s", e.Option, e.Message)
	}
	return "gpost: " + e.Message
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// ErrUnknownOption returns an error for an option name that is not recognized.
func ErrUnknownOption(option string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Message: "unknown option",
	}
}

// ErrInvalidValue returns an error for a value that can't be parsed.
func ErrInvalidValue(option, value, expected string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: fmt.Sprintf("invalid value %q, expected %s", value, expected),
	}
}

// ErrInvalidChoice returns an error for a value outside a fixed set of choices.
func ErrInvalidChoice(option, value string, choices []string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: fmt.Sprintf("%q is not a valid choice (valid: %s)", value, strings.Join(choices, ", ")),
	}
}

// ErrOutOfRange returns an error for a numeric value outside the allowed range.
func ErrOutOfRange(option string, value float64, constraint string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   fmt.Sprint(value),
		Message: fmt.Sprintf("value %v %s", value, constraint),
	}
}

// WrapConfigError wraps err with option context.
func WrapConfigError(option string, err error) *ConfigError {
	return &ConfigError{
		Option:  option,
		Message: err.Error(),
		Cause:   err,
	}
}

var ErrUnsupportedObject = errors.New("gpost: not a path object")

// UnsupportedObjectError names a top-level object that carries neither
// commands nor children.
type UnsupportedObjectError struct {
	Name string
}

func (e *UnsupportedObjectError) Error() string {
	return fmt.Sprintf("gpost: object %s is not a path; select only paths and compounds", e.Name)
}

func (e *UnsupportedObjectError) Unwrap() error {
	return ErrUnsupportedObject
}

// CycleError reports a canned cycle that could not be expanded. It is never
// returned from Export; the emitter turns it into a diagnostic comment.
type CycleError struct {
	Command string
	Reason  string
}

func (e *CycleError) Error() string {
	return "drill cycle error: " + e.Reason
}
