package manifest

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a manifest validation failure with the offending field.
type Error struct {
	// Field is the manifest key or JSON pointer that failed validation.
	Field string
	// Message describes the failure.
	Message string
	// Err is the underlying error (if any).
	Err error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid manifest")
	if e.Field != "" {
		fmt.Fprintf(&sb, " at %s", e.Field)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Errors collects multiple validation errors.
type Errors []error

func (ve Errors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	return fmt.Sprintf("%d validation errors:\n%s", len(ve), errors.Join(ve...))
}

// Unwrap exposes the collected errors to errors.Is/As.
func (ve Errors) Unwrap() []error {
	return ve
}

// ErrExists is returned by Init when the manifest is already present.
var ErrExists = errors.New("config file already exists")

// ErrNotFound is returned by Load when the manifest file is missing.
var ErrNotFound = errors.New("config file not found")

func newError(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ErrSkillNotFound is returned when a named skill is not declared.
var ErrSkillNotFound = errors.New("skill not found")

// ErrRepoNotFound is returned when a repository locator is not declared.
var ErrRepoNotFound = errors.New("repo not found")
