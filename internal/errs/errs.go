// Package errs holds the error kinds surfaced by the task-result service.
// Handlers classify them with errors.As and map each kind to a status code.
package errs

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// ValidationError reports a field that violates its declared constraint.
type ValidationError struct {
	Field      string
	Constraint string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: must satisfy %s", e.Field, e.Constraint)
}

// NewValidation builds a ValidationError for field.
func NewValidation(field, constraint string) *ValidationError {
	return &ValidationError{Field: field, Constraint: constraint}
}

// ValidationErrors flattens a (possibly combined) error into its
// ValidationError parts. Non-validation errors are skipped.
func ValidationErrors(err error) []*ValidationError {
	var out []*ValidationError
	for _, e := range multierr.Errors(err) {
		var v *ValidationError
		if errors.As(e, &v) {
			out = append(out, v)
		}
	}
	return out
}

// IsValidation reports whether err contains at least one ValidationError.
func IsValidation(err error) bool {
	return len(ValidationErrors(err)) > 0
}

// NotFoundError is returned when a requested record does not exist.
type NotFoundError struct {
	Resource string
	ID       int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// StorageError wraps a persistence failure. Code, Message and Detail carry
// the driver's SQLSTATE information when it is available.
type StorageError struct {
	Op      string
	Code    string
	Message string
	Detail  string
	Err     error
}

func (e *StorageError) Error() string {
	var b strings.Builder
	b.WriteString("storage: ")
	b.WriteString(e.Op)
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *StorageError) Unwrap() error { return e.Err }

// ConfigurationError means an operation was attempted without the settings
// it needs. No side effects have happened when it is returned.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "missing configuration: " + strings.Join(e.Missing, ", ")
}

// ExportError is a failure reported by, or while reaching, the external
// recording service. Status is 0 for transport-level failures.
type ExportError struct {
	Status int
	Code   string
	Detail string
	Err    error
}

func (e *ExportError) Error() string {
	switch {
	case e.Status != 0 && e.Code != "":
		return fmt.Sprintf("export failed with status %d (%s): %s", e.Status, e.Code, e.Detail)
	case e.Status != 0:
		return fmt.Sprintf("export failed with status %d: %s", e.Status, e.Detail)
	case e.Err != nil:
		return "export failed: " + e.Err.Error()
	default:
		return "export failed: " + e.Detail
	}
}

func (e *ExportError) Unwrap() error { return e.Err }
