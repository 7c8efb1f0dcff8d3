package validator

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedOutput matches any error raised because model output was
	// not a single JSON object.
	ErrMalformedOutput = errors.New("malformed output")
	// ErrSchemaViolation matches any error raised because a field was
	// missing or had the wrong type.
	ErrSchemaViolation = errors.New("schema violation")
)

// MalformedOutputError wraps the JSON decoding failure.
type MalformedOutputError struct {
	Err error
}

func (e *MalformedOutputError) Error() string {
	if e.Err == nil {
		return "validator: malformed output"
	}
	return fmt.Sprintf("validator: malformed output: %v", e.Err)
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

func (e *MalformedOutputError) Is(target error) bool { return target == ErrMalformedOutput }

// SchemaViolationError names the offending field.
type SchemaViolationError struct {
	Field  string
	Reason string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("validator: schema violation: %s: %s", e.Field, e.Reason)
}

func (e *SchemaViolationError) Is(target error) bool { return target == ErrSchemaViolation }

func malformed(format string, args ...any) error {
	return &MalformedOutputError{Err: fmt.Errorf(format, args...)}
}

func violation(field, format string, args ...any) error {
	return &SchemaViolationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
