package errors

import (
	"fmt"
)

// ParseError represents a YAML parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e == nil {
		return ""
	}

	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

// Unwrap exposes the underlying error.
func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError captures plan or job configuration validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// GenerationError represents a fatal failure while lowering a transformation
// tree into a stream graph. The whole compilation pass is discarded.
type GenerationError struct {
	Transform string
	Err       error
}

// NewGenerationError constructs a GenerationError. Transform identifies the
// transformation being lowered when the failure surfaced, as "<name>-<id>".
func NewGenerationError(transform string, err error) error {
	return &GenerationError{Transform: transform, Err: err}
}

func (e *GenerationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Transform != "" {
		return fmt.Sprintf("generation error on %s: %v", e.Transform, e.Err)
	}
	return fmt.Sprintf("generation error: %v", e.Err)
}

// Unwrap exposes the root error.
func (e *GenerationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
