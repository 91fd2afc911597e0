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

// ValidationError captures configuration or option validation issues.
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

// PipelineError represents a runtime failure during a pipeline phase,
// annotated with the rank the failure occurred on.
type PipelineError struct {
	Phase string
	Rank  int
	Err   error
}

// NewPipelineError constructs a PipelineError for the given phase and rank.
func NewPipelineError(phase string, rank int, err error) error {
	return &PipelineError{Phase: phase, Rank: rank, Err: err}
}

func (e *PipelineError) Error() string {
	if e == nil {
		return ""
	}
	if e.Phase != "" {
		return fmt.Sprintf("proc %d: pipeline error in phase %s: %v", e.Rank, e.Phase, e.Err)
	}
	return fmt.Sprintf("proc %d: pipeline error: %v", e.Rank, e.Err)
}

// Unwrap exposes the root error.
func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WorkloadError indicates issues within workload provider registration or lookup.
type WorkloadError struct {
	Name    string
	Message string
	Err     error
}

// NewWorkloadError constructs a WorkloadError for the given provider name.
func NewWorkloadError(name string, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &WorkloadError{Name: name, Message: message, Err: err}
}

func (e *WorkloadError) Error() string {
	if e == nil {
		return ""
	}
	if e.Name != "" {
		return fmt.Sprintf("workload error [%s]: %s", e.Name, e.Message)
	}
	return fmt.Sprintf("workload error: %s", e.Message)
}

// Unwrap exposes the underlying error.
func (e *WorkloadError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
