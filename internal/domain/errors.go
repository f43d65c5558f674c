package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal      ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput  ErrorCode = "INVALID_INPUT"
	CodeConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// Validation errors
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeMissingField  ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	CodeOutOfRange    ErrorCode = "OUT_OF_RANGE"

	// Pipeline errors
	CodeDocumentFormat    ErrorCode = "DOCUMENT_FORMAT_ERROR"
	CodeGeneration        ErrorCode = "GENERATION_ERROR"
	CodeGenerationTimeout ErrorCode = "GENERATION_TIMEOUT"
	CodeSchemaValidation  ErrorCode = "SCHEMA_VALIDATION_ERROR"
	CodeJobNotFound       ErrorCode = "JOB_NOT_FOUND"
	CodeUnavailable       ErrorCode = "SERVICE_UNAVAILABLE"
)

// User-facing messages for pipeline failures.
const (
	MsgMissingDocument  = "Please upload a PDF file."
	MsgDocumentFormat   = "Please upload a valid PDF file."
	MsgGeneration       = "The question generator is unavailable right now. Please try again."
	MsgSchemaValidation = "Could not generate questions, please try again."
	MsgNoText           = "The document does not contain any extractable text."
	MsgJobNotFound      = "Generation job not found."
	MsgShuttingDown     = "The server is shutting down. Please try again later."
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details,omitempty"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
		Details: e.Details,
	})
}

// WithDetail attaches a key/value pair that is safe to show to clients.
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Helper functions for common errors
func NewInvalidInputError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(CodeInternal, message, err)
}

func NewConfigurationError(message string) *DomainError {
	return NewError(CodeConfiguration, message, nil)
}

func NewDocumentFormatError(err error) *DomainError {
	return NewError(CodeDocumentFormat, MsgDocumentFormat, err)
}

func NewGenerationError(err error) *DomainError {
	return NewError(CodeGeneration, MsgGeneration, err)
}

func NewGenerationTimeoutError(err error) *DomainError {
	return NewError(CodeGenerationTimeout, MsgGeneration, err)
}

// NewSchemaValidationError reports a completion that did not match the quiz schema.
// violations are kept for logs and API details; the message stays generic.
func NewSchemaValidationError(err error, violations ...string) *DomainError {
	e := NewError(CodeSchemaValidation, MsgSchemaValidation, err)
	if len(violations) > 0 {
		e.WithDetail("violations", violations)
		if err == nil {
			e.Err = errors.New(strings.Join(violations, "; "))
		}
	}
	return e
}

func NewUnavailableError(message string) *DomainError {
	return NewError(CodeUnavailable, message, nil)
}

func NewJobNotFoundError(id string) *DomainError {
	return NewError(CodeJobNotFound, MsgJobNotFound, nil).WithDetail("job_id", id)
}

// IsCode reports whether err carries a DomainError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// IsGenerationFailure covers both plain generation errors and timeouts.
func IsGenerationFailure(err error) bool {
	return IsCode(err, CodeGeneration) || IsCode(err, CodeGenerationTimeout)
}

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string    `json:"field"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Value   any       `json:"value,omitempty"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every field problem found in one request.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, fe := range v {
		msgs = append(msgs, fe.Error())
	}
	return strings.Join(msgs, "; ")
}

func NewMissingFieldError(field, message string) FieldError {
	return FieldError{Field: field, Code: CodeMissingField, Message: message}
}

func NewInvalidFormatError(field string, value any) FieldError {
	return FieldError{Field: field, Code: CodeInvalidFormat, Message: "invalid format", Value: value}
}

func NewOutOfRangeError(field string, value any, min, max int) FieldError {
	return FieldError{
		Field:   field,
		Code:    CodeOutOfRange,
		Message: fmt.Sprintf("must be between %d and %d", min, max),
		Value:   value,
	}
}
