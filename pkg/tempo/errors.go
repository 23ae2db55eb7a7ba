package tempo

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNilContainer is returned when Prepare is given no container.
	ErrNilContainer = errors.New("tempo: container is nil")
	// ErrContainerNotFound is returned when PrepareID cannot locate the container.
	ErrContainerNotFound = errors.New("tempo: container not found")
)

// ParseError represents a syntax error in a condition or guard expression
type ParseError struct {
	Message  string
	Token    string
	Position int
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("parse error at position %d near '%s': %s", e.Position, e.Token, e.Message)
	}
	return fmt.Sprintf("parse error at position %d: %s", e.Position, e.Message)
}

// NewParseError creates a new parse error
func NewParseError(message, token string, position int) error {
	return &ParseError{
		Message:  message,
		Token:    token,
		Position: position,
	}
}

// ExpressionError reports a guard or conditional expression that could not be evaluated
// against an item. Fields lists the field names the item exposed at the time.
type ExpressionError struct {
	Expression string
	Fields     []string
	Cause      error
}

func (e *ExpressionError) Error() string {
	fields := strings.Join(e.Fields, ", ")
	if e.Cause != nil {
		return fmt.Sprintf("expression error for '%s' (fields: [%s]): %v", e.Expression, fields, e.Cause)
	}
	return fmt.Sprintf("expression error for '%s' (fields: [%s])", e.Expression, fields)
}

func (e *ExpressionError) Unwrap() error {
	return e.Cause
}

// NewExpressionError creates a new expression error
func NewExpressionError(expression string, fields []string, cause error) error {
	return &ExpressionError{
		Expression: expression,
		Fields:     fields,
		Cause:      cause,
	}
}

// FilterError represents a failure inside a filter pipeline
type FilterError struct {
	Filter  string
	Args    []string
	Message string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter error in '%s(%s)': %s", e.Filter, strings.Join(e.Args, ", "), e.Message)
}

// NewFilterError creates a new filter error
func NewFilterError(filter string, args []string, message string) error {
	return &FilterError{
		Filter:  filter,
		Args:    args,
		Message: message,
	}
}

// DocumentError represents a failure reported by the document adapter
type DocumentError struct {
	Operation string
	Tag       string
	Cause     error
}

func (e *DocumentError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("document error during %s of <%s>: %v", e.Operation, e.Tag, e.Cause)
	}
	return fmt.Sprintf("document error during %s: %v", e.Operation, e.Cause)
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}

// NewDocumentError creates a new document error
func NewDocumentError(operation, tag string, cause error) error {
	if cause == nil {
		return nil
	}
	return &DocumentError{
		Operation: operation,
		Tag:       tag,
		Cause:     cause,
	}
}

// MultiError collects multiple errors
type MultiError struct {
	errors []error
}

// NewMultiError creates a new multi-error collector
func NewMultiError() *MultiError {
	return &MultiError{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collection (ignores nil errors)
func (m *MultiError) Add(err error) {
	if err == nil {
		return
	}
	var nested *MultiError
	if errors.As(err, &nested) && nested != m {
		m.errors = append(m.errors, nested.errors...)
		return
	}
	m.errors = append(m.errors, err)
}

// Len returns the number of errors
func (m *MultiError) Len() int {
	return len(m.errors)
}

// Errors returns the collected errors
func (m *MultiError) Errors() []error {
	return m.errors
}

// Err returns the multi-error or nil if empty
func (m *MultiError) Err() error {
	if len(m.errors) == 0 {
		return nil
	}
	if len(m.errors) == 1 {
		return m.errors[0]
	}
	return m
}

func (m *MultiError) Error() string {
	if len(m.errors) == 0 {
		return "no errors"
	}

	if len(m.errors) == 1 {
		return m.errors[0].Error()
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d errors occurred:", len(m.errors)))
	for i, err := range m.errors {
		parts = append(parts, fmt.Sprintf("  [%d] %v", i+1, err))
	}
	return strings.Join(parts, "\n")
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (m *MultiError) Unwrap() []error {
	return m.errors
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

// IsExpressionError checks if an error is an expression error
func IsExpressionError(err error) bool {
	var target *ExpressionError
	return errors.As(err, &target)
}

// IsFilterError checks if an error is a filter error
func IsFilterError(err error) bool {
	var target *FilterError
	return errors.As(err, &target)
}

// IsDocumentError checks if an error is a document error
func IsDocumentError(err error) bool {
	var target *DocumentError
	return errors.As(err, &target)
}
