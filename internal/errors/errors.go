package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
)

// Error types for different categories of failures
type ErrorType string

const (
	ErrorTypeInvalidArgument ErrorType = "invalid_argument"
	ErrorTypeAllocation      ErrorType = "allocation"
	ErrorTypeNative          ErrorType = "native"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeState           ErrorType = "state"
	ErrorTypeConfiguration   ErrorType = "configuration"
)

// Sentinels matched by errors.Is against any StructuredError of the
// corresponding type.
var (
	ErrInvalidArgument  = stderrors.New("invalid argument")
	ErrAllocationFailed = stderrors.New("allocation failed")
	ErrNativeCall       = stderrors.New("native call failed")
	ErrNotFound         = stderrors.New("not found")
	ErrClosed           = stderrors.New("session is not open")
	ErrConfiguration    = stderrors.New("invalid configuration")
)

var sentinels = map[ErrorType]error{
	ErrorTypeInvalidArgument: ErrInvalidArgument,
	ErrorTypeAllocation:      ErrAllocationFailed,
	ErrorTypeNative:          ErrNativeCall,
	ErrorTypeNotFound:        ErrNotFound,
	ErrorTypeState:           ErrClosed,
	ErrorTypeConfiguration:   ErrConfiguration,
}

// StructuredError provides rich error context
type StructuredError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
	Context   map[string]interface{}
	Stack     []uintptr
}

// Error implements the error interface
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Operation, e.Message)
}

// Unwrap returns the underlying cause
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel for this error's type.
func (e *StructuredError) Is(target error) bool {
	s, ok := sentinels[e.Type]
	return ok && s == target
}

// New creates a new structured error
func New(errType ErrorType, operation, message string) *StructuredError {
	return &StructuredError{
		Type:      errType,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, operation, message string) *StructuredError {
	if err == nil {
		return nil
	}

	se := &StructuredError{
		Type:      errType,
		Operation: operation,
		Message:   message,
		Cause:     err,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
	}

	return se
}

// WithContext adds context information to an error
func (e *StructuredError) WithContext(key string, value interface{}) *StructuredError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// captureStack captures the current stack trace
func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:]) // Skip runtime.Callers, this function and the constructor
	return pcs[:n]
}

// Common error constructors for frequent use cases

// NewInvalidArgument creates an invalid-argument error
func NewInvalidArgument(operation, message string) *StructuredError {
	return New(ErrorTypeInvalidArgument, operation, message)
}

// NewNativeError creates an error for a failed native call. Message is the
// decoded native diagnostic.
func NewNativeError(operation, message string) *StructuredError {
	return New(ErrorTypeNative, operation, message)
}

// NewNotFound creates a lookup failure
func NewNotFound(operation, message string) *StructuredError {
	return New(ErrorTypeNotFound, operation, message)
}

// NewStateError creates an error for an operation issued in the wrong session state
func NewStateError(operation, message string) *StructuredError {
	return New(ErrorTypeState, operation, message)
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(operation, message string) *StructuredError {
	return New(ErrorTypeConfiguration, operation, message)
}

// WrapInvalidArgument wraps an error as an invalid-argument error
func WrapInvalidArgument(err error, operation, message string) *StructuredError {
	return Wrap(err, ErrorTypeInvalidArgument, operation, message)
}

// WrapAllocationError wraps an error as an allocation failure
func WrapAllocationError(err error, operation, message string) *StructuredError {
	return Wrap(err, ErrorTypeAllocation, operation, message)
}

// WrapNotFound wraps an error as a lookup failure
func WrapNotFound(err error, operation, message string) *StructuredError {
	return Wrap(err, ErrorTypeNotFound, operation, message)
}

// WrapConfigurationError wraps an error as a configuration error
func WrapConfigurationError(err error, operation, message string) *StructuredError {
	return Wrap(err, ErrorTypeConfiguration, operation, message)
}

// TypeOf returns the ErrorType of the first StructuredError in err's chain,
// or "" when there is none.
func TypeOf(err error) ErrorType {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Type
	}
	return ""
}
