package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructuredError_Error(t *testing.T) {
	// Test error without cause
	err := New(ErrorTypeInvalidArgument, "test_op", "test message")
	expected := "[invalid_argument] test_op: test message"
	assert.Equal(t, expected, err.Error())

	// Test error with cause
	cause := errors.New("underlying error")
	err = Wrap(cause, ErrorTypeAllocation, "allocate", "failed to allocate")
	assert.Contains(t, err.Error(), "[allocation] allocate: failed to allocate")
	assert.Contains(t, err.Error(), "underlying error")
	assert.Equal(t, cause, err.Unwrap())
}

func TestStructuredError_WithContext(t *testing.T) {
	err := New(ErrorTypeNative, "ug_mesh2d_get", "index out of range")
	err = err.WithContext("file_id", 3).WithContext("topology_id", 7)

	assert.Equal(t, 3, err.Context["file_id"])
	assert.Equal(t, 7, err.Context["topology_id"])
}

func TestErrorConstructors(t *testing.T) {
	assert.Equal(t, ErrorTypeInvalidArgument, NewInvalidArgument("op", "msg").Type)
	assert.Equal(t, ErrorTypeNative, NewNativeError("op", "msg").Type)
	assert.Equal(t, ErrorTypeNotFound, NewNotFound("op", "msg").Type)
	assert.Equal(t, ErrorTypeState, NewStateError("op", "msg").Type)
	assert.Equal(t, ErrorTypeConfiguration, NewConfigurationError("op", "msg").Type)
}

func TestErrorWrapping(t *testing.T) {
	originalErr := errors.New("original error")

	wrapped := WrapAllocationError(originalErr, "allocate", "out of memory")
	assert.Equal(t, ErrorTypeAllocation, wrapped.Type)
	assert.Equal(t, "allocate", wrapped.Operation)
	assert.Equal(t, "out of memory", wrapped.Message)
	assert.Equal(t, originalErr, wrapped.Unwrap())

	// Test that Wrap returns nil for nil error
	assert.Nil(t, Wrap(nil, ErrorTypeNative, "op", "msg"))
}

func TestSentinelMatching(t *testing.T) {
	cause := errors.New("budget exceeded")
	err := fmt.Errorf("mesh2d: %w", WrapAllocationError(cause, "allocate", "field node_x"))

	assert.ErrorIs(t, err, ErrAllocationFailed)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNativeCall)
	assert.Equal(t, ErrorTypeAllocation, TypeOf(err))

	assert.ErrorIs(t, NewNotFound("find", "mesh2d"), ErrNotFound)
	assert.ErrorIs(t, NewStateError("close", "closed"), ErrClosed)
	assert.Equal(t, ErrorType(""), TypeOf(cause))
}

func TestErrorTypeString(t *testing.T) {
	assert.Equal(t, "invalid_argument", string(ErrorTypeInvalidArgument))
	assert.Equal(t, "allocation", string(ErrorTypeAllocation))
	assert.Equal(t, "native", string(ErrorTypeNative))
	assert.Equal(t, "not_found", string(ErrorTypeNotFound))
	assert.Equal(t, "state", string(ErrorTypeState))
	assert.Equal(t, "configuration", string(ErrorTypeConfiguration))
}

func TestCaptureStack(t *testing.T) {
	err := New(ErrorTypeNative, "op", "msg")
	assert.NotEmpty(t, err.Stack)
}
