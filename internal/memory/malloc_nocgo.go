//go:build !cgo

package memory

import (
	"errors"

	ugerrors "github.com/23skdu/ugrid/internal/errors"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ErrBackendUnavailable is returned for backends this build cannot provide.
var ErrBackendUnavailable = errors.New("allocator backend unavailable in this build")

// NewMallocAllocator needs cgo.
func NewMallocAllocator() (memory.Allocator, error) {
	return nil, ugerrors.WrapConfigurationError(ErrBackendUnavailable, "memory.NewMallocAllocator", "malloc requires cgo")
}
