package storage

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidDimension  = errors.New("invalid dimension")
	ErrUnknownDimension  = errors.New("unknown dimension")
	ErrDuplicateVariable = errors.New("variable already defined")
	ErrShapeMismatch     = errors.New("variable data does not match its shape")
	ErrChecksumMismatch  = errors.New("content checksum mismatch")
	ErrUnknownFormat     = errors.New("unknown storage format")
	ErrCorruptRow        = errors.New("corrupt variable table row")
)

// FileError provides context for a failed load or save.
type FileError struct {
	Op        string // "load" or "save"
	Path      string
	Format    Format
	Cause     error
	Timestamp time.Time
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s (%s) failed: %v", e.Op, e.Path, e.Format, e.Cause)
}

func (e *FileError) Unwrap() error {
	return e.Cause
}

// NewFileError creates a file error with timestamp.
func NewFileError(op, path string, format Format, cause error) error {
	return &FileError{
		Op:        op,
		Path:      path,
		Format:    format,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}
