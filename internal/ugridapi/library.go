// Package ugridapi is a pure-Go implementation of the UGrid native call
// surface. Every call returns an integer exit code and records a message in
// the last-error buffer on failure, exactly as the C library does, so callers
// exercise the same boundary protocol against it.
package ugridapi

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/23skdu/ugrid/internal/storage"
	"github.com/23skdu/ugrid/internal/topology"
	"github.com/rs/zerolog"
)

// Exit codes.
const (
	Success   int32 = 0
	Exception int32 = 1
)

// ErrorBufferSize is the size of the last-error buffer, terminator included.
const ErrorBufferSize = 512

// File modes.
const (
	ModeRead    int32 = 0
	ModeWrite   int32 = 1
	ModeReplace int32 = 2
)

// Missing values written for data absent from a file.
const (
	IntFillValue    int32   = -999
	DoubleFillValue float64 = -999.0
)

var (
	errUnknownFile     = errors.New("unknown file id")
	errReadOnly        = errors.New("file is open read-only")
	errTopologyIndex   = errors.New("topology index out of range")
	errUnknownVariable = errors.New("unknown variable")
	errUnknownKind     = errors.New("unknown topology type")
	errNilPointer      = errors.New("null pointer")
)

type file struct {
	path     string
	mode     int32
	format   storage.Format
	ds       *storage.Dataset
	entities map[topology.Kind][]*entity
}

func (f *file) writable() bool { return f.mode != ModeRead }

// Library is the reference UGrid library. It is safe for concurrent use;
// calls are serialized, as they are in the C library.
type Library struct {
	mu      sync.Mutex
	files   map[int32]*file
	nextID  int32
	lastErr [ErrorBufferSize]byte
	format  string
	logger  zerolog.Logger
}

// Option configures a Library.
type Option func(*Library)

// WithStorageFormat forces "arrow" or "parquet" instead of detecting the
// format from the file extension.
func WithStorageFormat(format string) Option {
	return func(l *Library) { l.format = format }
}

// WithLogger sets the library logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Library) { l.logger = logger }
}

// New returns a library with an empty file table.
func New(opts ...Option) *Library {
	l := &Library{
		files:  make(map[int32]*file),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// call runs fn under the library lock. A returned error or a panic becomes
// Exception with the message stored in the last-error buffer.
func (l *Library) call(op string, fn func() error) (code int32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			l.setError(op, fmt.Errorf("panic: %v", r))
			code = Exception
		}
	}()
	if err := fn(); err != nil {
		l.setError(op, err)
		return Exception
	}
	return Success
}

func (l *Library) setError(op string, err error) {
	msg := fmt.Sprintf("%s: %v", op, err)
	clear(l.lastErr[:])
	copy(l.lastErr[:ErrorBufferSize-1], msg)
	l.logger.Debug().Str("op", op).Err(err).Msg("native call failed")
}

// ErrorGet copies the last error message, NUL-terminated, into message.
func (l *Library) ErrorGet(message []byte) int32 {
	if len(message) == 0 {
		return Exception
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	n := copy(message[:len(message)-1], l.lastErr[:ErrorBufferSize-1])
	message[n] = 0
	if i := bytes.IndexByte(message, 0); i >= 0 {
		clear(message[i:])
	}
	return Success
}

func (l *Library) NameGetLength(length *int32) int32 {
	*length = topology.NameLength
	return Success
}

func (l *Library) NameGetLongLength(length *int32) int32 {
	*length = topology.NameLongLength
	return Success
}

func (l *Library) FileReadMode(mode *int32) int32 {
	*mode = ModeRead
	return Success
}

func (l *Library) FileWriteMode(mode *int32) int32 {
	*mode = ModeWrite
	return Success
}

func (l *Library) FileReplaceMode(mode *int32) int32 {
	*mode = ModeReplace
	return Success
}

// FileOpen opens path. Read and write modes load the existing file; replace
// mode starts from an empty dataset that is written on close.
func (l *Library) FileOpen(path []byte, mode int32, fileID *int32) int32 {
	return l.call("ug_file_open", func() error {
		p := cstring(path)
		if p == "" {
			return errors.New("empty file path")
		}
		format, err := storage.DetectFormat(p, l.format)
		if err != nil {
			return err
		}

		f := &file{path: p, mode: mode, format: format, entities: make(map[topology.Kind][]*entity)}
		switch mode {
		case ModeRead, ModeWrite:
			ds, err := storage.Load(p, format)
			if err != nil {
				return err
			}
			f.ds = ds
			if err := f.scan(); err != nil {
				return err
			}
		case ModeReplace:
			if st, err := os.Stat(filepath.Dir(p)); err != nil || !st.IsDir() {
				return fmt.Errorf("cannot create %s: parent directory does not exist", p)
			}
			f.ds = storage.NewDataset()
		default:
			return fmt.Errorf("invalid file mode %d", mode)
		}

		l.nextID++
		l.files[l.nextID] = f
		*fileID = l.nextID
		l.logger.Debug().Int32("file_id", l.nextID).Str("path", p).Int32("mode", mode).Msg("file opened")
		return nil
	})
}

// FileClose writes writable files and drops the file id. The id is released
// even when writing fails.
func (l *Library) FileClose(fileID int32) int32 {
	return l.call("ug_file_close", func() error {
		f, ok := l.files[fileID]
		if !ok {
			return fmt.Errorf("%w %d", errUnknownFile, fileID)
		}
		delete(l.files, fileID)
		if !f.writable() {
			return nil
		}
		return storage.Save(f.path, f.ds, f.format)
	})
}

// TopologyGetCount reports how many topologies of kind the file holds.
func (l *Library) TopologyGetCount(fileID int32, kind topology.Kind, count *int32) int32 {
	return l.call("ug_topology_get_count", func() error {
		f, err := l.file(fileID)
		if err != nil {
			return err
		}
		if !kind.Valid() {
			return fmt.Errorf("%w %d", errUnknownKind, int(kind))
		}
		*count = int32(len(f.entities[kind]))
		return nil
	})
}

// OpenFiles returns the number of files currently open.
func (l *Library) OpenFiles() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.files)
}

func (l *Library) file(fileID int32) (*file, error) {
	f, ok := l.files[fileID]
	if !ok {
		return nil, fmt.Errorf("%w %d", errUnknownFile, fileID)
	}
	return f, nil
}

// cstring reads a name passed across the boundary: up to the first NUL,
// without trailing padding.
func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(bytes.TrimRight(b, " "))
}
