package ugrid

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/23skdu/ugrid/internal/bridge"
	ugerrors "github.com/23skdu/ugrid/internal/errors"
	"github.com/23skdu/ugrid/internal/logging"
	"github.com/23skdu/ugrid/internal/metrics"
	"github.com/23skdu/ugrid/internal/topology"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// unknownError replaces a blank native error message.
const unknownError = "Unknown error"

type state int

const (
	stateUnopened state = iota
	stateOpen
	stateClosed
)

// session is the state shared by Reader and Writer: one open native file.
type session struct {
	env
	id     string
	path   string
	mode   string
	fileID int32
	state  state
}

func newSession(e env, path, mode string) session {
	id := uuid.NewString()
	e.logger = e.logger.With().Str("session_id", id).Str("path", path).Logger()
	return session{env: e, id: id, path: path, mode: mode}
}

// ID returns the session identifier attached to logs and spans.
func (s *session) ID() string { return s.id }

// invoke runs one native call. A non-zero exit code becomes a native error
// carrying the library's last error message.
func (s *session) invoke(op string, call func() int32) error {
	return s.run(op, false, call)
}

// probe is invoke for calls whose failure is an expected answer, such as a
// lookup of a variable that may be absent. Failures are logged at debug
// level and not counted as native errors.
func (s *session) probe(op string, call func() int32) error {
	return s.run(op, true, call)
}

func (s *session) run(op string, expected bool, call func() int32) error {
	_, span := s.tracer.Start(context.Background(), op, trace.WithAttributes(
		attribute.String("ugrid.session_id", s.id),
		attribute.Int("ugrid.file_id", int(s.fileID)),
	))
	defer span.End()

	start := time.Now()
	code := call()
	metrics.NativeCallDurationSeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
	metrics.NativeCallsTotal.WithLabelValues(op).Inc()
	if code == 0 {
		return nil
	}

	msg := s.lastError()
	err := ugerrors.NewNativeError(op, msg).WithContext("exit_code", code)
	logger := logging.WithSpan(s.logger, span.SpanContext())
	if expected {
		logger.Debug().Str("op", op).Int32("exit_code", code).Str("native_error", msg).Msg("native lookup missed")
		return err
	}

	metrics.NativeErrorsTotal.WithLabelValues(op).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	logger.Warn().Str("op", op).Int32("exit_code", code).Str("native_error", msg).Msg("native call failed")
	return err
}

// lastError reads the native error buffer.
func (s *session) lastError() string {
	buf := make([]byte, errorBufferSize)
	if s.lib.ErrorGet(buf) != 0 {
		return unknownError
	}
	msg := cstring(buf)
	if strings.TrimSpace(msg) == "" {
		return unknownError
	}
	return msg
}

func (s *session) open(mode int32) error {
	path, err := bridge.EncodeName(s.path, len(s.path)+1)
	if err != nil {
		return err
	}
	if err := s.invoke("ug_file_open", func() int32 { return s.lib.FileOpen(path, mode, &s.fileID) }); err != nil {
		return err
	}
	s.state = stateOpen
	metrics.SessionsOpen.WithLabelValues(s.mode).Inc()
	s.logger.Debug().Int32("file_id", s.fileID).Msg("file opened")
	return nil
}

// closeFile closes the native file once. Later calls are no-ops.
func (s *session) closeFile() error {
	if s.state != stateOpen {
		return nil
	}
	s.state = stateClosed
	metrics.SessionsOpen.WithLabelValues(s.mode).Dec()
	err := s.invoke("ug_file_close", func() int32 { return s.lib.FileClose(s.fileID) })
	s.logger.Debug().Err(err).Msg("file closed")
	return err
}

func (s *session) checkOpen(op string) error {
	if s.state != stateOpen {
		return ugerrors.NewStateError(op, fmt.Sprintf("session %s is not open", s.id))
	}
	return nil
}

// checkGuards reports buffer overruns caught by the guard allocator.
func (s *session) checkGuards() error {
	if s.guard == nil {
		return nil
	}
	violations := s.guard.Violations()
	if len(violations) == 0 {
		return nil
	}
	s.logger.Error().Int("violations", len(violations)).Msg("native buffer overrun detected")
	return ugerrors.WrapAllocationError(errors.Join(violations...), "ugrid.Close", "guard bytes overwritten")
}

// longName encodes a variable or attribute name for the native library.
func longName(s string) ([]byte, error) {
	return bridge.EncodeName(s, topology.NameLongLength)
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(bytes.TrimRight(b, " "))
}
