package ugrid

import (
	"github.com/23skdu/ugrid/internal/config"
	"github.com/23skdu/ugrid/internal/logging"
	"github.com/23skdu/ugrid/internal/memory"
	"github.com/23skdu/ugrid/internal/ugridapi"
	arrowmem "github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/23skdu/ugrid"

type options struct {
	cfg       config.Config
	logger    *zerolog.Logger
	allocator arrowmem.Allocator
	lib       Library
	tracer    trace.Tracer
}

// Config holds the settings a session can take from the environment.
type Config = config.Config

// LoadConfig reads UGRID_* settings from the given dotenv files and the
// process environment.
func LoadConfig(dotenvFiles ...string) (Config, error) {
	return config.Load(dotenvFiles...)
}

// Option configures a Reader or Writer.
type Option func(*options)

// WithConfig applies settings, typically from LoadConfig.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger overrides the logger built from the configuration.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = &logger }
}

// WithAllocator sets the backend that native buffers are allocated from,
// replacing the one named by the configuration.
func WithAllocator(a arrowmem.Allocator) Option {
	return func(o *options) { o.allocator = a }
}

// WithLibrary sets the native library. Each session gets a fresh reference
// library by default.
func WithLibrary(lib Library) Option {
	return func(o *options) { o.lib = lib }
}

// WithTracer sets the tracer used for native call spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

func newOptions(opts []Option) *options {
	o := &options{cfg: config.DefaultConfig()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// build resolves the session dependencies left unset by the caller.
func (o *options) build() (env, error) {
	if err := config.Validate(&o.cfg); err != nil {
		return env{}, err
	}

	var e env
	if o.logger != nil {
		e.logger = *o.logger
	} else {
		logger, err := logging.NewLogger(logging.Config{
			Format:    o.cfg.LogFormat,
			Level:     o.cfg.LogLevel,
			Component: "ugrid",
		})
		if err != nil {
			return env{}, err
		}
		e.logger = logger
	}

	base := o.allocator
	if base == nil {
		b, err := memory.Backend(o.cfg.Allocator)
		if err != nil {
			return env{}, err
		}
		base = b
	}
	if o.cfg.GuardBytes > 0 {
		e.guard = memory.NewGuardAllocator(base, o.cfg.GuardBytes)
		base = e.guard
	}
	e.alloc = memory.NewAllocator(base,
		memory.WithLimit(o.cfg.MaxBufferBytes),
		memory.WithZeroed(o.cfg.ZeroBuffers),
		memory.WithLogger(e.logger),
	)

	e.lib = o.lib
	if e.lib == nil {
		e.lib = ugridapi.New(
			ugridapi.WithStorageFormat(o.cfg.StorageFormat),
			ugridapi.WithLogger(e.logger),
		)
	}

	e.tracer = o.tracer
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	return e, nil
}

// env holds the resolved dependencies of a session.
type env struct {
	logger zerolog.Logger
	alloc  *memory.Allocator
	guard  *memory.GuardAllocator
	lib    Library
	tracer trace.Tracer
}
