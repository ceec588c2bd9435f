package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	ugerrors "github.com/23skdu/ugrid/internal/errors"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix, e.g. UGRID_LOG_LEVEL.
const Prefix = "UGRID"

// Config validation errors
var (
	ErrInvalidLogFormat     = errors.New("log_format must be 'json' or 'console'")
	ErrInvalidLogLevel      = errors.New("log_level must be debug, info, warn, or error")
	ErrInvalidAllocator     = errors.New("allocator must be go, malloc or mmap")
	ErrInvalidMaxBufferSize = errors.New("max_buffer_bytes cannot be negative")
	ErrInvalidGuardBytes    = errors.New("guard_bytes cannot be negative")
	ErrInvalidStorageFormat = errors.New("storage_format must be empty, arrow or parquet")
)

// Config holds the session settings that can be driven from the environment.
type Config struct {
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Allocator selects the raw buffer backend: go, malloc (cgo only) or mmap.
	Allocator string `envconfig:"ALLOCATOR" default:"go"`
	// MaxBufferBytes caps the bytes a session may hold in native buffers; 0 disables the cap.
	MaxBufferBytes int64 `envconfig:"MAX_BUFFER_BYTES" default:"0"`
	ZeroBuffers    bool  `envconfig:"ZERO_BUFFERS" default:"true"`
	// GuardBytes appends canary bytes after each buffer and verifies them on free; 0 disables.
	GuardBytes int `envconfig:"GUARD_BYTES" default:"0"`

	// StorageFormat overrides format detection by file extension.
	StorageFormat string `envconfig:"STORAGE_FORMAT" default:""`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		LogLevel:    "info",
		LogFormat:   "json",
		Allocator:   "go",
		ZeroBuffers: true,
	}
}

// Load reads the given dotenv files (missing files are skipped) and then the
// process environment. Variables already set in the environment win over
// dotenv values.
func Load(dotenvFiles ...string) (Config, error) {
	var present []string
	for _, f := range dotenvFiles {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) > 0 {
		if err := godotenv.Load(present...); err != nil {
			return Config{}, ugerrors.WrapConfigurationError(err, "config.Load", "failed to read dotenv files")
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, ugerrors.WrapConfigurationError(err, "config.Load", "failed to process environment")
	}
	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate lower-cases the enumerated settings in place and returns an error
// if any setting is invalid.
func Validate(cfg *Config) error {
	for _, v := range []*string{&cfg.LogLevel, &cfg.LogFormat, &cfg.Allocator, &cfg.StorageFormat} {
		*v = strings.ToLower(strings.TrimSpace(*v))
	}

	var err error
	switch {
	case cfg.LogFormat != "json" && cfg.LogFormat != "console":
		err = ErrInvalidLogFormat
	case !oneOf(cfg.LogLevel, "debug", "info", "warn", "error"):
		err = ErrInvalidLogLevel
	case !oneOf(cfg.Allocator, "go", "malloc", "mmap"):
		err = ErrInvalidAllocator
	case cfg.MaxBufferBytes < 0:
		err = ErrInvalidMaxBufferSize
	case cfg.GuardBytes < 0:
		err = ErrInvalidGuardBytes
	case !oneOf(cfg.StorageFormat, "", "arrow", "parquet"):
		err = ErrInvalidStorageFormat
	}
	if err != nil {
		return ugerrors.WrapConfigurationError(err, "config.Validate", fmt.Sprintf("invalid %s configuration", Prefix))
	}
	return nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
