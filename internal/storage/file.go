package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/23skdu/ugrid/internal/metrics"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Format is an on-disk encoding of the variable table.
type Format string

const (
	FormatArrow   Format = "arrow"
	FormatParquet Format = "parquet"
)

// DetectFormat returns override when set, otherwise picks Parquet for
// .parquet/.pq paths and Arrow IPC for everything else.
func DetectFormat(path, override string) (Format, error) {
	switch Format(strings.ToLower(override)) {
	case FormatArrow:
		return FormatArrow, nil
	case FormatParquet:
		return FormatParquet, nil
	case "":
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, override)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return FormatParquet, nil
	default:
		return FormatArrow, nil
	}
}

// Encode writes ds to w in format f.
func Encode(w io.Writer, ds *Dataset, f Format) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	rows := toRows(ds)
	switch f {
	case FormatArrow:
		return writeIPC(w, rows, memory.DefaultAllocator)
	case FormatParquet:
		return writeParquet(w, rows)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Decode parses a dataset encoded in format f.
func Decode(data []byte, f Format) (*Dataset, error) {
	var (
		rows []row
		err  error
	)
	switch f {
	case FormatArrow:
		rows, err = readIPC(data, memory.DefaultAllocator)
	case FormatParquet:
		rows, err = readParquet(data)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if err != nil {
		return nil, err
	}
	return fromRows(rows)
}

// Save encodes ds and atomically replaces the file at path.
func Save(path string, ds *Dataset, f Format) error {
	var buf bytes.Buffer
	if err := Encode(&buf, ds, f); err != nil {
		return NewFileError("save", path, f, err)
	}
	if err := writeFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return NewFileError("save", path, f, err)
	}
	metrics.StorageBytesTotal.WithLabelValues(string(f), "write").Add(float64(buf.Len()))
	return nil
}

// Load reads and decodes the file at path.
func Load(path string, f Format) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewFileError("load", path, f, err)
	}
	metrics.StorageBytesTotal.WithLabelValues(string(f), "read").Add(float64(len(data)))
	ds, err := Decode(data, f)
	if err != nil {
		return nil, NewFileError("load", path, f, err)
	}
	return ds, nil
}
