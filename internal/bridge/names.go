package bridge

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	ugerrors "github.com/23skdu/ugrid/internal/errors"
)

// Name codec errors, each wrapped in an invalid argument error.
var (
	ErrNameTooLong      = errors.New("name does not fit the fixed-width buffer")
	ErrNotTerminated    = errors.New("name buffer is not null-terminated")
	ErrInvalidWidth     = errors.New("buffer width must be greater than zero")
	ErrAttributeMissing = errors.New("attribute names and values do not line up")
)

const padding = " \x00"

// EncodeName returns s in a width-byte buffer: right-padded with spaces and
// terminated by a single NUL in the last byte. Trailing spaces are
// indistinguishable from padding and are dropped; leading ones are kept. Names longer than
// width-1 bytes are rejected before any buffer is built.
func EncodeName(s string, width int) ([]byte, error) {
	const op = "bridge.EncodeName"
	if width <= 0 {
		return nil, ugerrors.WrapInvalidArgument(ErrInvalidWidth, op, fmt.Sprintf("width %d", width))
	}
	s = strings.TrimRight(s, " ")
	if len(s) > width-1 {
		return nil, ugerrors.WrapInvalidArgument(ErrNameTooLong, op,
			fmt.Sprintf("%q is %d bytes, limit is %d", s, len(s), width-1))
	}
	buf := make([]byte, width)
	n := copy(buf, s)
	for i := n; i < width-1; i++ {
		buf[i] = ' '
	}
	buf[width-1] = 0
	return buf, nil
}

// DecodeName returns the string held in a NUL-terminated fixed-width buffer
// without its padding.
func DecodeName(buf []byte) (string, error) {
	if len(buf) == 0 || buf[len(buf)-1] != 0 {
		return "", ugerrors.WrapInvalidArgument(ErrNotTerminated, "bridge.DecodeName",
			fmt.Sprintf("%d byte buffer", len(buf)))
	}
	return string(bytes.TrimRight(buf, padding)), nil
}

// EncodeNames packs ss into consecutive width-byte blocks, each right-padded
// with spaces. Blocks carry no terminator.
func EncodeNames(ss []string, width int) ([]byte, error) {
	const op = "bridge.EncodeNames"
	if width <= 0 {
		return nil, ugerrors.WrapInvalidArgument(ErrInvalidWidth, op, fmt.Sprintf("width %d", width))
	}
	buf := bytes.Repeat([]byte{' '}, len(ss)*width)
	for i, s := range ss {
		s = strings.TrimRight(s, " ")
		if len(s) > width {
			return nil, ugerrors.WrapInvalidArgument(ErrNameTooLong, op,
				fmt.Sprintf("entry %d %q is %d bytes, limit is %d", i, s, len(s), width))
		}
		copy(buf[i*width:], s)
	}
	return buf, nil
}

// SplitFixed cuts buf into stride-byte tokens and trims each one. A single
// trailing NUL after the last full block is ignored; a shorter final block is
// kept as a token.
func SplitFixed(buf []byte, stride int) ([]string, error) {
	const op = "bridge.SplitFixed"
	if stride <= 0 {
		return nil, ugerrors.WrapInvalidArgument(ErrInvalidWidth, op, fmt.Sprintf("stride %d", stride))
	}
	if len(buf) == 0 {
		return nil, ugerrors.WrapInvalidArgument(ErrEmptySource, op, "nothing to split")
	}
	if len(buf)%stride == 1 && buf[len(buf)-1] == 0 {
		buf = buf[:len(buf)-1]
	}
	tokens := make([]string, 0, (len(buf)+stride-1)/stride)
	for i := 0; i < len(buf); i += stride {
		end := min(i+stride, len(buf))
		tokens = append(tokens, strings.TrimRight(string(buf[i:end]), padding))
	}
	return tokens, nil
}

// ZipAttributes splits two parallel fixed-stride buffers and pairs the first
// count names with the first count values.
func ZipAttributes(names, values []byte, count, stride int) (map[string]string, error) {
	const op = "bridge.ZipAttributes"
	out := make(map[string]string, max(count, 0))
	if count <= 0 {
		return out, nil
	}
	keys, err := SplitFixed(names, stride)
	if err != nil {
		return nil, err
	}
	vals, err := SplitFixed(values, stride)
	if err != nil {
		return nil, err
	}
	if len(keys) < count || len(vals) < count {
		return nil, ugerrors.WrapInvalidArgument(ErrAttributeMissing, op,
			fmt.Sprintf("expected %d attributes, got %d names and %d values", count, len(keys), len(vals)))
	}
	for i := 0; i < count; i++ {
		out[keys[i]] = vals[i]
	}
	return out, nil
}
