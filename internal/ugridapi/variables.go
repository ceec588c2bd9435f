package ugridapi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unsafe"

	"github.com/23skdu/ugrid/internal/bridge"
	"github.com/23skdu/ugrid/internal/storage"
	"github.com/23skdu/ugrid/internal/topology"
)

var (
	errShortBuffer      = errors.New("output buffer is too small")
	errTypeMismatch     = errors.New("variable type cannot be converted")
	errUnknownAttribute = errors.New("unknown attribute")
	errValueCount       = errors.New("value count exceeds the values given")
)

func (l *Library) variable(fileID int32, name []byte) (*file, *storage.Variable, error) {
	f, err := l.file(fileID)
	if err != nil {
		return nil, nil, err
	}
	n := cstring(name)
	v, ok := f.ds.Variable(n)
	if !ok {
		return nil, nil, fmt.Errorf("%w %q", errUnknownVariable, n)
	}
	return f, v, nil
}

// VariableCountDimensions reports the rank of a variable.
func (l *Library) VariableCountDimensions(fileID int32, name []byte, count *int32) int32 {
	return l.call("ug_variable_count_dimensions", func() error {
		_, v, err := l.variable(fileID, name)
		if err != nil {
			return err
		}
		*count = int32(len(v.Dims))
		return nil
	})
}

// VariableGetDataDimensions writes the length of each dimension of a variable.
func (l *Library) VariableGetDataDimensions(fileID int32, name []byte, dims []int32) int32 {
	return l.call("ug_variable_get_data_dimensions", func() error {
		f, v, err := l.variable(fileID, name)
		if err != nil {
			return err
		}
		shape, err := f.ds.Shape(v)
		if err != nil {
			return err
		}
		if len(dims) < len(shape) {
			return fmt.Errorf("%w: %d dimensions into %d slots", errShortBuffer, len(shape), len(dims))
		}
		for i, n := range shape {
			dims[i] = int32(n)
		}
		return nil
	})
}

// VariableGetDataInt writes a variable's data as int32 values to data, which
// must hold the product of its dimensions.
func (l *Library) VariableGetDataInt(fileID int32, name []byte, data unsafe.Pointer) int32 {
	return l.call("ug_variable_get_data_int", func() error {
		_, v, err := l.variable(fileID, name)
		if err != nil {
			return err
		}
		if data == nil {
			return errNilPointer
		}
		switch v.Type {
		case storage.TypeInt:
			copy(bridge.View[int32](data, len(v.Ints)), v.Ints)
		case storage.TypeDouble:
			out := bridge.View[int32](data, len(v.Doubles))
			for i, d := range v.Doubles {
				out[i] = int32(d)
			}
		default:
			return fmt.Errorf("%w: %s is %s, not int", errTypeMismatch, v.Name, v.Type)
		}
		return nil
	})
}

// VariableGetDataDouble writes a variable's data as float64 values.
func (l *Library) VariableGetDataDouble(fileID int32, name []byte, data unsafe.Pointer) int32 {
	return l.call("ug_variable_get_data_double", func() error {
		_, v, err := l.variable(fileID, name)
		if err != nil {
			return err
		}
		if data == nil {
			return errNilPointer
		}
		switch v.Type {
		case storage.TypeDouble:
			copy(bridge.View[float64](data, len(v.Doubles)), v.Doubles)
		case storage.TypeInt:
			out := bridge.View[float64](data, len(v.Ints))
			for i, n := range v.Ints {
				out[i] = float64(n)
			}
		default:
			return fmt.Errorf("%w: %s is %s, not double", errTypeMismatch, v.Name, v.Type)
		}
		return nil
	})
}

// VariableGetDataChar writes a char variable's bytes.
func (l *Library) VariableGetDataChar(fileID int32, name []byte, data unsafe.Pointer) int32 {
	return l.call("ug_variable_get_data_char", func() error {
		_, v, err := l.variable(fileID, name)
		if err != nil {
			return err
		}
		if data == nil {
			return errNilPointer
		}
		if v.Type != storage.TypeChar {
			return fmt.Errorf("%w: %s is %s, not char", errTypeMismatch, v.Name, v.Type)
		}
		copy(bridge.View[byte](data, len(v.Chars)), v.Chars)
		return nil
	})
}

func (l *Library) VariableCountAttributes(fileID int32, name []byte, count *int32) int32 {
	return l.call("ug_variable_count_attributes", func() error {
		_, v, err := l.variable(fileID, name)
		if err != nil {
			return err
		}
		*count = int32(len(v.Attributes))
		return nil
	})
}

// VariableGetAttributesNames writes the attribute names of a variable as
// consecutive long-name blocks.
func (l *Library) VariableGetAttributesNames(fileID int32, name []byte, names []byte) int32 {
	return l.call("ug_variable_get_attributes_names", func() error {
		_, v, err := l.variable(fileID, name)
		if err != nil {
			return err
		}
		out := make([]string, len(v.Attributes))
		for i, a := range v.Attributes {
			out[i] = a.Name
		}
		return writeBlocks(names, out)
	})
}

// VariableGetAttributesValues writes the attribute values of a variable as
// text, in the order of VariableGetAttributesNames.
func (l *Library) VariableGetAttributesValues(fileID int32, name []byte, values []byte) int32 {
	return l.call("ug_variable_get_attributes_values", func() error {
		_, v, err := l.variable(fileID, name)
		if err != nil {
			return err
		}
		out := make([]string, len(v.Attributes))
		for i, a := range v.Attributes {
			out[i] = attributeText(a)
		}
		return writeBlocks(values, out)
	})
}

// writeBlocks packs ss into L-wide space-padded blocks, truncating longer
// entries, and terminates the block run with a NUL when dst has room.
func writeBlocks(dst []byte, ss []string) error {
	const width = topology.NameLongLength
	if len(dst) < len(ss)*width {
		return fmt.Errorf("%w: %d entries need %d bytes, got %d", errShortBuffer, len(ss), len(ss)*width, len(dst))
	}
	for i, s := range ss {
		if len(s) > width {
			s = s[:width]
		}
		block := dst[i*width : (i+1)*width]
		n := copy(block, s)
		for j := n; j < width; j++ {
			block[j] = ' '
		}
	}
	if end := len(ss) * width; len(dst) > end {
		dst[end] = 0
	}
	return nil
}

func attributeText(a storage.Attribute) string {
	switch a.Type {
	case storage.TypeInt:
		parts := make([]string, len(a.Ints))
		for i, n := range a.Ints {
			parts[i] = strconv.FormatInt(int64(n), 10)
		}
		return strings.Join(parts, " ")
	case storage.TypeDouble:
		parts := make([]string, len(a.Doubles))
		for i, d := range a.Doubles {
			parts[i] = strconv.FormatFloat(d, 'g', -1, 64)
		}
		return strings.Join(parts, " ")
	default:
		return a.Text
	}
}

// VariableIntDefine declares a scalar int variable, typically a container
// for attributes.
func (l *Library) VariableIntDefine(fileID int32, name []byte) int32 {
	return l.call("ug_variable_int_define", func() error {
		f, err := l.writableFile(fileID)
		if err != nil {
			return err
		}
		n := cstring(name)
		if n == "" {
			return errors.New("empty variable name")
		}
		return f.ds.AddVariable(&storage.Variable{Name: n, Type: storage.TypeInt})
	})
}

func (l *Library) defineAttribute(fileID int32, varName []byte, a storage.Attribute) error {
	f, err := l.writableFile(fileID)
	if err != nil {
		return err
	}
	if a.Name == "" {
		return errors.New("empty attribute name")
	}
	n := cstring(varName)
	v, ok := f.ds.Variable(n)
	if !ok {
		return fmt.Errorf("%w %q", errUnknownVariable, n)
	}
	v.SetAttribute(a)
	return nil
}

func (l *Library) AttributeIntDefine(fileID int32, varName, attName []byte, values []int32, numValues int32) int32 {
	return l.call("ug_attribute_int_define", func() error {
		if int(numValues) > len(values) || numValues < 0 {
			return fmt.Errorf("%w: %d of %d", errValueCount, numValues, len(values))
		}
		a := storage.IntAttribute(cstring(attName), append([]int32(nil), values[:numValues]...)...)
		return l.defineAttribute(fileID, varName, a)
	})
}

func (l *Library) AttributeDoubleDefine(fileID int32, varName, attName []byte, values []float64, numValues int32) int32 {
	return l.call("ug_attribute_double_define", func() error {
		if int(numValues) > len(values) || numValues < 0 {
			return fmt.Errorf("%w: %d of %d", errValueCount, numValues, len(values))
		}
		a := storage.DoubleAttribute(cstring(attName), append([]float64(nil), values[:numValues]...)...)
		return l.defineAttribute(fileID, varName, a)
	})
}

// AttributeCharDefine stores the first numValues bytes of values as text.
func (l *Library) AttributeCharDefine(fileID int32, varName, attName []byte, values []byte, numValues int32) int32 {
	return l.call("ug_attribute_char_define", func() error {
		if int(numValues) > len(values) || numValues < 0 {
			return fmt.Errorf("%w: %d of %d", errValueCount, numValues, len(values))
		}
		a := storage.TextAttribute(cstring(attName), string(values[:numValues]))
		return l.defineAttribute(fileID, varName, a)
	})
}

func (l *Library) AttributeGlobalCharDefine(fileID int32, attName []byte, values []byte, numValues int32) int32 {
	return l.call("ug_attribute_global_char_define", func() error {
		f, err := l.writableFile(fileID)
		if err != nil {
			return err
		}
		if int(numValues) > len(values) || numValues < 0 {
			return fmt.Errorf("%w: %d of %d", errValueCount, numValues, len(values))
		}
		n := cstring(attName)
		if n == "" {
			return errors.New("empty attribute name")
		}
		f.ds.SetAttribute(storage.TextAttribute(n, string(values[:numValues])))
		return nil
	})
}

// AttributeGlobalCharGet writes a global attribute into value as one
// space-padded, NUL-terminated block, truncated to fit.
func (l *Library) AttributeGlobalCharGet(fileID int32, attName []byte, value []byte) int32 {
	return l.call("ug_attribute_global_char_get", func() error {
		f, err := l.file(fileID)
		if err != nil {
			return err
		}
		if len(value) == 0 {
			return errShortBuffer
		}
		n := cstring(attName)
		a, ok := f.ds.Attribute(n)
		if !ok {
			return fmt.Errorf("%w %q", errUnknownAttribute, n)
		}
		writeName(value, attributeText(a))
		return nil
	})
}

func (l *Library) GetIntFillValue(value *int32) int32 {
	*value = IntFillValue
	return Success
}

func (l *Library) GetDoubleFillValue(value *float64) int32 {
	*value = DoubleFillValue
	return Success
}
