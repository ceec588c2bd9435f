// Package storage holds the variable table behind a UGrid file and encodes it
// as Arrow IPC or Parquet.
package storage

import (
	"fmt"
	"slices"
)

// DataType is the element type of a variable or attribute.
type DataType int8

const (
	TypeNone DataType = iota
	TypeInt
	TypeDouble
	TypeChar
)

func (t DataType) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeInt:
		return "int"
	case TypeDouble:
		return "double"
	case TypeChar:
		return "char"
	default:
		return fmt.Sprintf("type(%d)", int8(t))
	}
}

// Attribute is a named, typed value attached to a variable or to the dataset.
type Attribute struct {
	Name    string
	Type    DataType
	Ints    []int32
	Doubles []float64
	Text    string
}

// IntAttribute returns an int attribute.
func IntAttribute(name string, values ...int32) Attribute {
	return Attribute{Name: name, Type: TypeInt, Ints: values}
}

// DoubleAttribute returns a double attribute.
func DoubleAttribute(name string, values ...float64) Attribute {
	return Attribute{Name: name, Type: TypeDouble, Doubles: values}
}

// TextAttribute returns a char attribute.
func TextAttribute(name, text string) Attribute {
	return Attribute{Name: name, Type: TypeChar, Text: text}
}

// Dimension is a named axis length.
type Dimension struct {
	Name string
	Len  int
}

// Variable is a named array shaped by dimensions. Only the slice matching
// Type carries data; a variable with no dimensions is a scalar container for
// attributes.
type Variable struct {
	Name       string
	Type       DataType
	Dims       []string
	Ints       []int32
	Doubles    []float64
	Chars      []byte
	Attributes []Attribute
}

// Attribute returns the named attribute.
func (v *Variable) Attribute(name string) (Attribute, bool) {
	for _, a := range v.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// SetAttribute adds or replaces an attribute.
func (v *Variable) SetAttribute(a Attribute) {
	v.Attributes = setAttribute(v.Attributes, a)
}

// Len returns the number of stored elements.
func (v *Variable) Len() int {
	switch v.Type {
	case TypeInt:
		return len(v.Ints)
	case TypeDouble:
		return len(v.Doubles)
	case TypeChar:
		return len(v.Chars)
	default:
		return 0
	}
}

func setAttribute(attrs []Attribute, a Attribute) []Attribute {
	for i := range attrs {
		if attrs[i].Name == a.Name {
			attrs[i] = a
			return attrs
		}
	}
	return append(attrs, a)
}

// Dataset is an ordered collection of dimensions, variables and global
// attributes. It is not safe for concurrent use.
type Dataset struct {
	Dimensions []Dimension
	Variables  []*Variable
	Attributes []Attribute
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{}
}

// AddDimension declares a dimension. Redeclaring it with the same length is
// a no-op.
func (d *Dataset) AddDimension(name string, n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: dimension %s has length %d", ErrInvalidDimension, name, n)
	}
	if cur, ok := d.Dimension(name); ok {
		if cur != n {
			return fmt.Errorf("%w: dimension %s already has length %d, not %d", ErrInvalidDimension, name, cur, n)
		}
		return nil
	}
	d.Dimensions = append(d.Dimensions, Dimension{Name: name, Len: n})
	return nil
}

// Dimension returns the length of the named dimension.
func (d *Dataset) Dimension(name string) (int, bool) {
	for _, dim := range d.Dimensions {
		if dim.Name == name {
			return dim.Len, true
		}
	}
	return 0, false
}

// AddVariable declares v. Every dimension must exist and the data length must
// match the shape unless the variable holds no data yet.
func (d *Dataset) AddVariable(v *Variable) error {
	if _, ok := d.Variable(v.Name); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateVariable, v.Name)
	}
	if err := d.checkShape(v); err != nil {
		return err
	}
	d.Variables = append(d.Variables, v)
	return nil
}

// Variable returns the named variable.
func (d *Dataset) Variable(name string) (*Variable, bool) {
	for _, v := range d.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// Shape returns the dimension lengths of v.
func (d *Dataset) Shape(v *Variable) ([]int, error) {
	shape := make([]int, len(v.Dims))
	for i, name := range v.Dims {
		n, ok := d.Dimension(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s on variable %s", ErrUnknownDimension, name, v.Name)
		}
		shape[i] = n
	}
	return shape, nil
}

func (d *Dataset) checkShape(v *Variable) error {
	shape, err := d.Shape(v)
	if err != nil {
		return err
	}
	if v.Len() == 0 || len(shape) == 0 {
		return nil
	}
	want := 1
	for _, n := range shape {
		want *= n
	}
	if v.Len() != want {
		return fmt.Errorf("%w: %s holds %d elements, shape %v needs %d", ErrShapeMismatch, v.Name, v.Len(), shape, want)
	}
	return nil
}

// Attribute returns the named global attribute.
func (d *Dataset) Attribute(name string) (Attribute, bool) {
	i := slices.IndexFunc(d.Attributes, func(a Attribute) bool { return a.Name == name })
	if i < 0 {
		return Attribute{}, false
	}
	return d.Attributes[i], true
}

// SetAttribute adds or replaces a global attribute.
func (d *Dataset) SetAttribute(a Attribute) {
	d.Attributes = setAttribute(d.Attributes, a)
}

// Validate checks every variable's shape.
func (d *Dataset) Validate() error {
	for _, v := range d.Variables {
		if err := d.checkShape(v); err != nil {
			return err
		}
	}
	return nil
}
