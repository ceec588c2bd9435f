package storage

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

const checksumKey = "ugrid.checksum"

const (
	rowDimension = "dimension"
	rowVariable  = "variable"
	rowAttribute = "attribute"
	rowGlobal    = "global"
)

// row is one entry of the flattened variable table shared by both formats.
type row struct {
	Kind    string    `parquet:"kind"`
	Name    string    `parquet:"name"`
	Owner   string    `parquet:"owner"`
	DType   int32     `parquet:"dtype"`
	Length  int64     `parquet:"length"`
	Dims    []string  `parquet:"dims"`
	Ints    []int32   `parquet:"ints"`
	Doubles []float64 `parquet:"doubles"`
	Text    []byte    `parquet:"text"`
}

func attributeRow(kind, owner string, a Attribute) row {
	return row{
		Kind:    kind,
		Name:    a.Name,
		Owner:   owner,
		DType:   int32(a.Type),
		Ints:    a.Ints,
		Doubles: a.Doubles,
		Text:    []byte(a.Text),
	}
}

func toRows(ds *Dataset) []row {
	rows := make([]row, 0, len(ds.Dimensions)+len(ds.Variables)+len(ds.Attributes))
	for _, d := range ds.Dimensions {
		rows = append(rows, row{Kind: rowDimension, Name: d.Name, Length: int64(d.Len)})
	}
	for _, a := range ds.Attributes {
		rows = append(rows, attributeRow(rowGlobal, "", a))
	}
	for _, v := range ds.Variables {
		rows = append(rows, row{
			Kind:    rowVariable,
			Name:    v.Name,
			DType:   int32(v.Type),
			Dims:    v.Dims,
			Ints:    v.Ints,
			Doubles: v.Doubles,
			Text:    v.Chars,
		})
		for _, a := range v.Attributes {
			rows = append(rows, attributeRow(rowAttribute, v.Name, a))
		}
	}
	return rows
}

func fromRows(rows []row) (*Dataset, error) {
	ds := NewDataset()
	for i, r := range rows {
		switch r.Kind {
		case rowDimension:
			if err := ds.AddDimension(r.Name, int(r.Length)); err != nil {
				return nil, err
			}
		case rowGlobal:
			ds.SetAttribute(rowAttr(r))
		case rowVariable:
			if _, ok := ds.Variable(r.Name); ok {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateVariable, r.Name)
			}
			ds.Variables = append(ds.Variables, &Variable{
				Name:    r.Name,
				Type:    DataType(r.DType),
				Dims:    r.Dims,
				Ints:    r.Ints,
				Doubles: r.Doubles,
				Chars:   r.Text,
			})
		case rowAttribute:
			v, ok := ds.Variable(r.Owner)
			if !ok {
				return nil, fmt.Errorf("%w: row %d attribute %s of unknown variable %s", ErrCorruptRow, i, r.Name, r.Owner)
			}
			v.SetAttribute(rowAttr(r))
		default:
			return nil, fmt.Errorf("%w: row %d has kind %q", ErrCorruptRow, i, r.Kind)
		}
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

func rowAttr(r row) Attribute {
	return Attribute{
		Name:    r.Name,
		Type:    DataType(r.DType),
		Ints:    r.Ints,
		Doubles: r.Doubles,
		Text:    string(r.Text),
	}
}

// checksum hashes the logical content of rows so the value does not depend on
// the container format.
func checksum(rows []row) uint64 {
	h := xxhash.New()
	var scratch []byte
	str := func(s string) {
		scratch = binary.LittleEndian.AppendUint32(scratch[:0], uint32(len(s)))
		_, _ = h.Write(scratch)
		_, _ = h.WriteString(s)
	}
	for _, r := range rows {
		str(r.Kind)
		str(r.Name)
		str(r.Owner)
		scratch = binary.LittleEndian.AppendUint32(scratch[:0], uint32(r.DType))
		scratch = binary.LittleEndian.AppendUint64(scratch, uint64(r.Length))
		scratch = binary.LittleEndian.AppendUint32(scratch, uint32(len(r.Dims)))
		_, _ = h.Write(scratch)
		for _, d := range r.Dims {
			str(d)
		}
		scratch = binary.LittleEndian.AppendUint32(scratch[:0], uint32(len(r.Ints)))
		for _, v := range r.Ints {
			scratch = binary.LittleEndian.AppendUint32(scratch, uint32(v))
		}
		scratch = binary.LittleEndian.AppendUint32(scratch, uint32(len(r.Doubles)))
		for _, v := range r.Doubles {
			scratch = binary.LittleEndian.AppendUint64(scratch, math.Float64bits(v))
		}
		_, _ = h.Write(scratch)
		str(string(r.Text))
	}
	return h.Sum64()
}

func formatSum(sum uint64) string {
	return strconv.FormatUint(sum, 16)
}
