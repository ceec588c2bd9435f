package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

var tableFields = []arrow.Field{
	{Name: "kind", Type: arrow.BinaryTypes.String},
	{Name: "name", Type: arrow.BinaryTypes.String},
	{Name: "owner", Type: arrow.BinaryTypes.String},
	{Name: "dtype", Type: arrow.PrimitiveTypes.Int32},
	{Name: "length", Type: arrow.PrimitiveTypes.Int64},
	{Name: "dims", Type: arrow.ListOf(arrow.BinaryTypes.String)},
	{Name: "ints", Type: arrow.ListOf(arrow.PrimitiveTypes.Int32)},
	{Name: "doubles", Type: arrow.ListOf(arrow.PrimitiveTypes.Float64)},
	{Name: "text", Type: arrow.BinaryTypes.Binary},
}

// writeIPC writes rows as a single Arrow IPC stream record with the content
// checksum in the schema metadata.
func writeIPC(w io.Writer, rows []row, mem memory.Allocator) error {
	md := arrow.NewMetadata([]string{checksumKey}, []string{formatSum(checksum(rows))})
	schema := arrow.NewSchema(tableFields, &md)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	kinds := b.Field(0).(*array.StringBuilder)
	names := b.Field(1).(*array.StringBuilder)
	owners := b.Field(2).(*array.StringBuilder)
	dtypes := b.Field(3).(*array.Int32Builder)
	lengths := b.Field(4).(*array.Int64Builder)
	dims := b.Field(5).(*array.ListBuilder)
	dimValues := dims.ValueBuilder().(*array.StringBuilder)
	ints := b.Field(6).(*array.ListBuilder)
	intValues := ints.ValueBuilder().(*array.Int32Builder)
	doubles := b.Field(7).(*array.ListBuilder)
	doubleValues := doubles.ValueBuilder().(*array.Float64Builder)
	text := b.Field(8).(*array.BinaryBuilder)

	for _, r := range rows {
		kinds.Append(r.Kind)
		names.Append(r.Name)
		owners.Append(r.Owner)
		dtypes.Append(r.DType)
		lengths.Append(r.Length)
		dims.Append(true)
		dimValues.AppendValues(r.Dims, nil)
		ints.Append(true)
		intValues.AppendValues(r.Ints, nil)
		doubles.Append(true)
		doubleValues.AppendValues(r.Doubles, nil)
		text.Append(r.Text)
	}

	rec := b.NewRecord()
	defer rec.Release()

	writer := ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem), ipc.WithZstd())
	if err := writer.Write(rec); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

// readIPC reads every record of an Arrow IPC stream and verifies the checksum.
func readIPC(data []byte, mem memory.Allocator) ([]row, error) {
	r, err := ipc.NewReader(bytes.NewReader(data), ipc.WithAllocator(mem))
	if err != nil {
		return nil, err
	}
	defer r.Release()

	if err := checkSchema(r.Schema()); err != nil {
		return nil, err
	}

	var rows []row
	for r.Next() {
		rec := r.Record()
		rows = append(rows, recordRows(rec)...)
	}
	if err := r.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	md := r.Schema().Metadata()
	if i := md.FindKey(checksumKey); i >= 0 {
		if err := verifyChecksum(md.Values()[i], rows); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

func checkSchema(schema *arrow.Schema) error {
	if len(schema.Fields()) != len(tableFields) {
		return fmt.Errorf("%w: expected %d columns, got %d", ErrCorruptRow, len(tableFields), len(schema.Fields()))
	}
	for i, f := range schema.Fields() {
		if f.Name != tableFields[i].Name || !arrow.TypeEqual(f.Type, tableFields[i].Type) {
			return fmt.Errorf("%w: column %d is %s %s", ErrCorruptRow, i, f.Name, f.Type)
		}
	}
	return nil
}

func recordRows(rec arrow.Record) []row {
	kinds := rec.Column(0).(*array.String)
	names := rec.Column(1).(*array.String)
	owners := rec.Column(2).(*array.String)
	dtypes := rec.Column(3).(*array.Int32)
	lengths := rec.Column(4).(*array.Int64)
	dims := rec.Column(5).(*array.List)
	dimValues := dims.ListValues().(*array.String)
	ints := rec.Column(6).(*array.List)
	intValues := ints.ListValues().(*array.Int32).Int32Values()
	doubles := rec.Column(7).(*array.List)
	doubleValues := doubles.ListValues().(*array.Float64).Float64Values()
	text := rec.Column(8).(*array.Binary)

	rows := make([]row, rec.NumRows())
	for i := range rows {
		r := row{
			Kind:   kinds.Value(i),
			Name:   names.Value(i),
			Owner:  owners.Value(i),
			DType:  dtypes.Value(i),
			Length: lengths.Value(i),
		}
		if start, end := dims.ValueOffsets(i); end > start {
			r.Dims = make([]string, 0, end-start)
			for j := start; j < end; j++ {
				r.Dims = append(r.Dims, dimValues.Value(int(j)))
			}
		}
		if start, end := ints.ValueOffsets(i); end > start {
			r.Ints = append([]int32(nil), intValues[start:end]...)
		}
		if start, end := doubles.ValueOffsets(i); end > start {
			r.Doubles = append([]float64(nil), doubleValues[start:end]...)
		}
		if v := text.Value(i); len(v) > 0 {
			r.Text = append([]byte(nil), v...)
		}
		rows[i] = r
	}
	return rows
}

func verifyChecksum(stored string, rows []row) error {
	want, err := strconv.ParseUint(stored, 16, 64)
	if err != nil {
		return fmt.Errorf("%w: unreadable checksum %q", ErrChecksumMismatch, stored)
	}
	if got := checksum(rows); got != want {
		return fmt.Errorf("%w: stored %016x, computed %016x", ErrChecksumMismatch, want, got)
	}
	return nil
}
