package storage

import (
	"bytes"
	"errors"
	"io"

	"github.com/parquet-go/parquet-go"
)

// writeParquet writes rows with zstd compression and the content checksum in
// the footer key/value metadata.
func writeParquet(w io.Writer, rows []row) error {
	pw := parquet.NewGenericWriter[row](w,
		parquet.Compression(&parquet.Zstd),
		parquet.KeyValueMetadata(checksumKey, formatSum(checksum(rows))),
	)
	if len(rows) > 0 {
		if _, err := pw.Write(rows); err != nil {
			_ = pw.Close()
			return err
		}
	}
	return pw.Close()
}

// readParquet reads every row and verifies the checksum when present.
func readParquet(data []byte) ([]row, error) {
	pf, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	pr := parquet.NewGenericReader[row](pf)
	defer pr.Close()

	rows := make([]row, pr.NumRows())
	if len(rows) > 0 {
		n, err := pr.Read(rows)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		rows = rows[:n]
	}

	if stored, ok := pf.Lookup(checksumKey); ok {
		if err := verifyChecksum(stored, rows); err != nil {
			return nil, err
		}
	}
	return rows, nil
}
