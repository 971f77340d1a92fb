package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// ReadParquet reads raw rows from a parquet file. Columns are resolved by
// name and read through the generic row reader, so string and numeric
// year columns are both accepted.
func ReadParquet(path string) ([]RawRow, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	header := make([]string, 0, len(pf.Schema().Columns()))
	for _, col := range pf.Schema().Columns() {
		name := ""
		if len(col) > 0 {
			name = col[0]
		}
		header = append(header, name)
	}
	cols := resolveColumns(header)
	if name := cols.missingRequired(); name != "" {
		return nil, fmt.Errorf("required column %q not found in parquet schema", name)
	}

	var out []RawRow
	for _, rg := range pf.RowGroups() {
		rows, err := readRowGroup(rg, cols)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

func readRowGroup(rg parquet.RowGroup, cols columnIndex) ([]RawRow, error) {
	reader := parquet.NewRowGroupReader(rg)
	buf := make([]parquet.Row, 512)
	var out []RawRow

	for {
		n, readErr := reader.ReadRows(buf)
		for i := 0; i < n; i++ {
			out = append(out, rowToRaw(buf[i], cols))
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("read rows: %w", readErr)
		}
		if n == 0 {
			return out, nil
		}
	}
}

func rowToRaw(row parquet.Row, cols columnIndex) RawRow {
	var r RawRow
	for _, v := range row {
		if v.IsNull() {
			continue
		}
		switch v.Column() {
		case cols["title"]:
			r.Title = v.String()
		case cols["authors"]:
			r.Authors = v.String()
		case cols["year"]:
			r.Year = v.String()
		case cols["publisher"]:
			r.Publisher = v.String()
		case cols["image_url"]:
			r.ImageURL = v.String()
		}
	}
	return r
}
