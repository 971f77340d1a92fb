package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ReadCSV reads raw rows from a headered CSV stream.
func ReadCSV(r io.Reader, delimiter rune) ([]RawRow, error) {
	cr := csv.NewReader(r)
	if delimiter != 0 {
		cr.Comma = delimiter
	}
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := resolveColumns(header)
	if name := cols.missingRequired(); name != "" {
		return nil, fmt.Errorf("required column %q not found in header", name)
	}

	var rows []RawRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, RawRow{
			Title:     cols.field(rec, "title"),
			Authors:   cols.field(rec, "authors"),
			Year:      cols.field(rec, "year"),
			Publisher: cols.field(rec, "publisher"),
			ImageURL:  cols.field(rec, "image_url"),
		})
	}
	return rows, nil
}
