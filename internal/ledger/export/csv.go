// Package export serialises finalized ledger tables into spreadsheet and
// PDF-ready forms. It is strictly a rendering boundary: every cell arrives
// already formatted and no value is recomputed here.
package export

import (
	"encoding/csv"
	"io"
)

// Table is the flattened tabular document handed over by the report
// projection.
type Table struct {
	Title   string
	Columns []string
	Records [][]string
}

// WriteCSV serialises the table, title row first, then the header and
// records exactly as projected.
func WriteCSV(w io.Writer, table Table) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if table.Title != "" {
		if err := writer.Write([]string{table.Title}); err != nil {
			return err
		}
	}
	if err := writer.Write(table.Columns); err != nil {
		return err
	}
	for _, record := range table.Records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
