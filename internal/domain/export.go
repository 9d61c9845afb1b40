package domain

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WriteMatrixCSV serializes the matrix as a flat comma-separated table:
// a Year column followed by one column per series label, with "Yes" or
// empty cells. The output is suitable for file download and re-parsable
// by ParseMatrixCSV.
func WriteMatrixCSV(w io.Writer, m *AggregatedMatrix) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(m.Columns)+1)
	header = append(header, "Year")
	for _, col := range m.Columns {
		header = append(header, col.Label)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range m.Rows {
		record := make([]string, 0, len(row.Cells)+1)
		record = append(record, strconv.Itoa(row.Year))
		record = append(record, row.Cells...)
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", row.Year, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ParseMatrixCSV reads a table produced by WriteMatrixCSV back into an
// AggregatedMatrix. Column keys are not recoverable from labels alone,
// so only labels, colors, and the year/cell pattern round-trip.
func ParseMatrixCSV(r io.Reader) (*AggregatedMatrix, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read csv: empty input")
	}

	header := records[0]
	if len(header) < 1 || header[0] != "Year" {
		return nil, fmt.Errorf("read csv: first column must be Year, got %q", header)
	}

	m := &AggregatedMatrix{}
	for _, label := range header[1:] {
		m.Columns = append(m.Columns, Column{Label: label, Color: ColorFor(label)})
	}

	for i, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("read csv: row %d has %d fields, want %d", i+1, len(rec), len(header))
		}
		year, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("read csv: row %d year: %w", i+1, err)
		}
		cells := make([]string, len(rec)-1)
		copy(cells, rec[1:])
		m.Rows = append(m.Rows, Row{Year: year, Cells: cells})
	}

	return m, nil
}

// ExportFilename encodes the active parameters into a download filename
// for traceability. A single-season export names the season and country;
// a multi-season export only carries the percentage.
func ExportFilename(percent int, seasons []string, country string) string {
	if len(seasons) == 1 {
		return fmt.Sprintf("bad_years_frequency_%d_%s_%s.csv", percent, seasons[0], country)
	}
	return fmt.Sprintf("bad_years_across_seasons_%d.csv", percent)
}
