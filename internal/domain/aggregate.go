package domain

import (
	"errors"
	"sort"
	"strings"
)

// ErrNoBadYears signals that no year was flagged by any selected series,
// so there is no table to build. Callers surface it as an informational
// "no bad years" status rather than a failure.
var ErrNoBadYears = errors.New("no bad years flagged for the selected criteria")

// FlaggedSeries pairs a series key with the years one classification run
// flagged bad. Years may be empty; the column still appears in the matrix.
type FlaggedSeries struct {
	Key   SeriesKey `json:"key"`
	Years []int     `json:"years"`
}

// Column is one matrix column with its render metadata.
type Column struct {
	Key   SeriesKey `json:"key"`
	Label string    `json:"label"`
	Color string    `json:"color,omitempty"`
}

// Row is one matrix row: a year plus one "Yes"/"" cell per column, in
// column order. Cells are explicit empty strings, never absent, so the
// renderer can treat every row uniformly.
type Row struct {
	Year  int      `json:"year"`
	Cells []string `json:"cells"`
}

// AggregatedMatrix is the sparse year-by-series bad-year table. Rows are
// the sorted union of all flagged years; columns are the selected series
// grouped by region, then ordered by season within each region.
type AggregatedMatrix struct {
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// cellYes marks a flagged (year, series) pair in matrix cells and CSV export.
const cellYes = "Yes"

// BuildMatrix merges per-series flag sets into an AggregatedMatrix. All
// runs must come from the same policy and parameters. regions and seasons
// give the presentation order: regions in selection order, seasons in
// selection order within each region. Series absent from flagged (e.g. a
// region missing in a season) contribute no column. Returns ErrNoBadYears
// when the union of flagged years is empty.
func BuildMatrix(flagged []FlaggedSeries, regions, seasons []string) (*AggregatedMatrix, error) {
	bad := make(map[SeriesKey]map[int]bool, len(flagged))
	for _, f := range flagged {
		set := make(map[int]bool, len(f.Years))
		for _, y := range f.Years {
			set[y] = true
		}
		bad[f.Key] = set
	}

	yearSet := make(map[int]bool)
	for _, set := range bad {
		for y := range set {
			yearSet[y] = true
		}
	}
	if len(yearSet) == 0 {
		return nil, ErrNoBadYears
	}

	var columns []Column
	for _, region := range regions {
		for _, season := range seasons {
			key := SeriesKey{Region: region, Season: season}
			if _, ok := bad[key]; !ok {
				continue
			}
			label := key.Label()
			columns = append(columns, Column{Key: key, Label: label, Color: ColorFor(label)})
		}
	}

	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)

	rows := make([]Row, 0, len(years))
	for _, y := range years {
		cells := make([]string, len(columns))
		for i, col := range columns {
			if bad[col.Key][y] {
				cells[i] = cellYes
			}
		}
		rows = append(rows, Row{Year: y, Cells: cells})
	}

	return &AggregatedMatrix{Columns: columns, Rows: rows}, nil
}

// seasonColors maps a season suffix to its table highlight color. The
// leading space is significant: it comes from the " - " join in the
// column label, so " JJA" matches "Dori - JJA" but not "Dori - JJAS".
var seasonColors = []struct {
	Suffix string
	Color  string
}{
	{" JJA", "#ADD8E6"},   // light blue
	{" JAS", "#90EE90"},   // light green
	{" JJAS", "#FFB6C1"},  // light pink
	{" JJASO", "#FFD700"}, // gold
}

// ColorFor returns the highlight color for a column label, matching the
// season suffix on the exact trailing substring. Returns "" when no
// season suffix matches.
func ColorFor(label string) string {
	for _, sc := range seasonColors {
		if strings.HasSuffix(label, sc.Suffix) {
			return sc.Color
		}
	}
	return ""
}
