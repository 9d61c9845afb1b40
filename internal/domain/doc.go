// Package domain models rainfall hindcast data and the bad-year
// classification logic built on top of it.
//
// # Data Source
//
// Hindcast rainfall records live in a directory tree of two-column CSV
// files, one file per region:
//
//	<base>/<country>/<season>/<region>_mean_data.csv
//
// Each row is "<raw year>,<rainfall mm>" with no header. The raw year
// column appears in two encodings in the wild, handled by [Normalize]:
//
//	Calendar years:   1991, 1992, ... used as-is.
//	Sequential index: 1, 2, 3, ... mapped onto calendar years. Under
//	  [YearPolicyAuto] the column counts as an index column when strictly
//	  more than half of its parsed values are below 1000; the highest
//	  index is anchored to the current year, so startYear = now - max(v).
//	  Under [YearPolicyFixed] every value is a 1-based index into a
//	  1991-start series: year = v + 1990.
//
// Rows whose year fails to parse are dropped. Rainfall that fails to
// parse is kept as a missing observation: the year stays in the series
// but cannot be flagged bad or contribute to min/max bounds.
//
// # Season Labels
//
// Season directory names are short aggregation-window codes (JJA, JAS,
// JJAS, JJASO for June-August through June-October). A series is
// identified by [SeriesKey] and rendered under the label
// "<region> - <season>"; [ColorFor] matches the trailing " <season>"
// suffix of that label, leading space included, to a fixed highlight
// color per window.
//
// # Bad Years
//
// A bad year is a year whose rainfall falls strictly below an absolute
// threshold ([FlagThreshold]) or within the lowest P percent of observed
// values for its series ([FlagLowestPercent]). Flag sets from several
// series merge into a sparse year-by-series table ([BuildMatrix]) and
// feed the historical frequency computation ([HistoricalFrequency]).
package domain
