package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// RawRow is one unparsed two-column line from a region CSV file.
type RawRow struct {
	Year     string
	Rainfall string
}

// YearPolicy selects how raw year-column values map to calendar years.
// One policy applies per data source; the two are never mixed within a
// deployment.
type YearPolicy string

const (
	// YearPolicyAuto inspects the whole column: when strictly more than
	// half of the parsed values are below 1000 they are treated as
	// sequential indices and anchored so the highest index lands on the
	// current calendar year. Otherwise values are taken as calendar years.
	YearPolicyAuto YearPolicy = "auto"

	// YearPolicyFixed treats every value as a 1-based index into a fixed
	// 1991-start series: year = v + 1990.
	YearPolicyFixed YearPolicy = "fixed"
)

// ParseYearPolicy validates a policy string from configuration.
func ParseYearPolicy(s string) (YearPolicy, error) {
	switch YearPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case YearPolicyAuto:
		return YearPolicyAuto, nil
	case YearPolicyFixed:
		return YearPolicyFixed, nil
	default:
		return "", fmt.Errorf("unknown year policy %q (want %q or %q)", s, YearPolicyAuto, YearPolicyFixed)
	}
}

// Normalize converts raw rows into observations under the given policy.
// Rows with an unparsable year are dropped entirely. Unparsable rainfall
// becomes a missing observation. Duplicate years keep the first
// occurrence so years are unique within the result. An input where every
// year fails to parse yields an empty slice, not an error.
func Normalize(rows []RawRow, policy YearPolicy) []Observation {
	raws := make([]int, 0, len(rows))
	obs := make([]Observation, 0, len(rows))
	for _, r := range rows {
		v, err := strconv.ParseFloat(strings.TrimSpace(r.Year), 64)
		if err != nil {
			continue
		}
		o := Observation{}
		rain, err := strconv.ParseFloat(strings.TrimSpace(r.Rainfall), 64)
		if err != nil {
			o.Missing = true
		} else {
			o.Rainfall = rain
		}
		raws = append(raws, int(v))
		obs = append(obs, o)
	}
	if len(raws) == 0 {
		return nil
	}

	offset := 0
	switch policy {
	case YearPolicyFixed:
		offset = 1990
	default:
		if isIndexColumn(raws) {
			offset = clock.Now().Year() - maxInt(raws)
		}
	}

	out := make([]Observation, 0, len(obs))
	seen := make(map[int]bool, len(obs))
	for i, o := range obs {
		o.Year = raws[i] + offset
		if seen[o.Year] {
			continue
		}
		seen[o.Year] = true
		out = append(out, o)
	}
	return out
}

// isIndexColumn reports whether strictly more than half of the values
// are below 1000, the signature of a sequential index column rather
// than calendar years.
func isIndexColumn(values []int) bool {
	below := 0
	for _, v := range values {
		if v < 1000 {
			below++
		}
	}
	return below*2 > len(values)
}

func maxInt(values []int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
