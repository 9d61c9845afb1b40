package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoricalFrequency(t *testing.T) {
	flagged := []FlaggedSeries{
		{Key: SeriesKey{Region: "A", Season: "JJA"}, Years: []int{1995, 1998}},
		{Key: SeriesKey{Region: "B", Season: "JAS"}, Years: []int{1998}},
	}
	chosen := []int{1995, 1998, 2000}

	entries, notable := HistoricalFrequency(flagged, chosen)
	require.Len(t, entries, 2)
	assert.True(t, notable)

	// Sorted descending by percentage.
	assert.Equal(t, "A - JJA", entries[0].Label)
	assert.Equal(t, 66.67, entries[0].Percentage)
	assert.Equal(t, "B - JAS", entries[1].Label)
	assert.Equal(t, 33.33, entries[1].Percentage)
}

func TestHistoricalFrequency_EmptyChosenSet(t *testing.T) {
	flagged := []FlaggedSeries{
		{Key: SeriesKey{Region: "A", Season: "JJA"}, Years: []int{1995}},
	}

	entries, notable := HistoricalFrequency(flagged, nil)
	require.Len(t, entries, 1)
	assert.False(t, notable)
	assert.Zero(t, entries[0].Percentage)
}

func TestHistoricalFrequency_AllZeroIsNotNotable(t *testing.T) {
	flagged := []FlaggedSeries{
		{Key: SeriesKey{Region: "A", Season: "JJA"}, Years: []int{1980}},
		{Key: SeriesKey{Region: "B", Season: "JAS"}, Years: []int{1981}},
	}

	entries, notable := HistoricalFrequency(flagged, []int{2000, 2001})
	require.Len(t, entries, 2)
	assert.False(t, notable)
	for _, e := range entries {
		assert.Zero(t, e.Percentage)
	}
}

func TestHistoricalFrequency_OrderIndependent(t *testing.T) {
	a := FlaggedSeries{Key: SeriesKey{Region: "A", Season: "JJA"}, Years: []int{1995, 1996}}
	b := FlaggedSeries{Key: SeriesKey{Region: "B", Season: "JAS"}, Years: []int{1996}}
	c := FlaggedSeries{Key: SeriesKey{Region: "C", Season: "JJAS"}, Years: []int{1997}}
	chosen := []int{1995, 1996, 1997, 1998}

	sum := func(entries []FrequencyEntry) float64 {
		var s float64
		for _, e := range entries {
			s += e.Percentage
		}
		return s
	}

	e1, _ := HistoricalFrequency([]FlaggedSeries{a, b, c}, chosen)
	e2, _ := HistoricalFrequency([]FlaggedSeries{c, a, b}, chosen)
	assert.Equal(t, sum(e1), sum(e2))
}

func TestHistoricalFrequency_DuplicateChosenYearsCountOnce(t *testing.T) {
	flagged := []FlaggedSeries{
		{Key: SeriesKey{Region: "A", Season: "JJA"}, Years: []int{1995}},
	}

	entries, _ := HistoricalFrequency(flagged, []int{1995, 1995})
	require.Len(t, entries, 1)
	assert.Equal(t, 100.0, entries[0].Percentage)
}
