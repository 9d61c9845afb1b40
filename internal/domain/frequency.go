package domain

import (
	"math"
	"sort"
)

// FrequencyEntry reports how often one series was flagged bad within the
// chosen historical years, as a percentage in [0, 100] rounded to two
// decimals.
type FrequencyEntry struct {
	Key        SeriesKey `json:"key"`
	Label      string    `json:"label"`
	Percentage float64   `json:"percentage"`
}

// HistoricalFrequency computes, per series, the share of the chosen
// years that fall in that series' flag set. An empty chosen set yields
// all-zero percentages (explicit division guard). Entries come back
// sorted descending by percentage, stable on ties in flagged order, so
// the result is independent of map iteration. notable is false when
// every percentage is zero; zero entries are still valid data, only the
// all-zero case means "nothing notable".
func HistoricalFrequency(flagged []FlaggedSeries, chosen []int) (entries []FrequencyEntry, notable bool) {
	chosenSet := make(map[int]bool, len(chosen))
	for _, y := range chosen {
		chosenSet[y] = true
	}

	entries = make([]FrequencyEntry, 0, len(flagged))
	for _, f := range flagged {
		pct := 0.0
		if len(chosenSet) > 0 {
			hits := 0
			for _, y := range f.Years {
				if chosenSet[y] {
					hits++
				}
			}
			pct = roundPct(float64(hits) / float64(len(chosenSet)) * 100)
		}
		if pct > 0 {
			notable = true
		}
		entries = append(entries, FrequencyEntry{Key: f.Key, Label: f.Key.Label(), Percentage: pct})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Percentage > entries[j].Percentage
	})
	return entries, notable
}

func roundPct(p float64) float64 {
	return math.Round(p*100) / 100
}
