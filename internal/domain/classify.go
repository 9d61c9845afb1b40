package domain

import "sort"

// FlagThreshold flags the years whose rainfall is strictly below the
// given threshold. Years with rainfall equal to the threshold are not
// flagged. Missing-rainfall rows never match. Any threshold value is
// accepted; callers derive sensible slider bounds from [Bounds].
func FlagThreshold(s RainfallSeries, threshold float64) []int {
	var years []int
	for _, o := range s.measured() {
		if o.Rainfall < threshold {
			years = append(years, o.Year)
		}
	}
	return years
}

// FlagLowestPercent flags the years of the lowest percent of measurable
// rows, ranked ascending by rainfall. The count is floor(n * percent / 100),
// so small series under low percentages legitimately flag nothing. Equal
// rainfall values keep their series order (stable sort), making the
// result reproducible for identical input ordering.
func FlagLowestPercent(s RainfallSeries, percent int) []int {
	if percent <= 0 {
		return nil
	}

	ranked := s.measured()
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Rainfall < ranked[j].Rainfall
	})

	n := len(ranked) * percent / 100
	if n > len(ranked) {
		n = len(ranked)
	}
	if n == 0 {
		return nil
	}

	years := make([]int, n)
	for i, o := range ranked[:n] {
		years[i] = o.Year
	}
	return years
}
