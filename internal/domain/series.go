package domain

// SeriesKey identifies one region-season rainfall series within an
// aggregation pass.
type SeriesKey struct {
	Region string `json:"region"`
	Season string `json:"season"`
}

// Label returns the display identity used as a column header,
// e.g. "Dori - JJA". Must be unique within one aggregation pass.
func (k SeriesKey) Label() string {
	return k.Region + " - " + k.Season
}

// Observation is one normalized row of a rainfall series. Missing marks
// rows whose rainfall failed to parse: the year is still valid but the
// row is excluded from classification and min/max bounds.
type Observation struct {
	Year     int     `json:"year"`
	Rainfall float64 `json:"rainfall"`
	Missing  bool    `json:"missing,omitempty"`
}

// RainfallSeries is an ordered, normalized rainfall record for one
// (country, season, region) triple. Year values are unique within a
// series after normalization. Treated as immutable once constructed.
type RainfallSeries struct {
	Key SeriesKey     `json:"key"`
	Obs []Observation `json:"observations"`
}

// SeasonData maps season -> region -> series, the shape one repository
// load request produces for a country.
type SeasonData map[string]map[string]RainfallSeries

// measured returns the observations eligible for classification, in
// series order.
func (s RainfallSeries) measured() []Observation {
	out := make([]Observation, 0, len(s.Obs))
	for _, o := range s.Obs {
		if !o.Missing {
			out = append(out, o)
		}
	}
	return out
}

// FilterYears returns a copy of the series restricted to years in
// [from, to] inclusive. Filtering changes the classification population:
// the lowest-P% of a window is not the lowest-P% of the full record.
func (s RainfallSeries) FilterYears(from, to int) RainfallSeries {
	out := RainfallSeries{Key: s.Key}
	for _, o := range s.Obs {
		if o.Year >= from && o.Year <= to {
			out.Obs = append(out.Obs, o)
		}
	}
	return out
}

// Bounds returns the minimum and maximum rainfall observed across the
// given series, skipping missing rows. ok is false when no series has a
// measurable observation, in which case no slider range can be built.
func Bounds(series ...RainfallSeries) (min, max float64, ok bool) {
	for _, s := range series {
		for _, o := range s.measured() {
			if !ok {
				min, max, ok = o.Rainfall, o.Rainfall, true
				continue
			}
			if o.Rainfall < min {
				min = o.Rainfall
			}
			if o.Rainfall > max {
				max = o.Rainfall
			}
		}
	}
	return min, max, ok
}

// YearBounds returns the minimum and maximum year across the given
// series. Missing-rainfall rows still carry a valid year and count.
// ok is false when every series is empty.
func YearBounds(series ...RainfallSeries) (min, max int, ok bool) {
	for _, s := range series {
		for _, o := range s.Obs {
			if !ok {
				min, max, ok = o.Year, o.Year, true
				continue
			}
			if o.Year < min {
				min = o.Year
			}
			if o.Year > max {
				max = o.Year
			}
		}
	}
	return min, max, ok
}
