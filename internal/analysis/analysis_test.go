package analysis_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/rainfall-hindcast/internal/analysis"
	"github.com/couchcryptid/rainfall-hindcast/internal/domain"
	"github.com/couchcryptid/rainfall-hindcast/internal/observability"
)

// --- mocks ---

type mockSource struct {
	countries []string
	seasons   map[string][]string
	data      domain.SeasonData
	err       error
}

func (m *mockSource) Countries() ([]string, error) {
	return m.countries, m.err
}

func (m *mockSource) Seasons(country string) ([]string, error) {
	return m.seasons[country], m.err
}

func (m *mockSource) LoadSeasons(_ string, _ []string) (domain.SeasonData, error) {
	return m.data, m.err
}

func obsRun(startYear int, rainfall ...float64) []domain.Observation {
	out := make([]domain.Observation, len(rainfall))
	for i, r := range rainfall {
		out[i] = domain.Observation{Year: startYear + i, Rainfall: r}
	}
	return out
}

func testSource() *mockSource {
	return &mockSource{
		countries: []string{"Burkina Faso"},
		seasons:   map[string][]string{"Burkina Faso": {"JAS", "JJA"}},
		data: domain.SeasonData{
			"JJA": {
				"Dori": domain.RainfallSeries{
					Key: domain.SeriesKey{Region: "Dori", Season: "JJA"},
					Obs: obsRun(1991, 100, 50, 200, 30),
				},
				"Gao": domain.RainfallSeries{
					Key: domain.SeriesKey{Region: "Gao", Season: "JJA"},
					Obs: obsRun(1991, 300, 250, 260, 270),
				},
			},
			"JAS": {
				"Dori": domain.RainfallSeries{
					Key: domain.SeriesKey{Region: "Dori", Season: "JAS"},
					Obs: obsRun(1991, 80, 90, 20, 95),
				},
			},
		},
	}
}

func newService(src analysis.SeriesSource) *analysis.Service {
	return analysis.New(src, slog.Default(), observability.NewMetricsForTesting())
}

func selection() analysis.Selection {
	return analysis.Selection{
		Country: "Burkina Faso",
		Seasons: []string{"JJA", "JAS"},
		Regions: []string{"Dori", "Gao"},
	}
}

// --- tests ---

func TestOverview(t *testing.T) {
	svc := newService(testSource())

	ov, err := svc.Overview(selection())
	require.NoError(t, err)

	assert.Len(t, ov.Series, 3) // Gao has no JAS file
	assert.Equal(t, 20.0, ov.MinRainfall)
	assert.Equal(t, 300.0, ov.MaxRainfall)
	assert.Equal(t, 1991, ov.MinYear)
	assert.Equal(t, 1994, ov.MaxYear)

	// Series ordered region-major, seasons in selection order.
	assert.Equal(t, "Dori - JJA", ov.Series[0].Key.Label())
	assert.Equal(t, "Dori - JAS", ov.Series[1].Key.Label())
	assert.Equal(t, "Gao - JJA", ov.Series[2].Key.Label())
}

func TestOverview_EmptySelection(t *testing.T) {
	svc := newService(testSource())

	_, err := svc.Overview(analysis.Selection{Country: "Burkina Faso"})
	assert.ErrorIs(t, err, analysis.ErrEmptySelection)
}

func TestOverview_NoMatchingSeries(t *testing.T) {
	svc := newService(testSource())

	sel := selection()
	sel.Regions = []string{"Timbuktu"}
	_, err := svc.Overview(sel)
	assert.ErrorIs(t, err, analysis.ErrNoData)
}

func TestOverview_AllMissingRainfall(t *testing.T) {
	src := testSource()
	src.data = domain.SeasonData{
		"JJA": {
			"Dori": domain.RainfallSeries{
				Key: domain.SeriesKey{Region: "Dori", Season: "JJA"},
				Obs: []domain.Observation{{Year: 1991, Missing: true}},
			},
		},
	}
	svc := newService(src)

	sel := analysis.Selection{Country: "Burkina Faso", Seasons: []string{"JJA"}, Regions: []string{"Dori"}}
	_, err := svc.Overview(sel)
	assert.ErrorIs(t, err, analysis.ErrNoObservations)
}

func TestThresholdAnalysis(t *testing.T) {
	svc := newService(testSource())

	m, err := svc.ThresholdAnalysis(analysis.ThresholdRequest{
		Selection: selection(),
		Threshold: 85,
	})
	require.NoError(t, err)

	// Flagged: Dori-JJA {1992, 1994}, Dori-JAS {1991, 1993}, Gao-JJA {}.
	require.Len(t, m.Columns, 3)
	years := make([]int, len(m.Rows))
	for i, r := range m.Rows {
		years[i] = r.Year
	}
	assert.Equal(t, []int{1991, 1992, 1993, 1994}, years)
	assert.Equal(t, "Dori - JJA", m.Columns[0].Label)
	assert.Equal(t, "Dori - JAS", m.Columns[1].Label)
	// 1992: Dori-JJA (50 < 85) only.
	assert.Equal(t, []string{"Yes", "", ""}, m.Rows[1].Cells)
}

func TestThresholdAnalysis_ZeroThresholdMeansNoBadYears(t *testing.T) {
	svc := newService(testSource())

	_, err := svc.ThresholdAnalysis(analysis.ThresholdRequest{
		Selection: selection(),
		Threshold: 0,
	})
	assert.ErrorIs(t, err, domain.ErrNoBadYears)
}

func TestFrequencyAnalysis(t *testing.T) {
	svc := newService(testSource())

	m, err := svc.FrequencyAnalysis(analysis.FrequencyRequest{
		Selection: selection(),
		Percent:   25,
	})
	require.NoError(t, err)

	// Each series flags its single minimum: Dori-JJA 1994 (30),
	// Dori-JAS 1993 (20), Gao-JJA 1992 (250).
	years := make([]int, len(m.Rows))
	for i, r := range m.Rows {
		years[i] = r.Year
	}
	assert.Equal(t, []int{1992, 1993, 1994}, years)
}

func TestFrequencyAnalysis_YearWindowChangesPopulation(t *testing.T) {
	svc := newService(testSource())

	m, err := svc.FrequencyAnalysis(analysis.FrequencyRequest{
		Selection: analysis.Selection{Country: "Burkina Faso", Seasons: []string{"JJA"}, Regions: []string{"Dori"}},
		Percent:   50,
		Years:     &analysis.YearRange{From: 1991, To: 1993},
	})
	require.NoError(t, err)

	// Within [1991,1993] the population is {100, 50, 200}: floor(3*50/100)
	// flags one year, the 1992 minimum. 1994's record low of 30 is outside
	// the window and must not appear.
	years := make([]int, len(m.Rows))
	for i, r := range m.Rows {
		years[i] = r.Year
	}
	assert.Equal(t, []int{1992}, years)
}

func TestFrequencyAnalysis_InvalidInputs(t *testing.T) {
	svc := newService(testSource())

	_, err := svc.FrequencyAnalysis(analysis.FrequencyRequest{Selection: selection(), Percent: 0})
	assert.ErrorIs(t, err, analysis.ErrInvalidPercent)

	_, err = svc.FrequencyAnalysis(analysis.FrequencyRequest{Selection: selection(), Percent: 101})
	assert.ErrorIs(t, err, analysis.ErrInvalidPercent)

	_, err = svc.FrequencyAnalysis(analysis.FrequencyRequest{
		Selection: selection(),
		Percent:   10,
		Years:     &analysis.YearRange{From: 2000, To: 1990},
	})
	assert.ErrorIs(t, err, analysis.ErrInvalidYearRange)
}

func TestHistoricalFrequency(t *testing.T) {
	svc := newService(testSource())

	res, err := svc.HistoricalFrequency(analysis.HistoricalRequest{
		FrequencyRequest: analysis.FrequencyRequest{Selection: selection(), Percent: 25},
		ChosenYears:      []int{1993, 1994, 2000},
	})
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)
	assert.True(t, res.Notable)

	// Dori-JJA flags 1994, Dori-JAS flags 1993, Gao-JJA flags 1992:
	// two series hit 1/3 of the chosen years, Gao hits none.
	assert.Equal(t, 33.33, res.Entries[0].Percentage)
	assert.Equal(t, 33.33, res.Entries[1].Percentage)
	assert.Equal(t, 0.0, res.Entries[2].Percentage)
	assert.Equal(t, "Gao - JJA", res.Entries[2].Label)
}

func TestHistoricalFrequency_EmptyChosenYears(t *testing.T) {
	svc := newService(testSource())

	res, err := svc.HistoricalFrequency(analysis.HistoricalRequest{
		FrequencyRequest: analysis.FrequencyRequest{Selection: selection(), Percent: 25},
	})
	require.NoError(t, err)
	assert.False(t, res.Notable)
	for _, e := range res.Entries {
		assert.Zero(t, e.Percentage)
	}
}

func TestExportFrequencyCSV(t *testing.T) {
	svc := newService(testSource())

	exp, err := svc.ExportFrequencyCSV(analysis.FrequencyRequest{
		Selection: analysis.Selection{Country: "Burkina Faso", Seasons: []string{"JJA"}, Regions: []string{"Dori", "Gao"}},
		Percent:   25,
	})
	require.NoError(t, err)

	assert.Equal(t, "bad_years_frequency_25_JJA_Burkina Faso.csv", exp.Filename)

	lines := strings.Split(strings.TrimSpace(string(exp.Data)), "\n")
	assert.Equal(t, "Year,Dori - JJA,Gao - JJA", lines[0])

	parsed, err := domain.ParseMatrixCSV(strings.NewReader(string(exp.Data)))
	require.NoError(t, err)
	assert.Len(t, parsed.Rows, 2) // 1994 (Dori) and 1992 (Gao)
}

func TestListCatalog(t *testing.T) {
	svc := newService(testSource())

	countries, err := svc.ListCountries()
	require.NoError(t, err)
	assert.Equal(t, []string{"Burkina Faso"}, countries)

	seasons, err := svc.ListSeasons("Burkina Faso")
	require.NoError(t, err)
	assert.Equal(t, []string{"JAS", "JJA"}, seasons)

	t.Run("empty catalog is no data", func(t *testing.T) {
		empty := newService(&mockSource{})
		_, err := empty.ListCountries()
		assert.ErrorIs(t, err, analysis.ErrNoData)

		_, err = empty.ListSeasons("Niger")
		assert.ErrorIs(t, err, analysis.ErrNoData)
	})
}

func TestCheckReadiness(t *testing.T) {
	svc := newService(testSource())
	assert.NoError(t, svc.CheckReadiness(context.Background()))

	empty := newService(&mockSource{})
	assert.Error(t, empty.CheckReadiness(context.Background()))

	broken := newService(&mockSource{err: errors.New("disk gone")})
	assert.Error(t, broken.CheckReadiness(context.Background()))
}
