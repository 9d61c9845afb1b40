// Package analysis orchestrates bad-year analysis requests: it pulls
// series from the repository, runs the domain classifiers, and shapes
// the results for the HTTP layer. Every request recomputes from scratch;
// the datasets are small and the repository memoizes loads, so there is
// no incremental invalidation.
package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/rainfall-hindcast/internal/domain"
	"github.com/couchcryptid/rainfall-hindcast/internal/observability"
)

// Sentinel errors recovered at the HTTP boundary. None of them is fatal:
// the worst user-visible outcome is an informational message and an
// absent chart or table.
var (
	// ErrEmptySelection means the caller selected zero countries,
	// seasons, or regions; detected before any computation.
	ErrEmptySelection = errors.New("no country, season, or region selected")

	// ErrNoData means the selection matched no series on disk.
	ErrNoData = errors.New("no data available for the selected country and seasons")

	// ErrNoObservations means the matched series hold no measurable
	// rainfall rows, so no min/max range can be established.
	ErrNoObservations = errors.New("no measurable rainfall observations in selection")

	// ErrInvalidPercent rejects frequency percentages outside (0, 100].
	ErrInvalidPercent = errors.New("percent must be in (0, 100]")

	// ErrInvalidYearRange rejects ranges where from > to.
	ErrInvalidYearRange = errors.New("year range start exceeds end")
)

// SeriesSource supplies rainfall series and catalog listings.
type SeriesSource interface {
	Countries() ([]string, error)
	Seasons(country string) ([]string, error)
	LoadSeasons(country string, seasons []string) (domain.SeasonData, error)
}

// Service runs analysis requests against a series source.
type Service struct {
	source  SeriesSource
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Service.
func New(source SeriesSource, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{source: source, logger: logger, metrics: metrics}
}

// Selection names the country, seasons, and regions one request covers.
// Season and region order is the caller's selection order and dictates
// column grouping in aggregated output.
type Selection struct {
	Country string
	Seasons []string
	Regions []string
}

func (sel Selection) validate() error {
	if sel.Country == "" || len(sel.Seasons) == 0 || len(sel.Regions) == 0 {
		return ErrEmptySelection
	}
	return nil
}

// YearRange restricts classification to years in [From, To] inclusive.
type YearRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// ThresholdRequest classifies bad years by absolute rainfall threshold.
type ThresholdRequest struct {
	Selection
	Threshold float64
	Years     *YearRange
}

// FrequencyRequest classifies bad years as the lowest Percent of
// rainfall values per series, optionally within a year window.
type FrequencyRequest struct {
	Selection
	Percent int
	Years   *YearRange
}

// HistoricalRequest measures how often each series flagged the caller's
// chosen years under the frequency policy.
type HistoricalRequest struct {
	FrequencyRequest
	ChosenYears []int
}

// Overview carries the per-series data and global bounds the chart and
// slider widgets are built from.
type Overview struct {
	Series      []domain.RainfallSeries `json:"series"`
	MinRainfall float64                 `json:"min_rainfall"`
	MaxRainfall float64                 `json:"max_rainfall"`
	MinYear     int                     `json:"min_year"`
	MaxYear     int                     `json:"max_year"`
}

// HistoricalResult is the descending-percentage view for the bar chart.
// Notable is false when every percentage is zero.
type HistoricalResult struct {
	Entries []domain.FrequencyEntry `json:"entries"`
	Notable bool                    `json:"notable"`
}

// Export is a downloadable CSV rendering of an aggregated matrix.
type Export struct {
	Filename string
	Data     []byte
}

// ListCountries returns the available countries.
func (s *Service) ListCountries() ([]string, error) {
	countries, err := s.source.Countries()
	if err != nil {
		return nil, err
	}
	if len(countries) == 0 {
		return nil, ErrNoData
	}
	return countries, nil
}

// ListSeasons returns the available seasons for a country.
func (s *Service) ListSeasons(country string) ([]string, error) {
	if country == "" {
		return nil, ErrEmptySelection
	}
	seasons, err := s.source.Seasons(country)
	if err != nil {
		return nil, err
	}
	if len(seasons) == 0 {
		return nil, ErrNoData
	}
	return seasons, nil
}

// Overview loads the selected series and derives the global rainfall and
// year bounds for chart axes and slider ranges.
func (s *Service) Overview(sel Selection) (ov *Overview, err error) {
	defer s.instrument("overview", &err)()

	series, err := s.selectSeries(sel)
	if err != nil {
		return nil, err
	}

	minRain, maxRain, ok := domain.Bounds(series...)
	if !ok {
		return nil, ErrNoObservations
	}
	minYear, maxYear, _ := domain.YearBounds(series...)

	return &Overview{
		Series:      series,
		MinRainfall: minRain,
		MaxRainfall: maxRain,
		MinYear:     minYear,
		MaxYear:     maxYear,
	}, nil
}

// ThresholdAnalysis flags years with rainfall strictly below the
// threshold and aggregates the flags across the selection.
func (s *Service) ThresholdAnalysis(req ThresholdRequest) (m *domain.AggregatedMatrix, err error) {
	defer s.instrument("threshold", &err)()

	flagged, err := s.classify(req.Selection, req.Years, func(series domain.RainfallSeries) []int {
		return domain.FlagThreshold(series, req.Threshold)
	})
	if err != nil {
		return nil, err
	}
	return domain.BuildMatrix(flagged, req.Regions, req.Seasons)
}

// FrequencyAnalysis flags the lowest Percent of rainfall years per
// series and aggregates the flags across the selection.
func (s *Service) FrequencyAnalysis(req FrequencyRequest) (m *domain.AggregatedMatrix, err error) {
	defer s.instrument("frequency", &err)()

	flagged, err := s.classifyFrequency(req)
	if err != nil {
		return nil, err
	}
	return domain.BuildMatrix(flagged, req.Regions, req.Seasons)
}

// HistoricalFrequency computes, per series, the share of the chosen
// years flagged bad under the frequency policy.
func (s *Service) HistoricalFrequency(req HistoricalRequest) (res *HistoricalResult, err error) {
	defer s.instrument("historical", &err)()

	flagged, err := s.classifyFrequency(req.FrequencyRequest)
	if err != nil {
		return nil, err
	}

	entries, notable := domain.HistoricalFrequency(flagged, req.ChosenYears)
	return &HistoricalResult{Entries: entries, Notable: notable}, nil
}

// ExportFrequencyCSV renders a frequency analysis as a downloadable CSV
// table with a parameter-encoding filename.
func (s *Service) ExportFrequencyCSV(req FrequencyRequest) (exp *Export, err error) {
	defer s.instrument("export", &err)()

	flagged, err := s.classifyFrequency(req)
	if err != nil {
		return nil, err
	}
	matrix, err := domain.BuildMatrix(flagged, req.Regions, req.Seasons)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := domain.WriteMatrixCSV(&buf, matrix); err != nil {
		return nil, fmt.Errorf("export matrix: %w", err)
	}

	return &Export{
		Filename: domain.ExportFilename(req.Percent, req.Seasons, req.Country),
		Data:     buf.Bytes(),
	}, nil
}

// CheckReadiness reports whether the data directory holds at least one
// country. Used by the /readyz endpoint.
func (s *Service) CheckReadiness(_ context.Context) error {
	countries, err := s.source.Countries()
	if err != nil {
		s.metrics.DatasetReady.Set(0)
		return fmt.Errorf("data directory unreadable: %w", err)
	}
	if len(countries) == 0 {
		s.metrics.DatasetReady.Set(0)
		return errors.New("data directory holds no countries")
	}
	s.metrics.DatasetReady.Set(1)
	return nil
}

// selectSeries loads and orders the selected series: regions in
// selection order, seasons in selection order within each region. The
// same order feeds classification, aggregation, and tie-breaking in
// historical frequency output.
func (s *Service) selectSeries(sel Selection) ([]domain.RainfallSeries, error) {
	if err := sel.validate(); err != nil {
		return nil, err
	}

	data, err := s.source.LoadSeasons(sel.Country, sel.Seasons)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", sel.Country, err)
	}

	var series []domain.RainfallSeries
	for _, region := range sel.Regions {
		for _, season := range sel.Seasons {
			if sr, ok := data[season][region]; ok {
				series = append(series, sr)
			}
		}
	}
	if len(series) == 0 {
		return nil, ErrNoData
	}
	return series, nil
}

// classify runs one flag function over every selected series, applying
// the optional year window first so the window defines the population.
func (s *Service) classify(sel Selection, years *YearRange, flag func(domain.RainfallSeries) []int) ([]domain.FlaggedSeries, error) {
	if years != nil && years.From > years.To {
		return nil, ErrInvalidYearRange
	}

	series, err := s.selectSeries(sel)
	if err != nil {
		return nil, err
	}

	flagged := make([]domain.FlaggedSeries, 0, len(series))
	for _, sr := range series {
		if years != nil {
			sr = sr.FilterYears(years.From, years.To)
		}
		flagged = append(flagged, domain.FlaggedSeries{Key: sr.Key, Years: flag(sr)})
	}
	return flagged, nil
}

func (s *Service) classifyFrequency(req FrequencyRequest) ([]domain.FlaggedSeries, error) {
	if req.Percent <= 0 || req.Percent > 100 {
		return nil, ErrInvalidPercent
	}
	return s.classify(req.Selection, req.Years, func(series domain.RainfallSeries) []int {
		return domain.FlagLowestPercent(series, req.Percent)
	})
}

// instrument records duration and outcome for one analysis request.
func (s *Service) instrument(kind string, errp *error) func() {
	start := time.Now()
	return func() {
		outcome := outcomeLabel(*errp)
		s.metrics.AnalysisRequests.WithLabelValues(kind, outcome).Inc()
		s.metrics.AnalysisDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		if *errp != nil && outcome == "error" {
			s.logger.Error("analysis failed", "kind", kind, "error", *errp)
		} else {
			s.logger.Debug("analysis complete", "kind", kind, "outcome", outcome, "duration", time.Since(start))
		}
	}
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNoBadYears):
		return "no_bad_years"
	case errors.Is(err, ErrNoData), errors.Is(err, ErrNoObservations):
		return "no_data"
	case errors.Is(err, ErrEmptySelection), errors.Is(err, ErrInvalidPercent), errors.Is(err, ErrInvalidYearRange):
		return "invalid"
	default:
		return "error"
	}
}
