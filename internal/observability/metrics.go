package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// analysis service.
type Metrics struct {
	AnalysisRequests *prometheus.CounterVec   // labels: kind={overview,threshold,frequency,historical,export}, outcome={ok,no_data,no_bad_years,invalid,error}
	AnalysisDuration *prometheus.HistogramVec // labels: kind
	SeriesLoaded     prometheus.Counter
	RowsSkipped      prometheus.Counter
	LoadCache        *prometheus.CounterVec // labels: result={hit,miss}
	DatasetReady     prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		AnalysisRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hindcast",
			Name:      "analysis_requests_total",
			Help:      "Analysis requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		AnalysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hindcast",
			Name:      "analysis_duration_seconds",
			Help:      "Duration of one full analysis recomputation.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}, []string{"kind"}),
		SeriesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hindcast",
			Name:      "series_loaded_total",
			Help:      "Total rainfall series parsed from disk (cache misses only).",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hindcast",
			Name:      "rows_skipped_total",
			Help:      "Total CSV rows dropped because the year column failed to parse.",
		}),
		LoadCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hindcast",
			Name:      "load_cache_total",
			Help:      "Season-load cache lookups by result.",
		}, []string{"result"}),
		DatasetReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hindcast",
			Name:      "dataset_ready",
			Help:      "1 when the data directory holds at least one country, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.AnalysisRequests,
		m.AnalysisDuration,
		m.SeriesLoaded,
		m.RowsSkipped,
		m.LoadCache,
		m.DatasetReady,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		AnalysisRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hindcast", Name: "analysis_requests_total"}, []string{"kind", "outcome"}),
		AnalysisDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "hindcast", Name: "analysis_duration_seconds"}, []string{"kind"}),
		SeriesLoaded:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hindcast", Name: "series_loaded_total"}),
		RowsSkipped:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "hindcast", Name: "rows_skipped_total"}),
		LoadCache:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "hindcast", Name: "load_cache_total"}, []string{"result"}),
		DatasetReady:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "hindcast", Name: "dataset_ready"}),
	}
}
