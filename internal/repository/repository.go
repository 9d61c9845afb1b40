// Package repository loads rainfall hindcast series from the on-disk
// CSV tree: <base>/<country>/<season>/<region>.csv. Loads are idempotent
// and side-effect-free; identical requests are served from an explicit
// memoization cache and the returned data must be treated as immutable.
package repository

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/rainfall-hindcast/internal/domain"
	"github.com/couchcryptid/rainfall-hindcast/internal/observability"
)

// regionFileSuffix is the conventional trailing chunk of region file
// names, e.g. "Bobo_Dioulasso_mean_data.csv". Stripping it (and
// underscores) yields the display name, the canonical region key.
const regionFileSuffix = "mean_data.csv"

// Store reads and caches rainfall series for one data directory under
// one year-normalization policy.
type Store struct {
	base    string
	policy  domain.YearPolicy
	cache   *loadCache
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewStore creates a Store rooted at base. cacheSize bounds the
// memoization cache; the policy applies to every file the store reads.
func NewStore(base string, policy domain.YearPolicy, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		base:    base,
		policy:  policy,
		cache:   newLoadCache(cacheSize),
		logger:  logger,
		metrics: metrics,
	}
}

// Countries lists the country directories under the base path, sorted.
// An empty base directory yields an empty slice, not an error.
func (s *Store) Countries() ([]string, error) {
	dirs, err := listDirs(s.base)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	return dirs, nil
}

// Seasons lists the season directories for a country, sorted. A country
// without season directories yields an empty slice.
func (s *Store) Seasons(country string) ([]string, error) {
	dirs, err := listDirs(filepath.Join(s.base, country))
	if err != nil {
		return nil, fmt.Errorf("list seasons for %s: %w", country, err)
	}
	return dirs, nil
}

// LoadSeasons returns season -> region -> normalized series for the
// requested country. A missing or empty season directory maps to an
// empty region map rather than an error. Results are memoized by the
// full parameter set; callers must not mutate the returned data.
func (s *Store) LoadSeasons(country string, seasons []string) (domain.SeasonData, error) {
	key := strings.Join(append([]string{s.base, string(s.policy), country}, seasons...), "|")
	if data, ok := s.cache.get(key); ok {
		s.metrics.LoadCache.WithLabelValues("hit").Inc()
		return data, nil
	}
	s.metrics.LoadCache.WithLabelValues("miss").Inc()

	data := make(domain.SeasonData, len(seasons))
	for _, season := range seasons {
		regions, err := s.loadSeason(country, season)
		if err != nil {
			return nil, err
		}
		data[season] = regions
	}

	s.cache.put(key, data)
	return data, nil
}

func (s *Store) loadSeason(country, season string) (map[string]domain.RainfallSeries, error) {
	regions := make(map[string]domain.RainfallSeries)

	dir := filepath.Join(s.base, country, season)
	files, err := os.ReadDir(dir)
	if err != nil {
		if isNotExist(err) {
			s.logger.Warn("season directory missing", "country", country, "season", season)
			return regions, nil
		}
		return nil, fmt.Errorf("read season %s/%s: %w", country, season, err)
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".csv") {
			continue
		}
		region := RegionName(f.Name())
		series, err := s.loadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			return nil, fmt.Errorf("load %s/%s/%s: %w", country, season, f.Name(), err)
		}
		series.Key = domain.SeriesKey{Region: region, Season: season}
		regions[region] = series
		s.metrics.SeriesLoaded.Inc()
	}

	return regions, nil
}

// loadFile parses one two-column region file. Malformed rows are a
// per-row skip, never a file-level failure: the rest of the series
// must survive.
func (s *Store) loadFile(path string) (domain.RainfallSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.RainfallSeries{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // row length enforced below, bad rows skipped

	records, err := r.ReadAll()
	if err != nil {
		return domain.RainfallSeries{}, fmt.Errorf("read csv: %w", err)
	}

	rows := make([]domain.RawRow, 0, len(records))
	skipped := 0
	for _, rec := range records {
		if len(rec) != 2 {
			skipped++
			continue
		}
		rows = append(rows, domain.RawRow{Year: rec[0], Rainfall: rec[1]})
	}

	obs := domain.Normalize(rows, s.policy)
	dropped := skipped + len(rows) - len(obs)
	if dropped > 0 {
		s.metrics.RowsSkipped.Add(float64(dropped))
		s.logger.Debug("skipped unparsable rows", "file", path, "dropped", dropped)
	}

	return domain.RainfallSeries{Obs: obs}, nil
}

// RegionName derives the display name from a file name: strip the
// mean_data suffix and extension, replace underscores with spaces, trim.
func RegionName(file string) string {
	name := strings.TrimSuffix(file, regionFileSuffix)
	name = strings.TrimSuffix(name, ".csv")
	name = strings.ReplaceAll(name, "_", " ")
	return strings.TrimSpace(name)
}

func listDirs(path string) ([]string, error) {
	files, err := os.ReadDir(path)
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []string
	for _, f := range files {
		if f.IsDir() {
			dirs = append(dirs, f.Name())
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
