// Command validate performs integrity checks over a rainfall data tree.
// It verifies the directory layout, loads every region file through the
// real repository and normalizer, checks series invariants, and runs a
// classification plus CSV export round-trip so the tree is known good
// before the service points at it.
//
// Usage:
//
//	go run ./cmd/validate -data data -policy auto
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/couchcryptid/rainfall-hindcast/internal/domain"
	"github.com/couchcryptid/rainfall-hindcast/internal/observability"
	"github.com/couchcryptid/rainfall-hindcast/internal/repository"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data", "", "rainfall data tree to validate")
	policyStr := flag.String("policy", "auto", "year normalization policy (auto or fixed)")
	percent := flag.Int("percent", 10, "lowest-percent threshold for the classification phase")
	flag.Parse()

	if *dataDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	policy, err := domain.ParseYearPolicy(*policyStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	if code := run(*dataDir, policy, *percent); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir string, policy domain.YearPolicy, percent int) int {
	fmt.Println("=== Rainfall Data Integrity Validation ===")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	store := repository.NewStore(dataDir, policy, 8, logger, observability.NewMetricsForTesting())

	countries, err := store.Countries()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: list countries: %v\n", err)
		return 1
	}
	if len(countries) == 0 {
		fmt.Fprintf(os.Stderr, "FATAL: no country directories under %s\n", dataDir)
		return 1
	}

	data, seriesCount, err := loadAll(store, countries)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateLayout(dataDir, countries),
		validateSeries(data),
		validateClassification(data, percent),
		validateExportRoundTrip(data, percent),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Countries: %d, series: %d\n", len(countries), seriesCount)
	printDatasetStats(data)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// printDatasetStats summarizes each country: series count, measurable
// observation count, and global rainfall and year bounds.
func printDatasetStats(sets []countrySet) {
	for _, set := range sets {
		var all []domain.RainfallSeries
		measured := 0
		for _, regions := range set.data {
			for _, series := range regions {
				all = append(all, series)
				for _, o := range series.Obs {
					if !o.Missing {
						measured++
					}
				}
			}
		}
		minRain, maxRain, ok := domain.Bounds(all...)
		if !ok {
			fmt.Printf("  %s: %d series, no measurable observations\n", set.country, len(all))
			continue
		}
		minYear, maxYear, _ := domain.YearBounds(all...)
		fmt.Printf("  %s: %d series, %d observations, rainfall %.1f-%.1f, years %d-%d\n",
			set.country, len(all), measured, minRain, maxRain, minYear, maxYear)
	}
}

// countrySet is every loaded series for one country, keyed the way the
// repository returns them.
type countrySet struct {
	country string
	seasons []string
	data    domain.SeasonData
}

func loadAll(store *repository.Store, countries []string) ([]countrySet, int, error) {
	var sets []countrySet
	total := 0
	for _, country := range countries {
		seasons, err := store.Seasons(country)
		if err != nil {
			return nil, 0, fmt.Errorf("list seasons for %s: %w", country, err)
		}
		data, err := store.LoadSeasons(country, seasons)
		if err != nil {
			return nil, 0, fmt.Errorf("load %s: %w", country, err)
		}
		for _, regions := range data {
			total += len(regions)
		}
		sets = append(sets, countrySet{country: country, seasons: seasons, data: data})
	}
	return sets, total, nil
}

// ── Phase 1: Tree Layout ──
// Every country holds at least one season, every season at least one
// region file, and derived region names are non-empty and unique.

func validateLayout(dataDir string, countries []string) *phase {
	p := &phase{name: "Phase 1: Tree Layout"}

	for _, country := range countries {
		countryDir := filepath.Join(dataDir, country)
		seasons, err := os.ReadDir(countryDir)
		if err != nil {
			p.errorf("%s: %v", country, err)
			continue
		}

		seasonCount := 0
		for _, season := range seasons {
			if !season.IsDir() {
				continue
			}
			seasonCount++
			checkSeasonDir(p, countryDir, country, season.Name())
		}
		if seasonCount == 0 {
			p.errorf("%s: no season directories", country)
		}
	}
	return p
}

func checkSeasonDir(p *phase, countryDir, country, season string) {
	files, err := os.ReadDir(filepath.Join(countryDir, season))
	if err != nil {
		p.errorf("%s/%s: %v", country, season, err)
		return
	}

	seen := map[string]string{}
	csvCount := 0
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".csv") {
			continue
		}
		csvCount++

		region := repository.RegionName(f.Name())
		if region == "" {
			p.errorf("%s/%s/%s: region name resolves to empty", country, season, f.Name())
			continue
		}
		if prev, dup := seen[region]; dup {
			p.errorf("%s/%s: files %s and %s both resolve to region %q", country, season, prev, f.Name(), region)
		}
		seen[region] = f.Name()
	}
	if csvCount == 0 {
		p.errorf("%s/%s: no region files", country, season)
	}
}

// ── Phase 2: Series Invariants ──
// Loaded series must have unique ascending-insertable years, at least
// one measurable observation, and non-negative rainfall.

func validateSeries(sets []countrySet) *phase {
	p := &phase{name: "Phase 2: Series Invariants"}

	for _, set := range sets {
		for season, regions := range set.data {
			for region, series := range regions {
				checkSeries(p, set.country, season, region, series)
			}
		}
	}
	return p
}

func checkSeries(p *phase, country, season, region string, series domain.RainfallSeries) {
	id := country + "/" + season + "/" + region

	if series.Key.Region != region || series.Key.Season != season {
		p.errorf("%s: key mismatch: %q/%q", id, series.Key.Region, series.Key.Season)
	}
	if len(series.Obs) == 0 {
		p.errorf("%s: no observations survived normalization", id)
		return
	}

	seen := map[int]bool{}
	measured := 0
	for _, o := range series.Obs {
		if seen[o.Year] {
			p.errorf("%s: duplicate year %d", id, o.Year)
		}
		seen[o.Year] = true

		if o.Missing {
			continue
		}
		measured++
		if o.Rainfall < 0 {
			p.errorf("%s: negative rainfall %.1f in %d", id, o.Rainfall, o.Year)
		}
		if o.Year < 1900 || o.Year > 2100 {
			p.errorf("%s: implausible year %d", id, o.Year)
		}
	}
	if measured == 0 {
		p.errorf("%s: every observation is missing", id)
	}
}

// ── Phase 3: Classification Sanity ──
// The lowest-percent classifier must flag at most the floor share of
// each series and only years the series actually holds.

func validateClassification(sets []countrySet, percent int) *phase {
	p := &phase{name: "Phase 3: Classification Sanity"}

	for _, set := range sets {
		for season, regions := range set.data {
			for region, series := range regions {
				id := set.country + "/" + season + "/" + region

				flagged := domain.FlagLowestPercent(series, percent)
				limit := len(series.Obs) * percent / 100
				if len(flagged) > limit {
					p.errorf("%s: flagged %d years, limit is %d at %d%%", id, len(flagged), limit, percent)
				}

				years := map[int]bool{}
				for _, o := range series.Obs {
					years[o.Year] = true
				}
				for _, y := range flagged {
					if !years[y] {
						p.errorf("%s: flagged year %d not in series", id, y)
					}
				}
			}
		}
	}
	return p
}

// ── Phase 4: Export Round-Trip ──
// A matrix built per country must survive a CSV write and re-parse with
// identical labels and rows.

func validateExportRoundTrip(sets []countrySet, percent int) *phase {
	p := &phase{name: "Phase 4: Export Round-Trip"}

	for _, set := range sets {
		matrix, ok := buildCountryMatrix(p, set, percent)
		if !ok {
			continue
		}

		var buf bytes.Buffer
		if err := domain.WriteMatrixCSV(&buf, matrix); err != nil {
			p.errorf("%s: write matrix: %v", set.country, err)
			continue
		}
		parsed, err := domain.ParseMatrixCSV(&buf)
		if err != nil {
			p.errorf("%s: re-parse matrix: %v", set.country, err)
			continue
		}

		if diff := cmp.Diff(labels(matrix), labels(parsed)); diff != "" {
			p.errorf("%s: column labels changed in round-trip:\n%s", set.country, diff)
		}
		if diff := cmp.Diff(matrix.Rows, parsed.Rows); diff != "" {
			p.errorf("%s: rows changed in round-trip:\n%s", set.country, diff)
		}
	}
	return p
}

func buildCountryMatrix(p *phase, set countrySet, percent int) (*domain.AggregatedMatrix, bool) {
	var flagged []domain.FlaggedSeries
	var regions []string
	seenRegion := map[string]bool{}

	for _, season := range set.seasons {
		names := make([]string, 0, len(set.data[season]))
		for region := range set.data[season] {
			names = append(names, region)
		}
		sort.Strings(names)

		for _, region := range names {
			series := set.data[season][region]
			flagged = append(flagged, domain.FlaggedSeries{
				Key:   series.Key,
				Years: domain.FlagLowestPercent(series, percent),
			})
			if !seenRegion[region] {
				seenRegion[region] = true
				regions = append(regions, region)
			}
		}
	}

	matrix, err := domain.BuildMatrix(flagged, regions, set.seasons)
	if err != nil {
		// A tree where nothing falls in the lowest percent is legal.
		fmt.Printf("  Note: %s: %v at %d%%\n", set.country, err, percent)
		return nil, false
	}
	return matrix, true
}

func labels(m *domain.AggregatedMatrix) []string {
	out := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		out[i] = c.Label
	}
	return out
}
