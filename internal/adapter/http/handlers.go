package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/rainfall-hindcast/internal/analysis"
	"github.com/couchcryptid/rainfall-hindcast/internal/domain"
)

// GET /api/v1/countries
func (s *Server) handleListCountries(c *gin.Context) {
	countries, err := s.svc.ListCountries()
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": countries, "meta": gin.H{"count": len(countries)}})
}

// GET /api/v1/countries/:country/seasons
func (s *Server) handleListSeasons(c *gin.Context) {
	seasons, err := s.svc.ListSeasons(c.Param("country"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": seasons, "meta": gin.H{"count": len(seasons)}})
}

// GET /api/v1/series?country=&seasons=&regions=
func (s *Server) handleSeriesOverview(c *gin.Context) {
	sel := parseSelection(c)

	ov, err := s.svc.Overview(sel)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ov})
}

// GET /api/v1/badyears/threshold?country=&seasons=&regions=&threshold=&from=&to=
func (s *Server) handleThreshold(c *gin.Context) {
	threshold, err := strconv.ParseFloat(c.Query("threshold"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a number"})
		return
	}
	years, err := parseYearRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := s.svc.ThresholdAnalysis(analysis.ThresholdRequest{
		Selection: parseSelection(c),
		Threshold: threshold,
		Years:     years,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": m})
}

// GET /api/v1/badyears/frequency?country=&seasons=&regions=&percent=&from=&to=
func (s *Server) handleFrequency(c *gin.Context) {
	req, err := parseFrequencyRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := s.svc.FrequencyAnalysis(req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": m})
}

// GET /api/v1/badyears/frequency/export — same parameters as the
// frequency analysis, rendered as a CSV attachment.
func (s *Server) handleFrequencyExport(c *gin.Context) {
	req, err := parseFrequencyRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exp, err := s.svc.ExportFrequencyCSV(req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.Filename))
	c.Data(http.StatusOK, "text/csv", exp.Data)
}

// GET /api/v1/badyears/historical?country=&seasons=&regions=&percent=&from=&to=&years=
func (s *Server) handleHistorical(c *gin.Context) {
	req, err := parseFrequencyRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	chosen, err := parseIntList(c.Query("years"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("years: %v", err)})
		return
	}

	res, err := s.svc.HistoricalFrequency(analysis.HistoricalRequest{
		FrequencyRequest: req,
		ChosenYears:      chosen,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res})
}

// respondError maps service sentinels onto the wire. Empty-result
// conditions are informational statuses, not failures: the dashboard
// shows a message instead of a table.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, analysis.ErrEmptySelection),
		errors.Is(err, analysis.ErrInvalidPercent),
		errors.Is(err, analysis.ErrInvalidYearRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, analysis.ErrNoData), errors.Is(err, analysis.ErrNoObservations):
		c.JSON(http.StatusOK, gin.H{"data": nil, "status": "no data", "message": err.Error()})
	case errors.Is(err, domain.ErrNoBadYears):
		c.JSON(http.StatusOK, gin.H{"data": nil, "status": "no bad years", "message": err.Error()})
	default:
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// parseSelection reads country/seasons/regions query parameters.
// seasons and regions are comma-separated; order is preserved because
// it dictates column grouping downstream.
func parseSelection(c *gin.Context) analysis.Selection {
	return analysis.Selection{
		Country: c.Query("country"),
		Seasons: splitList(c.Query("seasons")),
		Regions: splitList(c.Query("regions")),
	}
}

func parseFrequencyRequest(c *gin.Context) (analysis.FrequencyRequest, error) {
	percent, err := strconv.Atoi(c.Query("percent"))
	if err != nil {
		return analysis.FrequencyRequest{}, errors.New("percent must be an integer")
	}
	years, err := parseYearRange(c)
	if err != nil {
		return analysis.FrequencyRequest{}, err
	}
	return analysis.FrequencyRequest{
		Selection: parseSelection(c),
		Percent:   percent,
		Years:     years,
	}, nil
}

// parseYearRange reads the optional from/to pair. Both or neither must
// be present.
func parseYearRange(c *gin.Context) (*analysis.YearRange, error) {
	fromStr, toStr := c.Query("from"), c.Query("to")
	if fromStr == "" && toStr == "" {
		return nil, nil
	}
	if fromStr == "" || toStr == "" {
		return nil, errors.New("from and to must be provided together")
	}
	from, err := strconv.Atoi(fromStr)
	if err != nil {
		return nil, errors.New("from must be an integer")
	}
	to, err := strconv.Atoi(toStr)
	if err != nil {
		return nil, errors.New("to must be an integer")
	}
	return &analysis.YearRange{From: from, To: to}, nil
}

func parseIntList(s string) ([]int, error) {
	var out []int
	for _, part := range splitList(s) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
