package server

import (
	"context"
	"net/http"
	"sort"
	"strconv"

	"github.com/metroviz/crimedash/internal/loader"
	"github.com/metroviz/crimedash/internal/model"
	"github.com/metroviz/crimedash/internal/stats"
)

// chartResponse wraps every chart payload. NoData distinguishes "the
// filters matched nothing" (still 200) from a failed dataset (503).
type chartResponse struct {
	NoData bool `json:"no_data"`
	Data   any  `json:"data"`
}

// datasetPath maps the dataset query parameter to a source file. The
// reduced file is the default.
func (s *Server) datasetPath(r *http.Request) string {
	if r.URL.Query().Get("dataset") == "full" {
		return s.cfg.Data.FullPath
	}
	return s.cfg.Data.ReducedPath
}

// dataset loads the requested dataset, or answers 503 and returns
// ok=false when preparation failed.
func (s *Server) dataset(ctx context.Context, w http.ResponseWriter, r *http.Request) (*loader.Dataset, bool) {
	ds := s.datasets.Load(ctx, s.datasetPath(r))
	if ds.Empty() {
		respondError(w, http.StatusServiceUnavailable, "dataset unavailable")
		return nil, false
	}
	return ds, true
}

// parseFilter reads the shared filter query parameters. The configured
// minimum year always applies on top of explicit year selections.
func (s *Server) parseFilter(r *http.Request) loader.Filter {
	q := r.URL.Query()
	f := loader.Filter{
		Area:    q.Get("area"),
		MinYear: s.cfg.Data.MinYear,
	}
	if c := q.Get("category"); c != "" {
		f.Category = model.Category(c)
	}
	for _, raw := range q["year"] {
		if y, err := strconv.Atoi(raw); err == nil {
			f.Years = append(f.Years, y)
		}
	}
	return f
}

// selection resolves dataset plus filter in one step. A failed dataset
// writes the 503 itself; an empty selection is returned as-is for the
// handler to flag with no_data.
func (s *Server) selection(w http.ResponseWriter, r *http.Request) ([]model.Incident, bool) {
	ds, ok := s.dataset(r.Context(), w, r)
	if !ok {
		return nil, false
	}
	return ds.Select(s.parseFilter(r)), true
}

func respondChart(w http.ResponseWriter, selected []model.Incident, data any) {
	respondJSON(w, http.StatusOK, chartResponse{NoData: len(selected) == 0, Data: data})
}

// handleDatasets describes the loaded dataset: its distinct areas,
// years, and the category vocabulary, for populating filter controls.
func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(r.Context(), w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"path":       ds.Path,
		"rows":       ds.Len(),
		"loaded_at":  ds.LoadedAt,
		"areas":      ds.Areas(),
		"years":      ds.Years(),
		"categories": model.Categories(),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	selected, ok := s.selection(w, r)
	if !ok {
		return
	}
	respondChart(w, selected, stats.Summarize(selected))
}

func (s *Server) handleHourlyCategories(w http.ResponseWriter, r *http.Request) {
	selected, ok := s.selection(w, r)
	if !ok {
		return
	}
	respondChart(w, selected, stats.HourlyByCategory(selected))
}

func (s *Server) handleHourlyVolume(w http.ResponseWriter, r *http.Request) {
	selected, ok := s.selection(w, r)
	if !ok {
		return
	}
	respondChart(w, selected, stats.HourlyVolume(selected))
}

func (s *Server) handleHourlyRatio(w http.ResponseWriter, r *http.Request) {
	selected, ok := s.selection(w, r)
	if !ok {
		return
	}
	respondChart(w, selected, stats.HourlyRatio(selected))
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	selected, ok := s.selection(w, r)
	if !ok {
		return
	}
	respondChart(w, selected, stats.Heatmap(selected))
}

func (s *Server) handlePolar(w http.ResponseWriter, r *http.Request) {
	selected, ok := s.selection(w, r)
	if !ok {
		return
	}
	respondChart(w, selected, stats.Polar(selected))
}

func (s *Server) handleByArea(w http.ResponseWriter, r *http.Request) {
	selected, ok := s.selection(w, r)
	if !ok {
		return
	}
	respondChart(w, selected, stats.ByArea(selected))
}

// handleDetailedAnalysis is the privileged view: per-category yearly
// trends plus the hourly breakdown, over the current selection.
func (s *Server) handleDetailedAnalysis(w http.ResponseWriter, r *http.Request) {
	selected, ok := s.selection(w, r)
	if !ok {
		return
	}

	type yearCount struct {
		Year  int `json:"year"`
		Count int `json:"count"`
	}
	byCatYear := make(map[model.Category]map[int]int)
	for i := range selected {
		inc := selected[i]
		if inc.Year == 0 {
			continue
		}
		if byCatYear[inc.Category] == nil {
			byCatYear[inc.Category] = make(map[int]int)
		}
		byCatYear[inc.Category][inc.Year]++
	}

	trends := make(map[model.Category][]yearCount, len(byCatYear))
	for cat, years := range byCatYear {
		series := make([]yearCount, 0, len(years))
		for y, n := range years {
			series = append(series, yearCount{Year: y, Count: n})
		}
		sort.Slice(series, func(i, j int) bool { return series[i].Year < series[j].Year })
		trends[cat] = series
	}

	respondChart(w, selected, map[string]any{
		"summary":       stats.Summarize(selected),
		"yearly_trends": trends,
		"hourly_volume": stats.HourlyVolume(selected),
		"by_area":       stats.ByArea(selected),
	})
}
