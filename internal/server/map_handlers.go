package server

import (
	"net/http"
	"strconv"

	"github.com/metroviz/crimedash/internal/mapview"
)

// handleMapPoints renders the point/heat layer for the current
// selection. layers=points|heat|both selects the layers; the configured
// sample fraction downsamples large selections.
func (s *Server) handleMapPoints(w http.ResponseWriter, r *http.Request) {
	selected, ok := s.selection(w, r)
	if !ok {
		return
	}

	opts := mapview.Options{
		SampleFraction: s.cfg.Map.SampleFraction,
		Seed:           s.cfg.Map.SampleSeed,
	}
	// The client may pick its own fraction, as the original map controls do.
	if raw := r.URL.Query().Get("sample"); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f <= 0 || f > 1 {
			respondError(w, http.StatusBadRequest, "sample must be in (0, 1]")
			return
		}
		opts.SampleFraction = f
	}
	switch r.URL.Query().Get("layers") {
	case "heat":
		opts.Heat = true
	case "both":
		opts.Points = true
		opts.Heat = true
	default:
		opts.Points = true
	}

	payload := mapview.BuildPayload(selected, opts)
	respondJSON(w, http.StatusOK, struct {
		NoData bool `json:"no_data"`
		mapview.Payload
	}{NoData: len(selected) == 0, Payload: payload})
}

// handleChoropleth computes the per-region violent percentage for one
// hour of day (hour=-1 or absent covers the whole day).
func (s *Server) handleChoropleth(w http.ResponseWriter, r *http.Request) {
	selected, ok := s.selection(w, r)
	if !ok {
		return
	}

	hour := -1
	if raw := r.URL.Query().Get("hour"); raw != "" {
		h, err := strconv.Atoi(raw)
		if err != nil || h < -1 || h > 23 {
			respondError(w, http.StatusBadRequest, "hour must be -1..23")
			return
		}
		hour = h
	}

	respondChart(w, selected, s.boundaries.ViolentPercentage(selected, hour))
}

// handleBoundaries serves the boundary polygons to the map client. When
// the set came from GeoJSON the original document passes through
// verbatim; otherwise only the region names are listed.
func (s *Server) handleBoundaries(w http.ResponseWriter, r *http.Request) {
	if len(s.boundaries.GeoJSON) > 0 {
		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(s.boundaries.GeoJSON)
		return
	}

	names := make([]string, 0, len(s.boundaries.Regions))
	for i := range s.boundaries.Regions {
		names = append(names, s.boundaries.Regions[i].Name)
	}
	respondJSON(w, http.StatusOK, map[string]any{"regions": names})
}
