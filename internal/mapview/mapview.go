// Package mapview assembles the payloads the incident map renders:
// the point/heat layer with optional downsampling and the map center.
package mapview

import (
	"math/rand/v2"

	"github.com/metroviz/crimedash/internal/model"
)

// Mexico City's center, used when a selection has no coordinates to
// average.
const (
	DefaultCenterLat = 19.4326
	DefaultCenterLon = -99.1332
)

// Options controls the map payload.
type Options struct {
	Points bool // include the individual point layer
	Heat   bool // include the heat layer weights

	// SampleFraction in (0,1) downsamples the point layer to keep the
	// client responsive on large selections. 0 or 1 keeps every point.
	SampleFraction float64
	// Seed fixes the sampling sequence; 0 samples nondeterministically.
	Seed uint64
}

// Point is one rendered map marker.
type Point struct {
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Category  model.Category `json:"category"`
	Violent   bool           `json:"violent"`
	Offense   string         `json:"offense"`
	Hour      int            `json:"hour"`
}

// Payload is the complete map response.
type Payload struct {
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
	Total     int     `json:"total"`
	Sampled   bool    `json:"sampled"`
	Points    []Point `json:"points,omitempty"`
	Heat      []Point `json:"heat,omitempty"`
}

// BuildPayload renders the selection into a map payload. The center is
// the mean coordinate of the selection, or the city default when the
// selection is empty.
func BuildPayload(incidents []model.Incident, opts Options) Payload {
	p := Payload{Total: len(incidents)}
	p.CenterLat, p.CenterLon = center(incidents)

	if !opts.Points && !opts.Heat {
		return p
	}

	selected := incidents
	if opts.SampleFraction > 0 && opts.SampleFraction < 1 && len(incidents) > 0 {
		selected = sample(incidents, opts.SampleFraction, opts.Seed)
		p.Sampled = true
	}

	points := make([]Point, len(selected))
	for i := range selected {
		inc := selected[i]
		points[i] = Point{
			Latitude:  inc.Latitude,
			Longitude: inc.Longitude,
			Category:  inc.Category,
			Violent:   inc.Violent,
			Offense:   inc.Offense,
			Hour:      inc.Hour,
		}
	}
	if opts.Points {
		p.Points = points
	}
	if opts.Heat {
		p.Heat = points
	}
	return p
}

func center(incidents []model.Incident) (lat, lon float64) {
	if len(incidents) == 0 {
		return DefaultCenterLat, DefaultCenterLon
	}
	var sumLat, sumLon float64
	for i := range incidents {
		sumLat += incidents[i].Latitude
		sumLon += incidents[i].Longitude
	}
	n := float64(len(incidents))
	return sumLat / n, sumLon / n
}

// sample keeps each incident independently with probability fraction,
// preserving input order. A fixed seed makes the selection reproducible
// across requests.
func sample(incidents []model.Incident, fraction float64, seed uint64) []model.Incident {
	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewPCG(seed, seed))
	}

	out := make([]model.Incident, 0, int(float64(len(incidents))*fraction)+1)
	for i := range incidents {
		var roll float64
		if rng != nil {
			roll = rng.Float64()
		} else {
			roll = rand.Float64()
		}
		if roll < fraction {
			out = append(out, incidents[i])
		}
	}
	return out
}
