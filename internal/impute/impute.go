// Package impute resolves missing incident coordinates using group-mean
// centroids keyed by (area, offense).
package impute

import (
	"strconv"
	"strings"

	"github.com/metroviz/crimedash/internal/model"
)

// ParseCoordinate parses a raw coordinate string. Accepts "." or "," as the
// decimal separator. The missing-value sentinel and non-numeric text coerce
// to (0, false), never an error.
func ParseCoordinate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == model.MissingValue {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

type groupKey struct {
	area    string
	offense string
}

type centroid struct {
	latSum float64
	lonSum float64
	n      int
}

// FillCentroids parses each row's raw coordinates and fills missing values
// with the mean coordinate of the valid rows sharing the same
// (area, offense) group. Pure transform: the input slice is not modified.
//
// Only rows with both coordinates valid contribute to a group's centroid,
// and centroids are computed over the full valid subset before any row is
// filled, so a row's own missing value never skews its group. Groups with
// no valid rows stay missing and are dropped by the loader's final filter.
func FillCentroids(rows []model.Row) []model.Row {
	out := make([]model.Row, len(rows))
	copy(out, rows)

	for i := range out {
		out[i].Latitude, out[i].HasLatitude = ParseCoordinate(out[i].RawLatitude)
		out[i].Longitude, out[i].HasLongitude = ParseCoordinate(out[i].RawLongitude)
	}

	groups := make(map[groupKey]*centroid)
	for i := range out {
		if !out[i].HasCoordinates() {
			continue
		}
		k := groupKey{area: out[i].Area, offense: out[i].Offense}
		c := groups[k]
		if c == nil {
			c = &centroid{}
			groups[k] = c
		}
		c.latSum += out[i].Latitude
		c.lonSum += out[i].Longitude
		c.n++
	}

	for i := range out {
		if out[i].HasCoordinates() {
			continue
		}
		c := groups[groupKey{area: out[i].Area, offense: out[i].Offense}]
		if c == nil || c.n == 0 {
			continue
		}
		if !out[i].HasLatitude {
			out[i].Latitude = c.latSum / float64(c.n)
			out[i].HasLatitude = true
		}
		if !out[i].HasLongitude {
			out[i].Longitude = c.lonSum / float64(c.n)
			out[i].HasLongitude = true
		}
	}

	return out
}
