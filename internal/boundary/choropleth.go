package boundary

import (
	"sort"

	"github.com/metroviz/crimedash/internal/model"
)

// RegionStat is the choropleth value for one region: the share of its
// incidents that are violent, as a percentage.
type RegionStat struct {
	Region  string  `json:"region"`
	Total   int     `json:"total"`
	Violent int     `json:"violent"`
	Percent float64 `json:"percent"`
}

// ViolentPercentage assigns each incident to its containing region and
// computes the violent percentage per region. hour restricts the input to
// one hour of day; pass a negative hour to include every incident. The
// result is dense over the region list, sorted by name, so regions
// without incidents render at zero instead of disappearing.
func (s *Set) ViolentPercentage(incidents []model.Incident, hour int) []RegionStat {
	idx := make(map[string]int, len(s.Regions))
	out := make([]RegionStat, 0, len(s.Regions))
	for i := range s.Regions {
		name := s.Regions[i].Name
		if _, ok := idx[name]; ok {
			continue
		}
		idx[name] = len(out)
		out = append(out, RegionStat{Region: name})
	}

	for i := range incidents {
		inc := incidents[i]
		if hour >= 0 && inc.Hour != hour {
			continue
		}
		name, ok := s.Locate(inc.Latitude, inc.Longitude)
		if !ok {
			continue
		}
		st := &out[idx[name]]
		st.Total++
		if inc.Violent {
			st.Violent++
		}
	}

	for i := range out {
		if out[i].Total > 0 {
			out[i].Percent = 100 * float64(out[i].Violent) / float64(out[i].Total)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out
}
