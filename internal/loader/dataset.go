package loader

import (
	"sort"
	"time"

	"github.com/metroviz/crimedash/internal/model"
)

// Dataset is an immutable, fully prepared incident table. The loader
// publishes one per source path; every view reads the same instance, so
// nothing may mutate it after construction.
type Dataset struct {
	Path     string
	LoadedAt time.Time

	incidents []model.Incident
}

// Empty reports whether the dataset carries no rows. An empty dataset is
// the loader's sentinel for an unrecoverable source failure; callers treat
// it as fatal for the current view.
func (d *Dataset) Empty() bool {
	return d == nil || len(d.incidents) == 0
}

// Len returns the number of prepared incidents.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.incidents)
}

// Incidents returns the prepared records. The slice is shared; callers
// must not modify it.
func (d *Dataset) Incidents() []model.Incident {
	if d == nil {
		return nil
	}
	return d.incidents
}

// Areas returns the sorted distinct administrative areas.
func (d *Dataset) Areas() []string {
	if d == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var areas []string
	for i := range d.incidents {
		a := d.incidents[i].Area
		if a == "" || a == model.MissingValue {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		areas = append(areas, a)
	}
	sort.Strings(areas)
	return areas
}

// Years returns the sorted distinct years with at least one incident.
func (d *Dataset) Years() []int {
	if d == nil {
		return nil
	}
	seen := make(map[int]struct{})
	var years []int
	for i := range d.incidents {
		y := d.incidents[i].Year
		if y == 0 {
			continue
		}
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Filter selects incidents matching the given criteria. Zero values mean
// "no restriction". MinYear implements the caller-side year cutoff policy;
// it composes with the explicit year list.
type Filter struct {
	Area     string
	Category model.Category
	Years    []int
	MinYear  int
}

// Select returns a fresh slice of the incidents passing the filter.
func (d *Dataset) Select(f Filter) []model.Incident {
	if d == nil {
		return nil
	}
	yearSet := make(map[int]struct{}, len(f.Years))
	for _, y := range f.Years {
		yearSet[y] = struct{}{}
	}

	var out []model.Incident
	for i := range d.incidents {
		inc := d.incidents[i]
		if f.Area != "" && inc.Area != f.Area {
			continue
		}
		if f.Category != "" && inc.Category != f.Category {
			continue
		}
		if f.MinYear > 0 && inc.Year != 0 && inc.Year < f.MinYear {
			continue
		}
		if len(yearSet) > 0 {
			if _, ok := yearSet[inc.Year]; !ok {
				continue
			}
		}
		out = append(out, inc)
	}
	return out
}
