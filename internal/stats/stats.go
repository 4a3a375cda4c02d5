// Package stats computes the aggregations behind the dashboard charts.
// Every function takes an already-filtered incident slice and only
// considers rows with a known hour of day.
package stats

import (
	"fmt"
	"sort"

	"github.com/metroviz/crimedash/internal/model"
)

const hoursPerDay = 24

// Summary holds the headline counters shown above the map.
type Summary struct {
	Total   int     `json:"total"`
	Violent int     `json:"violent"`
	Ratio   float64 `json:"ratio"`
}

// Summarize computes the incident totals and violent ratio.
func Summarize(incidents []model.Incident) Summary {
	s := Summary{}
	for i := range incidents {
		s.Total++
		if incidents[i].Violent {
			s.Violent++
		}
	}
	if s.Total > 0 {
		s.Ratio = float64(s.Violent) / float64(s.Total)
	}
	return s
}

// HourCategoryCount is one stacked-bar segment: violent incidents of one
// category within one hour.
type HourCategoryCount struct {
	Hour     int            `json:"hour"`
	Category model.Category `json:"category"`
	Count    int            `json:"count"`
}

// HourlyByCategory counts violent incidents per (hour, category), ordered
// by hour then by category display order. Non-violent rows are excluded:
// this feeds the violent-offense stacked bars.
func HourlyByCategory(incidents []model.Incident) []HourCategoryCount {
	type key struct {
		hour int
		cat  model.Category
	}
	counts := make(map[key]int)
	for i := range incidents {
		inc := incidents[i]
		if inc.Hour < 0 || inc.Hour >= hoursPerDay || !inc.Violent {
			continue
		}
		counts[key{inc.Hour, inc.Category}]++
	}

	catOrder := make(map[model.Category]int)
	for i, c := range model.Categories() {
		catOrder[c] = i
	}

	out := make([]HourCategoryCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, HourCategoryCount{Hour: k.hour, Category: k.cat, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hour != out[j].Hour {
			return out[i].Hour < out[j].Hour
		}
		return catOrder[out[i].Category] < catOrder[out[j].Category]
	})
	return out
}

// HourVolume is the per-hour split between violent and non-violent counts.
type HourVolume struct {
	Hour       int `json:"hour"`
	Violent    int `json:"violent"`
	NonViolent int `json:"non_violent"`
}

// HourlyVolume returns a dense 24-entry series of violent/non-violent
// volume per hour.
func HourlyVolume(incidents []model.Incident) []HourVolume {
	out := make([]HourVolume, hoursPerDay)
	for h := range out {
		out[h].Hour = h
	}
	for i := range incidents {
		inc := incidents[i]
		if inc.Hour < 0 || inc.Hour >= hoursPerDay {
			continue
		}
		if inc.Violent {
			out[inc.Hour].Violent++
		} else {
			out[inc.Hour].NonViolent++
		}
	}
	return out
}

// HourRatio is the violent fraction for one hour, raw and smoothed.
type HourRatio struct {
	Hour     int     `json:"hour"`
	Ratio    float64 `json:"ratio"`
	Smoothed float64 `json:"smoothed"`
}

// RatioSeries is the hourly violent-ratio line plus its global mean.
type RatioSeries struct {
	Hours      []HourRatio `json:"hours"`
	GlobalMean float64     `json:"global_mean"`
}

// HourlyRatio computes the violent fraction per hour over a dense 24-hour
// axis, with a centered moving average of window 3 (window shrinks at the
// edges rather than padding). Hours with no incidents have ratio 0.
func HourlyRatio(incidents []model.Incident) RatioSeries {
	var totals, violents [hoursPerDay]int
	for i := range incidents {
		inc := incidents[i]
		if inc.Hour < 0 || inc.Hour >= hoursPerDay {
			continue
		}
		totals[inc.Hour]++
		if inc.Violent {
			violents[inc.Hour]++
		}
	}

	ratios := make([]float64, hoursPerDay)
	var sumTotal, sumViolent int
	for h := 0; h < hoursPerDay; h++ {
		if totals[h] > 0 {
			ratios[h] = float64(violents[h]) / float64(totals[h])
		}
		sumTotal += totals[h]
		sumViolent += violents[h]
	}

	series := RatioSeries{Hours: make([]HourRatio, hoursPerDay)}
	for h := 0; h < hoursPerDay; h++ {
		lo, hi := h-1, h+1
		if lo < 0 {
			lo = 0
		}
		if hi >= hoursPerDay {
			hi = hoursPerDay - 1
		}
		var sum float64
		for w := lo; w <= hi; w++ {
			sum += ratios[w]
		}
		series.Hours[h] = HourRatio{
			Hour:     h,
			Ratio:    ratios[h],
			Smoothed: sum / float64(hi-lo+1),
		}
	}
	if sumTotal > 0 {
		series.GlobalMean = float64(sumViolent) / float64(sumTotal)
	}
	return series
}

// HeatCell is one day-of-week × hour cell of the violence-ratio heatmap.
type HeatCell struct {
	Weekday string  `json:"weekday"`
	Hour    int     `json:"hour"`
	Total   int     `json:"total"`
	Violent int     `json:"violent"`
	Ratio   float64 `json:"ratio"`
}

// Heatmap returns a dense 7×24 grid ordered Monday→Sunday, hour 0→23.
// Cells without incidents carry zero counts so the rendered grid never has
// holes. Incidents with an unknown weekday are skipped.
func Heatmap(incidents []model.Incident) []HeatCell {
	var totals, violents [7][hoursPerDay]int
	for i := range incidents {
		inc := incidents[i]
		if inc.Hour < 0 || inc.Hour >= hoursPerDay {
			continue
		}
		d := model.WeekdayIndex(inc.Weekday)
		if d < 0 {
			continue
		}
		totals[d][inc.Hour]++
		if inc.Violent {
			violents[d][inc.Hour]++
		}
	}

	out := make([]HeatCell, 0, 7*hoursPerDay)
	for d := 0; d < 7; d++ {
		for h := 0; h < hoursPerDay; h++ {
			cell := HeatCell{
				Weekday: model.WeekdayLabels[d],
				Hour:    h,
				Total:   totals[d][h],
				Violent: violents[d][h],
			}
			if cell.Total > 0 {
				cell.Ratio = float64(cell.Violent) / float64(cell.Total)
			}
			out = append(out, cell)
		}
	}
	return out
}

// PolarSlice is one clock-face sector of the 24-hour radial chart.
type PolarSlice struct {
	Hour  int     `json:"hour"`
	Label string  `json:"label"`
	Ratio float64 `json:"ratio"`
}

// Polar returns the hourly violent ratio dressed for the radial chart,
// with HH:00 clock labels.
func Polar(incidents []model.Incident) []PolarSlice {
	series := HourlyRatio(incidents)
	out := make([]PolarSlice, hoursPerDay)
	for h, r := range series.Hours {
		out[h] = PolarSlice{
			Hour:  h,
			Label: fmt.Sprintf("%02d:00", h),
			Ratio: r.Ratio,
		}
	}
	return out
}

// AreaCount is the incident total for one administrative area.
type AreaCount struct {
	Area  string `json:"area"`
	Count int    `json:"count"`
}

// ByArea counts incidents per area, sorted by count descending then name.
func ByArea(incidents []model.Incident) []AreaCount {
	counts := make(map[string]int)
	for i := range incidents {
		counts[incidents[i].Area]++
	}
	out := make([]AreaCount, 0, len(counts))
	for area, n := range counts {
		out = append(out, AreaCount{Area: area, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Area < out[j].Area
	})
	return out
}
