package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metroviz/crimedash/internal/model"
)

func inc(hour int, weekday string, cat model.Category) model.Incident {
	return model.Incident{Hour: hour, Weekday: weekday, Category: cat, Violent: cat.Violent()}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]model.Incident{
		inc(1, "LUNES", model.CategoryRobbery),
		inc(2, "LUNES", model.CategoryNonViolent),
		inc(3, "LUNES", model.CategoryNonViolent),
		inc(4, "LUNES", model.CategoryHomicide),
	})
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Violent)
	assert.InDelta(t, 0.5, s.Ratio, 1e-9)

	assert.Zero(t, Summarize(nil))
}

func TestHourlyByCategory(t *testing.T) {
	out := HourlyByCategory([]model.Incident{
		inc(9, "LUNES", model.CategoryRobbery),
		inc(9, "LUNES", model.CategoryRobbery),
		inc(9, "LUNES", model.CategoryHomicide),
		inc(10, "LUNES", model.CategoryKidnapping),
		inc(10, "LUNES", model.CategoryNonViolent), // excluded
		inc(-1, "LUNES", model.CategoryRobbery),    // unknown hour excluded
	})

	require.Len(t, out, 3)
	// Ordered by hour, then category display order (homicide first).
	assert.Equal(t, HourCategoryCount{Hour: 9, Category: model.CategoryHomicide, Count: 1}, out[0])
	assert.Equal(t, HourCategoryCount{Hour: 9, Category: model.CategoryRobbery, Count: 2}, out[1])
	assert.Equal(t, HourCategoryCount{Hour: 10, Category: model.CategoryKidnapping, Count: 1}, out[2])
}

func TestHourlyVolume(t *testing.T) {
	out := HourlyVolume([]model.Incident{
		inc(0, "LUNES", model.CategoryRobbery),
		inc(0, "LUNES", model.CategoryNonViolent),
		inc(23, "LUNES", model.CategoryNonViolent),
	})

	require.Len(t, out, 24)
	assert.Equal(t, HourVolume{Hour: 0, Violent: 1, NonViolent: 1}, out[0])
	assert.Equal(t, HourVolume{Hour: 12}, out[12])
	assert.Equal(t, HourVolume{Hour: 23, NonViolent: 1}, out[23])
}

func TestHourlyRatio(t *testing.T) {
	// Hour 0: 2 violent / 2 total. Hour 1: 0 / 2. Everything else empty.
	series := HourlyRatio([]model.Incident{
		inc(0, "LUNES", model.CategoryRobbery),
		inc(0, "LUNES", model.CategoryHomicide),
		inc(1, "LUNES", model.CategoryNonViolent),
		inc(1, "LUNES", model.CategoryNonViolent),
	})

	require.Len(t, series.Hours, 24)
	assert.InDelta(t, 1.0, series.Hours[0].Ratio, 1e-9)
	assert.InDelta(t, 0.0, series.Hours[1].Ratio, 1e-9)

	// Global mean is over incidents, not over hours.
	assert.InDelta(t, 0.5, series.GlobalMean, 1e-9)

	// Edge smoothing shrinks the window: hour 0 averages hours 0..1.
	assert.InDelta(t, 0.5, series.Hours[0].Smoothed, 1e-9)
	// Hour 1 averages hours 0..2.
	assert.InDelta(t, (1.0+0.0+0.0)/3, series.Hours[1].Smoothed, 1e-9)
}

func TestHeatmapDense(t *testing.T) {
	out := Heatmap([]model.Incident{
		inc(13, "MARTES", model.CategoryRobbery),
		inc(13, "MARTES", model.CategoryNonViolent),
		inc(5, "", model.CategoryRobbery), // unknown weekday skipped
	})

	require.Len(t, out, 7*24)
	// Grid is Monday-first, hour-major within each day.
	assert.Equal(t, "LUNES", out[0].Weekday)
	assert.Equal(t, 0, out[0].Hour)

	cell := out[1*24+13] // Tuesday 13:00
	assert.Equal(t, "MARTES", cell.Weekday)
	assert.Equal(t, 2, cell.Total)
	assert.Equal(t, 1, cell.Violent)
	assert.InDelta(t, 0.5, cell.Ratio, 1e-9)
}

func TestPolarLabels(t *testing.T) {
	out := Polar([]model.Incident{inc(7, "LUNES", model.CategoryRobbery)})
	require.Len(t, out, 24)
	assert.Equal(t, "00:00", out[0].Label)
	assert.Equal(t, "07:00", out[7].Label)
	assert.InDelta(t, 1.0, out[7].Ratio, 1e-9)
}

func TestByArea(t *testing.T) {
	out := ByArea([]model.Incident{
		{Area: "B"}, {Area: "A"}, {Area: "A"}, {Area: "C"},
	})
	require.Len(t, out, 3)
	assert.Equal(t, AreaCount{Area: "A", Count: 2}, out[0])
	// Equal counts order by name.
	assert.Equal(t, AreaCount{Area: "B", Count: 1}, out[1])
	assert.Equal(t, AreaCount{Area: "C", Count: 1}, out[2])
}
