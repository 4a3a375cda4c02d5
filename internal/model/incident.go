// Package model defines the incident record types shared by the
// preparation pipeline and the dashboard views.
package model

import "time"

// MissingValue is the sentinel used by the source files for absent fields.
const MissingValue = "SIN DATO"

// Category is one of the six mutually exclusive offense classes.
type Category string

const (
	CategoryHomicide     Category = "Homicidio/Feminicidio"
	CategoryRobbery      Category = "Robo"
	CategoryInjury       Category = "Lesiones"
	CategoryKidnapping   Category = "Secuestro"
	CategoryOtherViolent Category = "Otros"
	CategoryNonViolent   Category = "No violentos"
)

// Categories returns all categories in display order.
func Categories() []Category {
	return []Category{
		CategoryHomicide,
		CategoryRobbery,
		CategoryInjury,
		CategoryKidnapping,
		CategoryOtherViolent,
		CategoryNonViolent,
	}
}

// Valid reports whether c is one of the six known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryHomicide, CategoryRobbery, CategoryInjury,
		CategoryKidnapping, CategoryOtherViolent, CategoryNonViolent:
		return true
	}
	return false
}

// Violent reports whether the category counts as a violent offense.
// Always derived from the category, never stored independently.
func (c Category) Violent() bool {
	return c != CategoryNonViolent
}

// WeekdayLabels is the closed weekday label set, Monday through Sunday.
// Labels are accent-free uppercase so they survive text normalization.
var WeekdayLabels = [7]string{
	"LUNES", "MARTES", "MIERCOLES", "JUEVES", "VIERNES", "SABADO", "DOMINGO",
}

var weekdayByTime = map[time.Weekday]string{
	time.Monday:    "LUNES",
	time.Tuesday:   "MARTES",
	time.Wednesday: "MIERCOLES",
	time.Thursday:  "JUEVES",
	time.Friday:    "VIERNES",
	time.Saturday:  "SABADO",
	time.Sunday:    "DOMINGO",
}

// WeekdayLabel maps a time.Weekday into the fixed label set, independent of
// the host locale.
func WeekdayLabel(d time.Weekday) string {
	return weekdayByTime[d]
}

// WeekdayIndex returns the position of a label in WeekdayLabels (Monday=0),
// or -1 for an unknown label.
func WeekdayIndex(label string) int {
	for i, l := range WeekdayLabels {
		if l == label {
			return i
		}
	}
	return -1
}

// englishWeekdays maps uppercase English day names to the label set. Some
// source exports carry English day names from the producing pipeline.
var englishWeekdays = map[string]string{
	"MONDAY":    "LUNES",
	"TUESDAY":   "MARTES",
	"WEDNESDAY": "MIERCOLES",
	"THURSDAY":  "JUEVES",
	"FRIDAY":    "VIERNES",
	"SATURDAY":  "SABADO",
	"SUNDAY":    "DOMINGO",
}

// CanonicalWeekday maps an already-normalized weekday string (either the
// label set itself or an English day name) into the label set. Returns ""
// for anything unrecognized.
func CanonicalWeekday(s string) string {
	if WeekdayIndex(s) >= 0 {
		return s
	}
	return englishWeekdays[s]
}

// Row is the intermediate pipeline record: schema-normalized but not yet
// imputed or categorized. All fields are comparable so exact-duplicate rows
// collapse under map identity.
type Row struct {
	Offense      string
	Area         string
	Neighborhood string

	Year    int
	Month   int
	Hour    int // -1 when the source time was unparseable
	Weekday string

	// Raw coordinate text as read from the source ("." or "," decimals,
	// possibly the missing sentinel). Consumed by the imputer.
	RawLatitude  string
	RawLongitude string

	Latitude     float64
	Longitude    float64
	HasLatitude  bool
	HasLongitude bool
}

// HasCoordinates reports whether both coordinates are resolved.
func (r Row) HasCoordinates() bool {
	return r.HasLatitude && r.HasLongitude
}

// Incident is the fully prepared record every chart and map view consumes.
// Instances are immutable once the loader publishes a dataset.
type Incident struct {
	Offense      string   `json:"offense"`
	Area         string   `json:"area"`
	Neighborhood string   `json:"neighborhood,omitempty"`
	Year         int      `json:"year"`
	Month        int      `json:"month"`
	Hour         int      `json:"hour"`
	Weekday      string   `json:"weekday"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	Category     Category `json:"category"`
	Violent      bool     `json:"violent"`
}
