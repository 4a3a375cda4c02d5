// Package schema turns raw source tables into the canonical pipeline rows.
// Two source layouts exist: the full cleaned export and the reduced sample
// export. Both normalize to the same row shape so downstream code never
// sees which variant a file used.
package schema

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/metroviz/crimedash/internal/model"
	"github.com/metroviz/crimedash/internal/textnorm"
)

// Variant identifies which of the known source layouts a file uses.
type Variant int

const (
	// VariantReduced is the sample export: raw date/time strings and the
	// offense under categoria_delito.
	VariantReduced Variant = iota
	// VariantFull is the cleaned export produced by the full preparation
	// pipeline, recognizable by its derived marker columns (latitud_N,
	// hora_num).
	VariantFull
)

func (v Variant) String() string {
	if v == VariantFull {
		return "full"
	}
	return "reduced"
}

// ErrMissingOffenseColumn signals that no offense-label column exists in
// the source header. Proceeding would silently categorize everything as
// non-violent, so this is surfaced as a configuration error instead.
var ErrMissingOffenseColumn = eris.New("schema: offense column not found in source header")

// canonicalizeCol lower-cases a header cell and collapses spaces to
// underscores, matching how source files drift between variants.
func canonicalizeCol(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "_")
}

// mapColumns builds a canonical column name -> index map.
func mapColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		m[canonicalizeCol(col)] = i
	}
	return m
}

// getCol returns a column value by canonical name, or "" when absent.
func getCol(record []string, colIdx map[string]int, name string) string {
	idx, ok := colIdx[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}

// firstNonEmpty returns the first non-empty value among the named columns.
// Used for fields whose column name differs between variants.
func firstNonEmpty(record []string, colIdx map[string]int, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(getCol(record, colIdx, name)); v != "" {
			return v
		}
	}
	return ""
}

// Column synonym sets per canonical field, most-derived name first so the
// full variant's precomputed columns win over raw ones.
var (
	offenseCols      = []string{"delito_n", "delito", "categoria_delito"}
	areaCols         = []string{"alcaldia_hecho_n", "alcaldia_hecho"}
	neighborhoodCols = []string{"colonia_catalogo_n", "colonia_catalogo", "colonia_hecho"}
	dateCols         = []string{"fecha_hecho", "fecha_inicio"}
	timeCols         = []string{"hora_hecho", "hora_inicio"}
	hourCols         = []string{"hora_num", "hora_hecho_h"}
	yearCols         = []string{"anio_hecho_n", "anio_hecho", "anio_hecho_i"}
	monthCols        = []string{"mes_hecho_n", "mes_hecho_num", "mes_hecho"}
	latitudeCols     = []string{"latitud_n", "latitud"}
	longitudeCols    = []string{"longitud_n", "longitud"}
)

// fullMarkers are derived columns only the full pipeline emits; any one of
// them selects the full variant.
var fullMarkers = []string{"latitud_n", "hora_num"}

// Detect picks the schema variant from the header's signature columns.
func Detect(header []string) Variant {
	colIdx := mapColumns(header)
	for _, marker := range fullMarkers {
		if _, ok := colIdx[marker]; ok {
			return VariantFull
		}
	}
	return VariantReduced
}

// dateFormats are tried in order when parsing occurrence dates.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006",
}

// parseDate parses an occurrence date with error coercion: unparseable
// input yields ok=false, never an error.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == model.MissingValue {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseHour extracts the hour of day from an occurrence time like
// "HH:MM:SS" or "HH:MM". Returns -1 when unparseable or out of range.
func parseHour(s string) int {
	s = strings.TrimSpace(s)
	if s == "" || s == model.MissingValue {
		return -1
	}
	head, _, found := strings.Cut(s, ":")
	if !found {
		return -1
	}
	h, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil || h < 0 || h > 23 {
		return -1
	}
	return h
}

// parseIntOr parses an integer field, returning def for anything invalid.
// Source files write floats like "14.0" for derived integer columns.
func parseIntOr(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" || s == model.MissingValue {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return def
}

// Normalize converts a raw table into canonical pipeline rows. The variant
// is detected from the header; both paths produce the identical output
// shape. Unparseable dates and times coerce to missing (-1 hour, zero
// year/month) rather than failing the load.
func Normalize(header []string, records [][]string) ([]model.Row, error) {
	colIdx := mapColumns(header)

	hasOffense := false
	for _, name := range offenseCols {
		if _, ok := colIdx[name]; ok {
			hasOffense = true
			break
		}
	}
	if !hasOffense {
		return nil, ErrMissingOffenseColumn
	}

	variant := Detect(header)

	rows := make([]model.Row, 0, len(records))
	for _, record := range records {
		row := model.Row{
			Offense:      textnorm.Normalize(firstNonEmpty(record, colIdx, offenseCols...)),
			Area:         textnorm.Normalize(firstNonEmpty(record, colIdx, areaCols...)),
			Neighborhood: textnorm.Normalize(firstNonEmpty(record, colIdx, neighborhoodCols...)),
			RawLatitude:  firstNonEmpty(record, colIdx, latitudeCols...),
			RawLongitude: firstNonEmpty(record, colIdx, longitudeCols...),
			Hour:         -1,
		}
		if row.Area == "" {
			row.Area = model.MissingValue
		}
		if row.Neighborhood == "" {
			row.Neighborhood = model.MissingValue
		}

		date, dateOK := parseDate(firstNonEmpty(record, colIdx, dateCols...))

		switch variant {
		case VariantFull:
			row.Hour = parseIntOr(firstNonEmpty(record, colIdx, hourCols...), -1)
			row.Year = parseIntOr(firstNonEmpty(record, colIdx, yearCols...), 0)
			row.Month = parseIntOr(firstNonEmpty(record, colIdx, monthCols...), 0)
		default:
			row.Hour = parseHour(firstNonEmpty(record, colIdx, timeCols...))
			if row.Hour < 0 {
				// Some reduced exports carry a precomputed hour column.
				row.Hour = parseIntOr(firstNonEmpty(record, colIdx, hourCols...), -1)
			}
			if dateOK {
				row.Year = date.Year()
				row.Month = int(date.Month())
			} else {
				row.Year = parseIntOr(firstNonEmpty(record, colIdx, yearCols...), 0)
				row.Month = parseIntOr(firstNonEmpty(record, colIdx, monthCols...), 0)
			}
		}
		if row.Hour < 0 || row.Hour > 23 {
			row.Hour = -1
		}

		// Weekday: prefer the source column (normalized, English names
		// mapped in), fall back to computing from the parsed date. The
		// output set is closed regardless of source locale.
		weekday := model.CanonicalWeekday(textnorm.Normalize(getCol(record, colIdx, "dia_semana")))
		if weekday == "" && dateOK {
			weekday = model.WeekdayLabel(date.Weekday())
		}
		row.Weekday = weekday

		rows = append(rows, row)
	}

	return rows, nil
}
