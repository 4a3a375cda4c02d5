// Package classify assigns offense labels to the fixed category taxonomy
// using ordered substring rules.
package classify

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/metroviz/crimedash/internal/model"
)

// ErrNoOffenseLabels signals a configuration problem: rows were supplied
// but none carried an offense label, which means the source's offense
// column never made it through schema normalization.
var ErrNoOffenseLabels = eris.New("classify: no offense labels present in input")

// Rule pairs a label predicate with the category it assigns. Rules are
// evaluated in a fixed order and assignment is first-writer-wins: a label
// captured by an earlier rule is never reassigned by a later one.
type Rule struct {
	Name     string
	Match    func(label string) bool
	Category model.Category
}

func containsAny(label string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(label, sub) {
			return true
		}
	}
	return false
}

// DefaultRules returns the fixed rule order:
// Homicidio/Feminicidio, Robo, Lesiones, Secuestro, Otros. Anything
// unmatched falls back to No violentos.
//
// The homicide rule carries one guard: the label exactly "ACOSO SEXUAL" is
// excluded from the homicide bucket (a known mis-tagged source value) and
// falls through to the sexual-offense rule instead.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "homicide",
			Match: func(l string) bool {
				if l == "ACOSO SEXUAL" {
					return false
				}
				return containsAny(l, "HOMICIDIO", "FEMINICIDIO")
			},
			Category: model.CategoryHomicide,
		},
		{
			Name:     "robbery",
			Match:    func(l string) bool { return strings.Contains(l, "ROBO") },
			Category: model.CategoryRobbery,
		},
		{
			Name:     "injury",
			Match:    func(l string) bool { return containsAny(l, "INTENCIONALES", "DOLOSAS") },
			Category: model.CategoryInjury,
		},
		{
			Name:     "kidnapping",
			Match:    func(l string) bool { return strings.Contains(l, "SECUESTRO") },
			Category: model.CategoryKidnapping,
		},
		{
			Name:     "other_violent",
			Match:    func(l string) bool { return containsAny(l, "SEXUAL", "VIOLACION", "TRATA") },
			Category: model.CategoryOtherViolent,
		},
	}
}

// Categorize assigns every distinct label in the vocabulary to exactly one
// category. Matching is case-insensitive. The returned map is total over
// the input: unmatched labels map to No violentos.
//
// Classifying the distinct vocabulary once and broadcasting the result back
// to rows is far cheaper than evaluating the cascade per row; Apply does
// the broadcast.
func Categorize(labels []string) map[string]model.Category {
	rules := DefaultRules()
	assigned := make(map[string]model.Category, len(labels))
	for _, label := range labels {
		if _, seen := assigned[label]; seen {
			continue
		}
		upper := strings.ToUpper(label)
		cat := model.CategoryNonViolent
		for _, r := range rules {
			if r.Match(upper) {
				cat = r.Category
				break
			}
		}
		assigned[label] = cat
	}
	return assigned
}

// Apply categorizes rows by their offense label and materializes the final
// incident records. The violent flag is recomputed from the category. Rows
// without both coordinates resolved are carried through unchanged in count;
// dropping them is the loader's job.
func Apply(rows []model.Row) ([]model.Incident, error) {
	if len(rows) > 0 {
		empty := true
		for i := range rows {
			if rows[i].Offense != "" {
				empty = false
				break
			}
		}
		if empty {
			return nil, ErrNoOffenseLabels
		}
	}

	vocab := make([]string, 0, 64)
	seen := make(map[string]struct{}, 64)
	for i := range rows {
		if _, ok := seen[rows[i].Offense]; ok {
			continue
		}
		seen[rows[i].Offense] = struct{}{}
		vocab = append(vocab, rows[i].Offense)
	}
	byLabel := Categorize(vocab)

	incidents := make([]model.Incident, 0, len(rows))
	for i := range rows {
		cat := byLabel[rows[i].Offense]
		incidents = append(incidents, model.Incident{
			Offense:      rows[i].Offense,
			Area:         rows[i].Area,
			Neighborhood: rows[i].Neighborhood,
			Year:         rows[i].Year,
			Month:        rows[i].Month,
			Hour:         rows[i].Hour,
			Weekday:      rows[i].Weekday,
			Latitude:     rows[i].Latitude,
			Longitude:    rows[i].Longitude,
			Category:     cat,
			Violent:      cat.Violent(),
		})
	}
	return incidents, nil
}
