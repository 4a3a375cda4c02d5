package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/metroviz/crimedash/internal/model"
)

func TestNormalize(t *testing.T) {
	// Accent folding + uppercasing
	assert.Equal(t, "ALVARO OBREGON", Normalize("Álvaro Obregón"))
	assert.Equal(t, "CUAUHTEMOC", Normalize("cuauhtémoc"))

	// Whitespace collapses to single spaces and edges are trimmed
	assert.Equal(t, "ROBO A CASA", Normalize("  robo   a\tcasa "))

	// ü folds too
	assert.Equal(t, "ARGUELLES", Normalize("argüelles"))
}

func TestNormalizePassthrough(t *testing.T) {
	// Empty string and the missing-data sentinel pass through untouched
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, model.MissingValue, Normalize(model.MissingValue))
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Álvaro  Obregón", "ROBO", "  x  y  ", "niño pérdido"}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}
