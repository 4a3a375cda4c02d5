package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCategoryViolent(t *testing.T) {
	for _, c := range Categories() {
		if c == CategoryNonViolent {
			assert.False(t, c.Violent())
		} else {
			assert.True(t, c.Violent(), "category %s", c)
		}
	}
}

func TestCategoryValid(t *testing.T) {
	assert.True(t, CategoryRobbery.Valid())
	assert.False(t, Category("Desconocido").Valid())
}

func TestWeekdayLabel(t *testing.T) {
	assert.Equal(t, "LUNES", WeekdayLabel(time.Monday))
	assert.Equal(t, "DOMINGO", WeekdayLabel(time.Sunday))
}

func TestWeekdayIndex(t *testing.T) {
	assert.Equal(t, 0, WeekdayIndex("LUNES"))
	assert.Equal(t, 6, WeekdayIndex("DOMINGO"))
	assert.Equal(t, -1, WeekdayIndex("lunes"))
	assert.Equal(t, -1, WeekdayIndex(""))
}

func TestCanonicalWeekday(t *testing.T) {
	// Native labels pass through; English names map in.
	assert.Equal(t, "MARTES", CanonicalWeekday("MARTES"))
	assert.Equal(t, "MARTES", CanonicalWeekday("TUESDAY"))
	assert.Equal(t, "", CanonicalWeekday("MARDI"))
}

func TestRowHasCoordinates(t *testing.T) {
	assert.False(t, Row{HasLatitude: true}.HasCoordinates())
	assert.True(t, Row{HasLatitude: true, HasLongitude: true}.HasCoordinates())
}
