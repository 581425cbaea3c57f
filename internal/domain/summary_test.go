package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopCounty(t *testing.T) {
	t.Run("most frequent county", func(t *testing.T) {
		assert.Equal(t, "Kendall", TopCounty(testMarkers()))
	})

	t.Run("tie goes to alphabetical first", func(t *testing.T) {
		markers := []Marker{{County: "Gillespie"}, {County: "Comal"}, {County: "Gillespie"}, {County: "Comal"}}
		assert.Equal(t, "Comal", TopCounty(markers))
	})

	t.Run("blank counties ignored", func(t *testing.T) {
		markers := []Marker{{County: ""}, {County: ""}, {County: "Kerr"}}
		assert.Equal(t, "Kerr", TopCounty(markers))
	})

	t.Run("empty set", func(t *testing.T) {
		assert.Equal(t, NotAvailable, TopCounty(nil))
		assert.Equal(t, NotAvailable, TopCounty([]Marker{{Title: "no county"}}))
	})
}

func TestPinColor(t *testing.T) {
	tests := []struct {
		name   string
		marker Marker
		want   string
	}{
		{"dance hall", Marker{Title: "Gruene Dance Hall"}, ColorRed},
		{"church", Marker{Title: "St. Mary's Church"}, ColorPurple},
		{"school in description", Marker{Title: "Old Building", Description: "Served as the German school."}, ColorGreen},
		{"cemetery", Marker{Title: "Sisterdale Cemetery"}, ColorGray},
		{"dance wins over church", Marker{Title: "Church Dance Pavilion"}, ColorRed},
		{"default", Marker{Title: "Sauer-Beckmann Farmstead"}, ColorBlue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PinColor(tt.marker))
		})
	}
}

func TestPinColor_CoversCategoryVocabulary(t *testing.T) {
	for _, c := range []string{"Dance Hall", "Church", "School", "Cemetery"} {
		assert.NotEqual(t, ColorBlue, PinColor(Marker{Title: c}), c)
		assert.Contains(t, Categories, c)
	}
}

func TestDisplayDescription(t *testing.T) {
	assert.Equal(t, NoDescription, Marker{}.DisplayDescription())
	assert.Equal(t, "text", Marker{Description: "text"}.DisplayDescription())
}

func TestKeywordPattern(t *testing.T) {
	re := KeywordPattern([]string{"German", " ", "St. Louis"})
	require.NotNil(t, re)
	assert.True(t, re.MatchString("GERMAN club"))
	assert.True(t, re.MatchString("st. louis church"))
	assert.False(t, re.MatchString("stX louis church"), "keywords are quoted, not regex")

	assert.Nil(t, KeywordPattern(nil))
	assert.Nil(t, KeywordPattern([]string{"", "  "}))
}

func TestOverride_Matches(t *testing.T) {
	o := Override{TitleContains: "savage", City: "Waxahachie"}
	assert.True(t, o.Matches("George Washington SAVAGE", "Waxahachie"))
	assert.False(t, o.Matches("George Washington Savage", "Ennis"))
	assert.False(t, o.Matches("Other", "Waxahachie"))
	assert.True(t, Override{TitleContains: "savage"}.Matches("Savage House", "Anywhere"))
	assert.False(t, Override{}.Matches("anything", ""))
}
