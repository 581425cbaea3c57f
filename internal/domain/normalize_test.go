package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testVereinHall = "St. Verein Hall"
	testFbg        = "Fredericksburg"
)

// --- mock geocoder ---

type mockGeocoder struct {
	result GeocodingResult
	err    error
	calls  []string
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, place, _ string) (GeocodingResult, error) {
	m.calls = append(m.calls, place)
	return m.result, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestNormalizer(geocoder Geocoder) *Normalizer {
	return NewNormalizer(DefaultOptions(), geocoder, discardLogger())
}

func row(line int, fields map[string]string) RawRow {
	return RawRow{Fields: fields, Line: line}
}

func TestNormalize_RetainsHeritageDropsGeneric(t *testing.T) {
	rows := []RawRow{
		row(2, map[string]string{"Title": testVereinHall, "City": testFbg, "Year": "1875", "latitude": "30.27", "longitude": "-98.87"}),
		row(3, map[string]string{"Title": "City Hall", "City": "Austin", "Year": "1875", "latitude": "30.26", "longitude": "-97.74"}),
	}

	markers, report := newTestNormalizer(nil).Normalize(context.Background(), rows)

	require.Len(t, markers, 1)
	m := markers[0]
	assert.Equal(t, testVereinHall, m.Title)
	assert.Equal(t, testFbg, m.City)
	assert.Equal(t, 1875, m.Year)
	assert.Equal(t, Geo{Lat: 30.27, Lon: -98.87}, m.Geo)
	assert.Equal(t, GeoSourceDirect, m.GeoSource)
	assert.Equal(t, 2, m.SourceLine)
	assert.NotEmpty(t, m.ID)

	assert.Equal(t, 2, report.RowsRead)
	assert.Equal(t, 1, report.Retained)
	assert.Equal(t, 1, report.Excluded[ExcludedOffTopic])
}

func TestNormalize_ColumnReconciliation(t *testing.T) {
	t.Run("MarkerTex alias feeds the domain filter", func(t *testing.T) {
		rows := []RawRow{row(2, map[string]string{
			"Title": "Old Rock Store", "City": "Comfort",
			"MarkerTex": "Built by German Freethinkers in 1854.",
			"latitude":  "29.97", "longitude": "-98.90",
		})}
		markers, _ := newTestNormalizer(nil).Normalize(context.Background(), rows)
		require.Len(t, markers, 1)
		assert.Equal(t, "Built by German Freethinkers in 1854.", markers[0].Description)
	})

	t.Run("marker_text alias", func(t *testing.T) {
		r := ReconcileColumns(row(2, map[string]string{"marker_text": "Liederkranz hall"}))
		assert.Equal(t, "Liederkranz hall", r.Get(ColDescription))
	})

	t.Run("canonical column wins over alias", func(t *testing.T) {
		r := ReconcileColumns(row(2, map[string]string{"MarkerText": "canonical", "MarkerTex": "alias"}))
		assert.Equal(t, "canonical", r.Get(ColDescription))
	})

	t.Run("empty canonical column is filled by alias", func(t *testing.T) {
		r := ReconcileColumns(row(2, map[string]string{"MarkerText": " ", "MarkerTex": "alias"}))
		assert.Equal(t, "alias", r.Get(ColDescription))
	})

	t.Run("header case variants", func(t *testing.T) {
		r := ReconcileColumns(row(2, map[string]string{"TITLE": "Sisterdale", "UTM_EAST": "500000"}))
		assert.Equal(t, "Sisterdale", r.Get(ColTitle))
		assert.Equal(t, "500000", r.Get(ColUTMEast))
	})

	t.Run("missing title is excluded", func(t *testing.T) {
		rows := []RawRow{row(2, map[string]string{"City": testFbg, "MarkerText": "German settlers", "latitude": "30.27", "longitude": "-98.87"})}
		markers, report := newTestNormalizer(nil).Normalize(context.Background(), rows)
		assert.Empty(t, markers)
		assert.Equal(t, 1, report.Excluded[ExcludedMissingTitle])
	})
}

func TestNormalize_DedupFirstSeenWins(t *testing.T) {
	rows := []RawRow{
		row(2, map[string]string{"Title": "German Methodist Church", "City": "Castell", "Year": "1855", "latitude": "30.70", "longitude": "-98.96"}),
		row(3, map[string]string{"Title": "German Methodist Church", "City": "Castell", "Year": "1901", "latitude": "31.00", "longitude": "-99.00"}),
		row(4, map[string]string{"Title": "German Methodist Church", "City": "Llano", "Year": "1880", "latitude": "30.75", "longitude": "-98.67"}),
	}

	markers, report := newTestNormalizer(nil).Normalize(context.Background(), rows)

	require.Len(t, markers, 2)
	assert.Equal(t, "Castell", markers[0].City)
	assert.Equal(t, 1855, markers[0].Year)
	assert.Equal(t, 2, markers[0].SourceLine)
	assert.Equal(t, "Llano", markers[1].City)
	assert.Equal(t, 1, report.Excluded[ExcludedDuplicate])
}

func TestNormalize_DedupRunsBeforeDomainFilter(t *testing.T) {
	rows := []RawRow{
		row(2, map[string]string{"Title": "Old Mill", "City": "Boerne", "MarkerText": "A mill.", "latitude": "29.79", "longitude": "-98.73"}),
		row(3, map[string]string{"Title": "Old Mill", "City": "Boerne", "MarkerText": "Built by German millers.", "latitude": "29.79", "longitude": "-98.73"}),
	}

	markers, report := newTestNormalizer(nil).Normalize(context.Background(), rows)

	assert.Empty(t, markers)
	assert.Equal(t, 1, report.Excluded[ExcludedOffTopic])
	assert.Equal(t, 1, report.Excluded[ExcludedDuplicate])
}

func TestNormalize_DomainFilterKeywords(t *testing.T) {
	titles := map[string]bool{
		"Adelsverein Headquarters":        true,
		"PRUSSIAN Settlers":               true,
		"Deutsche Schule":                 true,
		"Alsatian Cottage":                true,
		"Castroville Liederkranz":         true,
		"germania Insurance Building":     true,
		"Spanish Mission San Jose":        false,
		"First Baptist Church of Houston": false,
	}

	for title, keep := range titles {
		t.Run(title, func(t *testing.T) {
			rows := []RawRow{row(2, map[string]string{"Title": title, "latitude": "30.0", "longitude": "-98.0"})}
			markers, _ := newTestNormalizer(nil).Normalize(context.Background(), rows)
			if keep {
				assert.Len(t, markers, 1)
			} else {
				assert.Empty(t, markers)
			}
		})
	}
}

func TestNormalize_CoordinateResolution(t *testing.T) {
	t.Run("utm only resolves", func(t *testing.T) {
		rows := []RawRow{row(2, map[string]string{"Title": "German School", "Utm_East": "500000", "Utm_North": "3500000"})}
		markers, _ := newTestNormalizer(nil).Normalize(context.Background(), rows)
		require.Len(t, markers, 1)
		assert.Equal(t, GeoSourceUTM, markers[0].GeoSource)
		assert.InDelta(t, -99.0, markers[0].Geo.Lon, 1e-6)
		assert.True(t, markers[0].Geo.Lat > 25 && markers[0].Geo.Lat < 37)
	})

	t.Run("non-numeric utm without direct coordinates is excluded", func(t *testing.T) {
		rows := []RawRow{row(2, map[string]string{"Title": "German School", "Utm_East": "abc", "Utm_North": "xyz"})}
		markers, report := newTestNormalizer(nil).Normalize(context.Background(), rows)
		assert.Empty(t, markers)
		assert.Equal(t, 1, report.Excluded[ExcludedUnresolvable])
	})

	t.Run("unresolvable record carries the cause", func(t *testing.T) {
		rows := []RawRow{row(7, map[string]string{"Title": "German School"})}
		results := newTestNormalizer(nil).Process(context.Background(), rows)
		require.Len(t, results, 1)
		assert.Equal(t, ExcludedUnresolvable, results[0].Excluded)
		assert.Equal(t, 7, results[0].Line)
		assert.ErrorIs(t, results[0].Err, ErrNoCoordinates)
	})

	t.Run("one bad row does not affect its siblings", func(t *testing.T) {
		rows := []RawRow{
			row(2, map[string]string{"Title": "German School", "Utm_East": "bad", "Utm_North": "bad"}),
			row(3, map[string]string{"Title": "German Church", "latitude": "30.1", "longitude": "-98.1"}),
		}
		markers, report := newTestNormalizer(nil).Normalize(context.Background(), rows)
		require.Len(t, markers, 1)
		assert.Equal(t, "German Church", markers[0].Title)
		assert.Equal(t, 1, report.ExcludedTotal())
	})
}

func TestNormalize_OverridePrecedence(t *testing.T) {
	fixed := Geo{Lat: 31.9185, Lon: -96.8970}

	t.Run("override beats direct coordinates", func(t *testing.T) {
		rows := []RawRow{row(2, map[string]string{
			"Title": "Geroge Washington Savage", "MarkerText": "Son of German immigrants",
			"latitude": "40.0", "longitude": "-80.0",
		})}
		markers, report := newTestNormalizer(nil).Normalize(context.Background(), rows)
		require.Len(t, markers, 1)
		assert.Equal(t, fixed, markers[0].Geo)
		assert.Equal(t, GeoSourceOverride, markers[0].GeoSource)
		assert.Equal(t, 1, report.OverridesApplied)
	})

	t.Run("override rescues an unresolvable row", func(t *testing.T) {
		rows := []RawRow{row(2, map[string]string{
			"Title": "geroge washington savage home", "MarkerText": "German family",
		})}
		markers, _ := newTestNormalizer(nil).Normalize(context.Background(), rows)
		require.Len(t, markers, 1)
		assert.Equal(t, fixed, markers[0].Geo)
	})

	t.Run("city-scoped override", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Overrides = []Override{{TitleContains: "Verein", City: testFbg, Geo: Geo{Lat: 30.2752, Lon: -98.8720}}}
		n := NewNormalizer(opts, nil, discardLogger())

		rows := []RawRow{
			row(2, map[string]string{"Title": "Verein Kirche", "City": testFbg, "latitude": "1", "longitude": "1"}),
			row(3, map[string]string{"Title": "Verein Kirche", "City": "Comfort", "latitude": "29.9", "longitude": "-98.9"}),
		}
		markers, _ := n.Normalize(context.Background(), rows)
		require.Len(t, markers, 2)
		assert.Equal(t, Geo{Lat: 30.2752, Lon: -98.8720}, markers[0].Geo)
		assert.Equal(t, Geo{Lat: 29.9, Lon: -98.9}, markers[1].Geo)
	})
}

func TestNormalize_GeocoderFallback(t *testing.T) {
	t.Run("geocodes rows without coordinates", func(t *testing.T) {
		geo := &mockGeocoder{result: GeocodingResult{Lat: 29.97, Lon: -98.90, PlaceName: "Comfort"}}
		rows := []RawRow{row(2, map[string]string{"Title": "German Freethinkers", "City": "Comfort"})}

		markers, report := newTestNormalizer(geo).Normalize(context.Background(), rows)

		require.Len(t, markers, 1)
		assert.Equal(t, GeoSourceGeocoded, markers[0].GeoSource)
		assert.Equal(t, Geo{Lat: 29.97, Lon: -98.90}, markers[0].Geo)
		assert.Equal(t, []string{"Comfort"}, geo.calls)
		assert.Equal(t, 1, report.Geocoded)
	})

	t.Run("not called when coordinates resolve", func(t *testing.T) {
		geo := &mockGeocoder{}
		rows := []RawRow{row(2, map[string]string{"Title": "German School", "City": "Comfort", "latitude": "29.9", "longitude": "-98.9"})}
		_, _ = newTestNormalizer(geo).Normalize(context.Background(), rows)
		assert.Empty(t, geo.calls)
	})

	t.Run("not called without a city", func(t *testing.T) {
		geo := &mockGeocoder{result: GeocodingResult{Lat: 30, Lon: -98}}
		rows := []RawRow{row(2, map[string]string{"Title": "German School"})}
		markers, _ := newTestNormalizer(geo).Normalize(context.Background(), rows)
		assert.Empty(t, markers)
		assert.Empty(t, geo.calls)
	})

	t.Run("provider error degrades to exclusion", func(t *testing.T) {
		geo := &mockGeocoder{err: errors.New("timeout")}
		rows := []RawRow{row(2, map[string]string{"Title": "German School", "City": "Comfort"})}
		results := newTestNormalizer(geo).Process(context.Background(), rows)
		assert.Equal(t, ExcludedUnresolvable, results[0].Excluded)
		assert.ErrorIs(t, results[0].Err, ErrNoCoordinates)
	})

	t.Run("empty result degrades to exclusion", func(t *testing.T) {
		geo := &mockGeocoder{}
		rows := []RawRow{row(2, map[string]string{"Title": "German School", "City": "Nowhere"})}
		markers, _ := newTestNormalizer(geo).Normalize(context.Background(), rows)
		assert.Empty(t, markers)
	})
}

func TestNormalize_DefaultsAndYears(t *testing.T) {
	rows := []RawRow{
		row(2, map[string]string{"Title": "German Cemetery", "Year": "1875.0", "latitude": "30", "longitude": "-98"}),
		row(3, map[string]string{"Title": "German Church", "Year": "ca. 1850", "latitude": "30", "longitude": "-98"}),
		row(4, map[string]string{"Title": "German Hall", "Year": "18750", "latitude": "30", "longitude": "-98"}),
	}

	markers, report := newTestNormalizer(nil).Normalize(context.Background(), rows)

	require.Len(t, markers, 3)
	assert.Equal(t, 1875, markers[0].Year)
	assert.Equal(t, DefaultCity, markers[0].City)
	assert.False(t, markers[1].HasYear())
	assert.False(t, markers[2].HasYear())
	assert.Equal(t, 2, report.UnknownYears)
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1875", 1875},
		{" 1936 ", 1936},
		{"1875.0", 1875},
		{"1875.5", 0},
		{"", 0},
		{"unknown", 0},
		{"-1850", 0},
		{"1400", 0},
		{"2101", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseYear(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	rows := []RawRow{
		row(2, map[string]string{"Title": "German School", "City": "Comfort", "Utm_East": "512345", "Utm_North": "3321000"}),
		row(3, map[string]string{"Title": "Verein Kirche", "City": testFbg, "latitude": "30.27", "longitude": "-98.87"}),
		row(4, map[string]string{"Title": "Verein Kirche", "City": testFbg, "latitude": "30.00", "longitude": "-98.00"}),
	}
	n := newTestNormalizer(nil)

	first, r1 := n.Normalize(context.Background(), rows)
	second, r2 := n.Normalize(context.Background(), rows)

	assert.Equal(t, first, second)
	assert.Equal(t, r1, r2)
}

func TestNormalize_EmptyKeywordSetRetainsNothing(t *testing.T) {
	n := NewNormalizer(Options{Projection: DefaultProjection}, nil, discardLogger())
	rows := []RawRow{row(2, map[string]string{"Title": "German School", "latitude": "30", "longitude": "-98"})}
	markers, report := n.Normalize(context.Background(), rows)
	assert.Empty(t, markers)
	assert.Equal(t, 1, report.Excluded[ExcludedOffTopic])
}

func TestMarkerID_Deterministic(t *testing.T) {
	assert.Equal(t, markerID(testVereinHall, testFbg), markerID(testVereinHall, testFbg))
	assert.NotEqual(t, markerID(testVereinHall, testFbg), markerID(testVereinHall, "Comfort"))
	assert.Len(t, markerID("a", "b"), 16)
}
