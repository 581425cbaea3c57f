package domain

import (
	"maps"
	"slices"
	"strings"
)

// Canonical raw column names. Source adapters map header variants onto these.
const (
	ColTitle       = "Title"
	ColCity        = "City"
	ColCounty      = "County"
	ColDescription = "MarkerText"
	ColYear        = "Year"
	ColLatitude    = "latitude"
	ColLongitude   = "longitude"
	ColUTMEast     = "Utm_East"
	ColUTMNorth    = "Utm_North"
)

// DefaultCity is shown for markers whose export row has no city.
const DefaultCity = "Texas"

// NoDescription is shown for markers without inscription text.
const NoDescription = "No additional details available."

// RawRow is one unprocessed export row keyed by header name, as read from the
// source. Keys are not yet reconciled; see [ReconcileColumns].
type RawRow struct {
	Fields map[string]string
	Line   int // 1-based line in the source file, 0 when unknown
}

// Get returns the trimmed value for a column, or "" when absent.
func (r RawRow) Get(col string) string {
	return strings.TrimSpace(r.Fields[col])
}

// Columns lists the row's field names in sorted order.
func (r RawRow) Columns() []string {
	return slices.Sorted(maps.Keys(r.Fields))
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Coordinate sources recorded on each marker.
const (
	GeoSourceDirect   = "direct"
	GeoSourceUTM      = "utm"
	GeoSourceGeocoded = "geocoded"
	GeoSourceOverride = "override"
)

// Marker is a normalized heritage site record. Values are never mutated once
// they leave the normalizer.
type Marker struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	City        string `json:"city"`
	County      string `json:"county,omitempty"`
	Description string `json:"description,omitempty"`
	Year        int    `json:"year,omitempty"` // 0 means unknown
	Geo         Geo    `json:"geo"`
	GeoSource   string `json:"geo_source"`
	SourceLine  int    `json:"source_line,omitempty"`
}

// HasYear reports whether the establishment year is known.
func (m Marker) HasYear() bool {
	return m.Year != 0
}

// DisplayDescription returns the inscription, or a placeholder when empty.
func (m Marker) DisplayDescription() string {
	if m.Description == "" {
		return NoDescription
	}
	return m.Description
}

// ExclusionReason explains why a raw row did not become a marker.
type ExclusionReason string

const (
	ExcludedNone         ExclusionReason = ""
	ExcludedMissingTitle ExclusionReason = "missing_title"
	ExcludedDuplicate    ExclusionReason = "duplicate"
	ExcludedOffTopic     ExclusionReason = "off_topic"
	ExcludedUnresolvable ExclusionReason = "unresolvable"
)

// RecordResult is the per-row outcome of normalization.
type RecordResult struct {
	Line     int
	Marker   Marker
	Excluded ExclusionReason
	Err      error // resolution failure detail, when Excluded is unresolvable
}

// LoadReport aggregates record outcomes for one normalization pass.
type LoadReport struct {
	RowsRead         int                     `json:"rows_read"`
	Retained         int                     `json:"retained"`
	Excluded         map[ExclusionReason]int `json:"excluded"`
	UnknownYears     int                     `json:"unknown_years"`
	OverridesApplied int                     `json:"overrides_applied"`
	Geocoded         int                     `json:"geocoded"`
}

// ExcludedTotal sums exclusions across reasons.
func (r LoadReport) ExcludedTotal() int {
	n := 0
	for _, c := range r.Excluded {
		n += c
	}
	return n
}

func (r *LoadReport) exclude(reason ExclusionReason) {
	if r.Excluded == nil {
		r.Excluded = make(map[ExclusionReason]int)
	}
	r.Excluded[reason]++
}
