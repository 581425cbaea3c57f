package domain

import "strings"

// YearRange bounds establishment years, inclusive on both ends.
type YearRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DefaultYearRange spans the settlement era through the present map data.
var DefaultYearRange = YearRange{Min: 1800, Max: 2024}

// Contains reports whether a marker year falls in the range. Unknown years
// (zero) are always contained so undated sites stay discoverable.
func (r YearRange) Contains(year int) bool {
	if year == 0 {
		return true
	}
	return r.Min <= year && year <= r.Max
}

// DefaultResultLimit caps how many markers a query returns unless configured
// otherwise.
const DefaultResultLimit = 2000

// Query selects markers. The zero Category and Search match everything; a
// Limit of zero or less returns every match.
type Query struct {
	Years    YearRange
	Category string
	Search   string
	Limit    int
}

// Match reports whether a marker satisfies every active predicate. A
// whitespace-only Category or Search is inactive; otherwise the term is
// matched as given, surrounding spaces included.
func (q Query) Match(m Marker) bool {
	if !q.Years.Contains(m.Year) {
		return false
	}
	if c := q.Category; !blank(c) && !strings.EqualFold(strings.TrimSpace(c), CategoryAll) {
		if !containsFold(m.Title, c) && !containsFold(m.Description, c) {
			return false
		}
	}
	if s := q.Search; !blank(s) && !containsFold(m.Title, s) {
		return false
	}
	return true
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Result is a query outcome. Total and TopCounty cover every match, not just
// the markers kept under the limit.
type Result struct {
	Markers   []Marker
	Total     int
	TopCounty string
}

// Select runs q over markers in input order. The input slice is never
// modified.
func Select(markers []Marker, q Query) Result {
	out := make([]Marker, 0)
	counties := make(map[string]int)
	total := 0
	for _, m := range markers {
		if !q.Match(m) {
			continue
		}
		total++
		tallyCounty(counties, m)
		if q.Limit <= 0 || len(out) < q.Limit {
			out = append(out, m)
		}
	}
	return Result{Markers: out, Total: total, TopCounty: topCounty(counties)}
}

// Filter returns the markers matching q, in input order, capped at q.Limit.
// The input slice is never modified.
func Filter(markers []Marker, q Query) []Marker {
	out, _ := FilterCount(markers, q)
	return out
}

// FilterCount is Filter that also reports how many markers matched before
// the limit was applied.
func FilterCount(markers []Marker, q Query) ([]Marker, int) {
	r := Select(markers, q)
	return r.Markers, r.Total
}
