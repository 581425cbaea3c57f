package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"strings"
)

// Plausible establishment years. Values outside this range become unknown.
const (
	MinPlausibleYear = 1500
	MaxPlausibleYear = 2100
)

// geocodeRegion scopes city-level fallback geocoding to the state.
const geocodeRegion = "Texas"

// columnAliases maps lower-cased header spellings onto canonical columns.
var columnAliases = map[string]string{
	"title":       ColTitle,
	"city":        ColCity,
	"county":      ColCounty,
	"markertext":  ColDescription,
	"markertex":   ColDescription,
	"marker_text": ColDescription,
	"year":        ColYear,
	"latitude":    ColLatitude,
	"longitude":   ColLongitude,
	"utm_east":    ColUTMEast,
	"utm_north":   ColUTMNorth,
}

// Options holds the fixed normalization tables.
type Options struct {
	Keywords   []string
	Projection Projection
	Overrides  []Override
}

// DefaultOptions returns the tables used for the Texas marker export.
func DefaultOptions() Options {
	return Options{
		Keywords:   slices.Clone(DefaultKeywords),
		Projection: DefaultProjection,
		Overrides:  slices.Clone(DefaultOverrides),
	}
}

// Normalizer converts raw export rows into markers. Every stage is total:
// a bad row is excluded with a reason, it never aborts the batch.
type Normalizer struct {
	keywords  *regexp.Regexp
	resolver  *Resolver
	overrides []Override
	geocoder  Geocoder
	logger    *slog.Logger
}

// NewNormalizer creates a Normalizer. Pass a nil geocoder to disable the
// city-level fallback for rows without coordinates.
func NewNormalizer(opts Options, geocoder Geocoder, logger *slog.Logger) *Normalizer {
	return &Normalizer{
		keywords:  KeywordPattern(opts.Keywords),
		resolver:  NewResolver(opts.Projection),
		overrides: slices.Clone(opts.Overrides),
		geocoder:  geocoder,
		logger:    logger,
	}
}

// Normalize runs all stages and returns the retained markers in source order
// together with the aggregate report.
func (n *Normalizer) Normalize(ctx context.Context, rows []RawRow) ([]Marker, LoadReport) {
	return Summarize(n.Process(ctx, rows))
}

// Process returns one result per input row, in input order.
func (n *Normalizer) Process(ctx context.Context, rows []RawRow) []RecordResult {
	type identity struct{ title, city string }

	results := make([]RecordResult, len(rows))
	seen := make(map[identity]struct{}, len(rows))

	for i, raw := range rows {
		row := ReconcileColumns(raw)
		res := RecordResult{Line: raw.Line}

		title := row.Get(ColTitle)
		if title == "" {
			res.Excluded = ExcludedMissingTitle
			results[i] = n.excluded(res)
			continue
		}

		city := row.Get(ColCity)
		key := identity{title: title, city: city}
		if _, dup := seen[key]; dup {
			res.Excluded = ExcludedDuplicate
			results[i] = n.excluded(res)
			continue
		}
		seen[key] = struct{}{}

		description := row.Get(ColDescription)
		if !n.onTopic(title, description) {
			res.Excluded = ExcludedOffTopic
			results[i] = n.excluded(res)
			continue
		}

		m := Marker{
			ID:          markerID(title, city),
			Title:       title,
			City:        city,
			County:      row.Get(ColCounty),
			Description: description,
			SourceLine:  raw.Line,
		}
		if m.City == "" {
			m.City = DefaultCity
		}

		// Rows matching an override skip the resolver and geocoder.
		var err error
		if fixed, ok := applyOverride(n.overrides, m.Title, m.City); ok {
			m.Geo, m.GeoSource = fixed, GeoSourceOverride
		} else {
			m.Geo, m.GeoSource, err = n.resolve(ctx, row, city)
		}

		m.Year = parseYear(row.Get(ColYear))

		if err != nil {
			res.Excluded = ExcludedUnresolvable
			res.Err = err
			results[i] = n.excluded(res)
			continue
		}

		res.Marker = m
		results[i] = res
	}

	return results
}

// Summarize collects retained markers and tallies outcomes.
func Summarize(results []RecordResult) ([]Marker, LoadReport) {
	report := LoadReport{RowsRead: len(results), Excluded: make(map[ExclusionReason]int)}
	markers := make([]Marker, 0, len(results))

	for _, res := range results {
		if res.Excluded != ExcludedNone {
			report.exclude(res.Excluded)
			continue
		}
		markers = append(markers, res.Marker)
		if !res.Marker.HasYear() {
			report.UnknownYears++
		}
		switch res.Marker.GeoSource {
		case GeoSourceOverride:
			report.OverridesApplied++
		case GeoSourceGeocoded:
			report.Geocoded++
		}
	}
	report.Retained = len(markers)
	return markers, report
}

// ReconcileColumns maps known header variants onto canonical column names.
// A canonical column already holding a value is never overwritten by an alias.
func ReconcileColumns(row RawRow) RawRow {
	out := make(map[string]string, len(row.Fields))
	var aliased []string

	for k, v := range row.Fields {
		canon, ok := columnAliases[strings.ToLower(strings.TrimSpace(k))]
		switch {
		case !ok:
			out[k] = v
		case k == canon:
			out[canon] = v
		default:
			aliased = append(aliased, k)
		}
	}

	// Sorted so the winner among several aliases does not depend on map order.
	slices.Sort(aliased)
	for _, k := range aliased {
		canon := columnAliases[strings.ToLower(strings.TrimSpace(k))]
		if strings.TrimSpace(out[canon]) == "" {
			out[canon] = row.Fields[k]
		}
	}

	return RawRow{Fields: out, Line: row.Line}
}

func (n *Normalizer) onTopic(title, description string) bool {
	if n.keywords == nil {
		return false
	}
	return n.keywords.MatchString(title) || n.keywords.MatchString(description)
}

// resolve runs the coordinate resolver, then the optional city geocoder for
// rows the resolver could not place.
func (n *Normalizer) resolve(ctx context.Context, row RawRow, city string) (Geo, string, error) {
	geo, source, err := n.resolver.Resolve(row)
	if err == nil || n.geocoder == nil || city == "" {
		return geo, source, err
	}
	return n.geocode(ctx, city, err)
}

// geocode falls back to the city centroid. The resolver error is
// kept when the provider fails or finds nothing.
func (n *Normalizer) geocode(ctx context.Context, city string, cause error) (Geo, string, error) {
	result, err := n.geocoder.ForwardGeocode(ctx, city, geocodeRegion)
	if err != nil {
		n.logger.Debug("city geocoding failed", "city", city, "error", err)
		return Geo{}, "", cause
	}
	geo := Geo{Lat: result.Lat, Lon: result.Lon}
	if (geo.Lat == 0 && geo.Lon == 0) || !validGeo(geo) {
		return Geo{}, "", cause
	}
	return geo, GeoSourceGeocoded, nil
}

func (n *Normalizer) excluded(res RecordResult) RecordResult {
	n.logger.Debug("record excluded", "line", res.Line, "reason", res.Excluded, "error", res.Err)
	return res
}

// parseYear returns an integral year in the plausible range, or 0 (unknown).
// Float-formatted values such as "1875.0" are accepted.
func parseYear(s string) int {
	v, err := parseFinite(s)
	if err != nil || v != math.Trunc(v) {
		return 0
	}
	if v < MinPlausibleYear || v > MaxPlausibleYear {
		return 0
	}
	return int(v)
}

// markerID produces a deterministic ID from the marker's identity.
// Reloading the same export yields the same IDs.
func markerID(title, city string) string {
	hash := sha256.Sum256([]byte(title + "|" + city))
	return hex.EncodeToString(hash[:8])
}
