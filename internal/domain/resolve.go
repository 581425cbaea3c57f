package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/im7mortal/UTM"
)

// ErrNoCoordinates means a row carries neither direct nor projected coordinates.
var ErrNoCoordinates = errors.New("no coordinate source")

// Projection identifies the UTM zone used by projected export rows.
type Projection struct {
	Zone       int    // 1-60
	ZoneLetter string // latitude band, C-X; N and above is the northern hemisphere
}

// DefaultProjection is the zone every projected row in the Texas export uses.
var DefaultProjection = Projection{Zone: 14, ZoneLetter: "R"}

// Resolver turns a reconciled raw row into geographic coordinates.
type Resolver struct {
	proj Projection
}

// NewResolver creates a Resolver for the given projection.
func NewResolver(proj Projection) *Resolver {
	return &Resolver{proj: proj}
}

// Resolve returns the row's position and the coordinate source used.
// Direct latitude/longitude always take precedence over UTM fields.
func (r *Resolver) Resolve(row RawRow) (Geo, string, error) {
	if geo, ok := directCoordinates(row); ok {
		return geo, GeoSourceDirect, nil
	}

	east, north := row.Get(ColUTMEast), row.Get(ColUTMNorth)
	if east == "" || north == "" {
		return Geo{}, "", ErrNoCoordinates
	}

	e, err := parseFinite(east)
	if err != nil {
		return Geo{}, "", fmt.Errorf("parse easting %q: %w", east, err)
	}
	n, err := parseFinite(north)
	if err != nil {
		return Geo{}, "", fmt.Errorf("parse northing %q: %w", north, err)
	}

	geo, err := r.fromUTM(e, n)
	if err != nil {
		return Geo{}, "", err
	}
	return geo, GeoSourceUTM, nil
}

func (r *Resolver) fromUTM(easting, northing float64) (Geo, error) {
	lat, lon, err := UTM.ToLatLon(easting, northing, r.proj.Zone, r.proj.ZoneLetter)
	if err != nil {
		return Geo{}, fmt.Errorf("utm zone %d%s: %w", r.proj.Zone, r.proj.ZoneLetter, err)
	}
	geo := Geo{Lat: lat, Lon: lon}
	if !validGeo(geo) {
		return Geo{}, fmt.Errorf("utm zone %d%s: result %.6f,%.6f out of range", r.proj.Zone, r.proj.ZoneLetter, lat, lon)
	}
	return geo, nil
}

// directCoordinates returns the row's latitude/longitude when both parse as
// finite, in-range degrees.
func directCoordinates(row RawRow) (Geo, bool) {
	lat, errLat := parseFinite(row.Get(ColLatitude))
	lon, errLon := parseFinite(row.Get(ColLongitude))
	if errLat != nil || errLon != nil {
		return Geo{}, false
	}
	geo := Geo{Lat: lat, Lon: lon}
	return geo, validGeo(geo)
}

func validGeo(g Geo) bool {
	return g.Lat >= -90 && g.Lat <= 90 && g.Lon >= -180 && g.Lon <= 180
}

// parseFinite parses s as a float64, rejecting blanks, NaN, and infinities.
func parseFinite(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}
