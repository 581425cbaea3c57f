// Package domain models Texas Historical Commission marker records and the
// German-heritage subset this service maps.
//
// # Data Source
//
// Records come from a Texas Historic Sites Atlas marker export: one delimited
// row per marker, Latin-1 encoded, with the columns listed below. The export
// is a general historical-marker corpus; the German-heritage subset is carved
// out by the keyword filter described under "Domain filter".
//
// # Column Conventions
//
//	Title       marker title, required
//	City        nearest city, may be blank ("Texas" is displayed instead)
//	County      county name, may be blank
//	MarkerText  inscription text; older exports spell it "MarkerTex" or "marker_text"
//	Year        year the marker or site was established, free text
//	latitude    WGS-84 degrees, present on newer rows only
//	longitude   WGS-84 degrees, present on newer rows only
//	Utm_East    UTM easting in meters
//	Utm_North   UTM northing in meters
//
// Coordinates:
//
//	Newer rows carry latitude/longitude directly. Older rows only carry UTM
//	easting/northing, always in zone 14, band R (central Texas). Direct
//	coordinates win whenever both are present. See [Resolver].
//
// Year encoding:
//
//	Mostly four-digit integers, sometimes float-formatted ("1875.0") and
//	sometimes prose ("ca. 1850", "unknown"). Anything that is not an integral
//	value in [MinPlausibleYear, MaxPlausibleYear] becomes unknown, stored as
//	zero. Unknown years match every year range.
//
// # Domain filter
//
// A record is German heritage when its title or inscription contains one of
// [DefaultKeywords], case-insensitively. The heuristic over-includes a little
// ("Germantown") and under-includes sites whose inscription never names the
// community, which is acceptable for a discovery map.
//
// # Manual overrides
//
// A handful of markers are geocoded far from their site in the export. The
// [DefaultOverrides] table pins them to surveyed positions; overrides run
// after coordinate resolution and always win.
//
// # Identity
//
// (Title, City) identifies a marker. The first row wins when the export
// repeats a pair. Marker IDs are deterministic SHA-256 prefixes of that pair.
// See [markerID].
package domain
