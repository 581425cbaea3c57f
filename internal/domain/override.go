package domain

// Override pins a known-mislocated marker to a corrected position.
type Override struct {
	TitleContains string // case-insensitive substring of the title
	City          string // exact city match; empty matches any city
	Geo           Geo
}

// DefaultOverrides corrects markers the export places far from their site.
// Titles are matched as spelled in the export.
var DefaultOverrides = []Override{
	{TitleContains: "Geroge Washington Savage", Geo: Geo{Lat: 31.9185, Lon: -96.8970}},
}

// Matches reports whether the override applies to a marker title and city.
func (o Override) Matches(title, city string) bool {
	if o.TitleContains == "" || !containsFold(title, o.TitleContains) {
		return false
	}
	return o.City == "" || o.City == city
}

// applyOverride returns the first override matching title and city.
func applyOverride(overrides []Override, title, city string) (Geo, bool) {
	for _, o := range overrides {
		if o.Matches(title, city) {
			return o.Geo, true
		}
	}
	return Geo{}, false
}
