package domain

// NotAvailable is reported for summaries over empty result sets.
const NotAvailable = "N/A"

// MapView is the initial map camera.
type MapView struct {
	Center Geo `json:"center"`
	Zoom   int `json:"zoom"`
}

// DefaultView centers the map on the Hill Country.
var DefaultView = MapView{Center: Geo{Lat: 30.27, Lon: -98.87}, Zoom: 7}

// TopCounty returns the most frequent non-empty county among markers.
// Ties go to the alphabetically first county.
func TopCounty(markers []Marker) string {
	counts := make(map[string]int)
	for _, m := range markers {
		tallyCounty(counts, m)
	}
	return topCounty(counts)
}

func tallyCounty(counts map[string]int, m Marker) {
	if m.County != "" {
		counts[m.County]++
	}
}

func topCounty(counts map[string]int) string {
	top, best := NotAvailable, 0
	for county, n := range counts {
		if n > best || (n == best && county < top) {
			top, best = county, n
		}
	}
	return top
}
