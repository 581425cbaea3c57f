package domain

import (
	"regexp"
	"strings"
)

// DefaultKeywords separate German-heritage markers from the general corpus.
var DefaultKeywords = []string{"German", "Verein", "Prussia", "Deutsch", "Adelsverein", "Liederkranz", "Alsatian"}

// CategoryAll disables the category filter.
const CategoryAll = "All"

// Categories is the category vocabulary offered to map users.
var Categories = []string{"Dance Hall", "School", "Church", "Cemetery", "Verein", "Saloon", "Store"}

// Pin colors for the map layer.
const (
	ColorRed    = "red"
	ColorPurple = "purple"
	ColorGreen  = "green"
	ColorGray   = "gray"
	ColorBlue   = "blue"
)

// pinColors is evaluated in order; the first keyword found wins.
var pinColors = []struct {
	keyword string
	color   string
}{
	{"dance", ColorRed},
	{"church", ColorPurple},
	{"school", ColorGreen},
	{"cemetery", ColorGray},
}

// PinColor picks the map pin color from the marker's title and inscription.
func PinColor(m Marker) string {
	text := strings.ToLower(m.Title + " " + m.Description)
	for _, pc := range pinColors {
		if strings.Contains(text, pc.keyword) {
			return pc.color
		}
	}
	return ColorBlue
}

// KeywordPattern builds one case-insensitive alternation over the keywords.
// It returns nil when no non-blank keyword is given.
func KeywordPattern(keywords []string) *regexp.Regexp {
	quoted := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			quoted = append(quoted, regexp.QuoteMeta(k))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)` + strings.Join(quoted, "|"))
}

// containsFold reports whether substr is within s, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
