// Command validate performs data integrity checks on a marker export: it runs
// the normalization pipeline and verifies the load report, marker identity,
// coordinates, domain filter, years, and query behavior against the result.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -source data/german_sites_full.csv \
//	  -encoding latin1
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/couchcryptid/german-heritage-map/internal/domain"
	"github.com/couchcryptid/german-heritage-map/internal/source"
)

// Generous Texas bounding box; markers outside it are reported, not dropped.
const (
	texasMinLat = 25.8
	texasMaxLat = 36.6
	texasMinLon = -106.7
	texasMaxLon = -93.5
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	sourcePath := flag.String("source", "data/german_sites_full.csv", "path to the marker CSV export")
	encoding := flag.String("encoding", source.EncodingLatin1, "source encoding: latin1 or utf8")
	flag.Parse()

	if code := run(*sourcePath, *encoding, os.Stdout); code != 0 {
		os.Exit(code)
	}
}

func run(sourcePath, encoding string, out io.Writer) int {
	fmt.Fprintln(out, "=== Heritage Marker Integrity Validation ===")
	fmt.Fprintln(out)

	doc, err := source.NewFile(sourcePath, encoding).Extract(context.Background())
	if err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return 1
	}
	rows, err := doc.Rows()
	if err != nil {
		fmt.Fprintf(out, "FATAL: %v\n", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := domain.DefaultOptions()
	markers, report := domain.NewNormalizer(opts, nil, logger).Normalize(context.Background(), rows)

	phases := []*phase{
		validateReport(report, len(rows), markers),
		validateIdentity(markers),
		validateCoordinates(markers),
		validateDomainFilter(markers, opts.Keywords),
		validateYears(markers),
		validateQueries(markers),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Rows: %d read, %d retained, %d excluded (missing title %d, duplicate %d, off topic %d, unresolvable %d)\n",
		report.RowsRead, report.Retained, report.ExcludedTotal(),
		report.Excluded[domain.ExcludedMissingTitle], report.Excluded[domain.ExcludedDuplicate],
		report.Excluded[domain.ExcludedOffTopic], report.Excluded[domain.ExcludedUnresolvable])
	fmt.Fprintf(out, "Unknown years: %d, overrides applied: %d, top county: %s\n",
		report.UnknownYears, report.OverridesApplied, domain.TopCounty(markers))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// ── Phase 1: Load report ──

func validateReport(report domain.LoadReport, rows int, markers []domain.Marker) *phase {
	p := &phase{name: "Phase 1: Load Report (row accounting)"}

	if report.RowsRead != rows {
		p.errorf("rows read: report says %d, source has %d", report.RowsRead, rows)
	}
	if report.Retained != len(markers) {
		p.errorf("retained: report says %d, got %d markers", report.Retained, len(markers))
	}
	if report.Retained+report.ExcludedTotal() != report.RowsRead {
		p.errorf("retained %d + excluded %d != rows read %d", report.Retained, report.ExcludedTotal(), report.RowsRead)
	}

	unknown := 0
	for i := range markers {
		if !markers[i].HasYear() {
			unknown++
		}
	}
	if unknown != report.UnknownYears {
		p.errorf("unknown years: report says %d, counted %d", report.UnknownYears, unknown)
	}
	return p
}

// ── Phase 2: Identity ──

func validateIdentity(markers []domain.Marker) *phase {
	p := &phase{name: "Phase 2: Identity (unique title, city)"}

	seenKeys := map[[2]string]int{}
	seenIDs := map[string]int{}
	for i := range markers {
		m := &markers[i]
		if m.Title == "" {
			p.errorf("line %d: empty title", m.SourceLine)
		}
		if m.City == "" {
			p.errorf("line %d: empty city", m.SourceLine)
		}
		key := [2]string{m.Title, m.City}
		if first, ok := seenKeys[key]; ok {
			p.errorf("line %d: duplicate (%q, %q), first seen on line %d", m.SourceLine, m.Title, m.City, first)
		}
		seenKeys[key] = m.SourceLine
		if first, ok := seenIDs[m.ID]; ok {
			p.errorf("line %d: ID %s collides with line %d", m.SourceLine, m.ID, first)
		}
		seenIDs[m.ID] = m.SourceLine
	}
	return p
}

// ── Phase 3: Coordinates ──

func validateCoordinates(markers []domain.Marker) *phase {
	p := &phase{name: "Phase 3: Coordinates (finite, in Texas)"}

	for i := range markers {
		m := &markers[i]
		lat, lon := m.Geo.Lat, m.Geo.Lon
		if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
			p.errorf("line %d (%s): non-finite coordinates", m.SourceLine, m.Title)
			continue
		}
		if lat < texasMinLat || lat > texasMaxLat || lon < texasMinLon || lon > texasMaxLon {
			p.errorf("line %d (%s): %.5f, %.5f outside Texas (source %s)", m.SourceLine, m.Title, lat, lon, m.GeoSource)
		}
	}
	return p
}

// ── Phase 4: Domain filter ──

func validateDomainFilter(markers []domain.Marker, keywords []string) *phase {
	p := &phase{name: "Phase 4: Domain Filter (keyword match)"}

	pattern := domain.KeywordPattern(keywords)
	for i := range markers {
		m := &markers[i]
		if pattern == nil || (!pattern.MatchString(m.Title) && !pattern.MatchString(m.Description)) {
			p.errorf("line %d (%s): no heritage keyword in title or description", m.SourceLine, m.Title)
		}
	}
	return p
}

// ── Phase 5: Years ──

func validateYears(markers []domain.Marker) *phase {
	p := &phase{name: "Phase 5: Years (plausible or unknown)"}

	for i := range markers {
		m := &markers[i]
		if m.HasYear() && (m.Year < domain.MinPlausibleYear || m.Year > domain.MaxPlausibleYear) {
			p.errorf("line %d (%s): implausible year %d", m.SourceLine, m.Title, m.Year)
		}
	}
	return p
}

// ── Phase 6: Queries ──

func validateQueries(markers []domain.Marker) *phase {
	p := &phase{name: "Phase 6: Queries (subset, narrowing)"}

	base := domain.Query{Years: domain.DefaultYearRange, Category: domain.CategoryAll}
	all, total := domain.FilterCount(markers, base)
	if len(all) != total {
		p.errorf("uncapped query: %d shown, %d total", len(all), total)
	}

	for _, category := range domain.Categories {
		narrowed := base
		narrowed.Category = category
		got := domain.Filter(markers, narrowed)
		if len(got) > len(all) {
			p.errorf("category %q: %d results exceeds unfiltered %d", category, len(got), len(all))
		}
		for i := range got {
			if !narrowed.Match(got[i]) {
				p.errorf("category %q: result %s does not satisfy the query", category, got[i].ID)
			}
		}
	}

	capped := base
	capped.Limit = 1
	if got, n := domain.FilterCount(markers, capped); len(got) > 1 || n != total {
		p.errorf("limit 1: %d shown, %d total (want <=1, %d)", len(got), n, total)
	}
	return p
}
