// Command query loads a marker export and prints the filtered markers as
// JSON or GeoJSON, using the same normalization and filtering as the service.
//
// Usage:
//
//	go run ./cmd/query \
//	  -source data/german_sites_full.csv \
//	  -min-year 1840 -max-year 1860 \
//	  -category Church \
//	  -format geojson > markers.geojson
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/couchcryptid/german-heritage-map/internal/adapter/geojson"
	"github.com/couchcryptid/german-heritage-map/internal/domain"
	"github.com/couchcryptid/german-heritage-map/internal/source"
)

type options struct {
	source   string
	encoding string
	query    domain.Query
	format   string
	verbose  bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	doc, err := source.NewFile(opts.source, opts.encoding).Extract(context.Background())
	if err != nil {
		return err
	}
	rows, err := doc.Rows()
	if err != nil {
		return err
	}

	markers, report := domain.NewNormalizer(domain.DefaultOptions(), nil, logger).Normalize(context.Background(), rows)
	res := domain.Select(markers, opts.query)

	fmt.Fprintf(stderr, "%d rows, %d markers, %d excluded; %d match, %d shown, top county %s\n",
		report.RowsRead, report.Retained, report.ExcludedTotal(), res.Total, len(res.Markers), res.TopCounty)

	return write(stdout, opts.format, res.Markers)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.source, "source", "data/german_sites_full.csv", "path to the marker CSV export")
	fs.StringVar(&opts.encoding, "encoding", source.EncodingLatin1, "source encoding: latin1 or utf8")
	fs.IntVar(&opts.query.Years.Min, "min-year", domain.DefaultYearRange.Min, "earliest establishment year")
	fs.IntVar(&opts.query.Years.Max, "max-year", domain.DefaultYearRange.Max, "latest establishment year")
	fs.StringVar(&opts.query.Category, "category", domain.CategoryAll, "category keyword, or All")
	fs.StringVar(&opts.query.Search, "q", "", "title search text")
	fs.IntVar(&opts.query.Limit, "limit", domain.DefaultResultLimit, "maximum markers to print; 0 for no cap")
	fs.StringVar(&opts.format, "format", "json", "output format: json or geojson")
	fs.BoolVar(&opts.verbose, "v", false, "log excluded rows")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if opts.format != "json" && opts.format != "geojson" {
		return options{}, fmt.Errorf("unknown -format %q: want json or geojson", opts.format)
	}
	return opts, nil
}

func write(w io.Writer, format string, markers []domain.Marker) error {
	var (
		data []byte
		err  error
	)
	if format == "geojson" {
		data, err = geojson.Marshal(markers)
	} else {
		data, err = json.MarshalIndent(markers, "", "  ")
	}
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
