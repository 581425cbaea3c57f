// Package source reads the historical-marker export from file storage.
package source

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/couchcryptid/german-heritage-map/internal/domain"
)

// ErrSourceUnavailable means the export could not be read or parsed. It is
// the only load failure surfaced to users.
var ErrSourceUnavailable = errors.New("marker source unavailable")

// Supported file encodings.
const (
	EncodingLatin1 = "latin1"
	EncodingUTF8   = "utf8"
)

// Document is one read of the export file.
type Document struct {
	Path     string
	Digest   string // hex SHA-256 of the raw bytes
	Encoding string
	data     []byte
}

// Size returns the raw byte length.
func (d Document) Size() int {
	return len(d.data)
}

// File reads the export from the local filesystem.
type File struct {
	path     string
	encoding string
}

// NewFile creates a File source. An empty encoding means Latin-1.
func NewFile(path, enc string) *File {
	if enc == "" {
		enc = EncodingLatin1
	}
	return &File{path: path, encoding: enc}
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Extract reads the whole file and fingerprints it.
func (f *File) Extract(ctx context.Context) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return Document{}, fmt.Errorf("%w: read %s: %w", ErrSourceUnavailable, f.path, err)
	}
	return NewDocument(f.path, f.encoding, data), nil
}

// NewDocument wraps already-read export bytes.
func NewDocument(path, enc string, data []byte) Document {
	sum := sha256.Sum256(data)
	return Document{
		Path:     path,
		Digest:   hex.EncodeToString(sum[:]),
		Encoding: enc,
		data:     data,
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Rows decodes the document and returns one raw row per data line, keyed by
// header name. Blank lines are skipped. A leading UTF-8 byte order mark is
// dropped and the document is read as UTF-8 whatever its configured encoding.
func (d Document) Rows() ([]domain.RawRow, error) {
	enc, data := d.Encoding, d.data
	if bytes.HasPrefix(data, utf8BOM) {
		enc, data = EncodingUTF8, data[len(utf8BOM):]
	}
	dec, err := decoder(enc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, d.Path, err)
	}

	reader := csv.NewReader(transform.NewReader(bytes.NewReader(data), dec.NewDecoder()))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // allow ragged rows

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read header: %w", ErrSourceUnavailable, d.Path, err)
	}
	header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []domain.RawRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, d.Path, err)
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, toRawRow(header, record, line))
	}
}

// toRawRow pairs header names with values. Extra values without a header are
// dropped; missing trailing values are absent from the map.
func toRawRow(header, record []string, line int) domain.RawRow {
	fields := make(map[string]string, len(header))
	for i, name := range header {
		if i >= len(record) || name == "" {
			continue
		}
		fields[name] = strings.TrimSpace(record[i])
	}
	return domain.RawRow{Fields: fields, Line: line}
}

func decoder(enc string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(enc, "-", "")) {
	case EncodingLatin1, "iso88591", "":
		return charmap.ISO8859_1, nil
	case EncodingUTF8:
		// Strips a leading BOM, which spreadsheet exports often add.
		return unicode.UTF8BOM, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}
}
