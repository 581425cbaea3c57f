// Package store holds the normalized marker collection for one load.
package store

import (
	"maps"
	"slices"
	"time"

	"github.com/couchcryptid/german-heritage-map/internal/domain"
)

// Meta describes the load that produced a store.
type Meta struct {
	Digest   string // content digest of the source file
	LoadedAt time.Time
	Report   domain.LoadReport
}

// Store is an immutable marker collection. A reload builds a new Store; an
// existing one is never modified, so it is safe for concurrent readers.
type Store struct {
	markers []domain.Marker
	meta    Meta
}

// New creates a Store holding a copy of markers in their given order.
func New(markers []domain.Marker, meta Meta) *Store {
	meta.Report.Excluded = maps.Clone(meta.Report.Excluded)
	return &Store{
		markers: slices.Clone(markers),
		meta:    meta,
	}
}

// All returns a copy of every marker in insertion order.
func (s *Store) All() []domain.Marker {
	return slices.Clone(s.markers)
}

// Count returns the number of markers.
func (s *Store) Count() int {
	return len(s.markers)
}

// Query returns the markers matching q and the match count before q.Limit.
func (s *Store) Query(q domain.Query) ([]domain.Marker, int) {
	return domain.FilterCount(s.markers, q)
}

// Select runs q and summarizes every match, not only those under the limit.
func (s *Store) Select(q domain.Query) domain.Result {
	return domain.Select(s.markers, q)
}

// Digest returns the content digest of the source this store was built from.
func (s *Store) Digest() string {
	return s.meta.Digest
}

// LoadedAt returns when the store was built.
func (s *Store) LoadedAt() time.Time {
	return s.meta.LoadedAt
}

// Report returns the normalization report for this store's load.
func (s *Store) Report() domain.LoadReport {
	r := s.meta.Report
	r.Excluded = maps.Clone(r.Excluded)
	return r
}
