// Package catalog holds the in-memory book catalog: loading, cleaning and
// seed lookup. A Store is read-only once built.
package catalog

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/bookrec/internal/domain"
	"github.com/kailas-cloud/bookrec/internal/domain/book"
)

// Store is an immutable, load-ordered snapshot of the catalog.
type Store struct {
	records     []book.Record
	foldedTitle []string
	fingerprint string
}

// NewStore builds a Store from records in load order.
func NewStore(records []book.Record) *Store {
	folded := make([]string, len(records))
	for i := range records {
		folded[i] = records[i].FoldedTitle()
	}
	return &Store{
		records:     records,
		foldedTitle: folded,
		fingerprint: Fingerprint(records),
	}
}

// FindSeed returns the first record in load order whose title contains
// query, compared case-insensitively. Matches are not ranked by relevance.
func (s *Store) FindSeed(query string) (book.Record, error) {
	q := strings.ToLower(query)
	for i, t := range s.foldedTitle {
		if strings.Contains(t, q) {
			return s.records[i], nil
		}
	}
	return book.Record{}, fmt.Errorf("%w: no title contains %q", domain.ErrBookNotFound, query)
}

// Len returns the number of books loaded.
func (s *Store) Len() int { return len(s.records) }

// All returns the records in load order. Callers must not modify the slice.
func (s *Store) All() []book.Record { return s.records }

// Texts returns the composite texts in load order.
func (s *Store) Texts() []string {
	out := make([]string, len(s.records))
	for i := range s.records {
		out[i] = s.records[i].CompositeText()
	}
	return out
}

// Fingerprint returns the content hash of the snapshot.
func (s *Store) Fingerprint() string { return s.fingerprint }
