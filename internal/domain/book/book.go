package book

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// CompositeVersion identifies the composite text layout. Bump it whenever
// CompositeText changes so cached vectors are invalidated.
const CompositeVersion = "v1"

// UnknownPublisher is substituted for an empty publisher.
const UnknownPublisher = "Unknown"

// Year bounds: MinYear is exclusive, DefaultMaxYear inclusive.
const (
	MinYear        = 1800
	DefaultMaxYear = 2025
)

var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/kailas-cloud/bookrec/book"))

// Record is an immutable catalog entry.
type Record struct {
	id        string
	title     string
	authors   string
	year      int
	publisher string
	imageURL  string
	position  int
}

// New validates and creates a Record. Publisher falls back to "Unknown".
// The year upper bound is enforced by the catalog loader, not here.
func New(title, authors string, year int, publisher, imageURL string, position int) (Record, error) {
	title = strings.TrimSpace(title)
	authors = strings.TrimSpace(authors)
	if title == "" {
		return Record{}, fmt.Errorf("title is required")
	}
	if authors == "" {
		return Record{}, fmt.Errorf("authors is required")
	}
	if year <= MinYear {
		return Record{}, fmt.Errorf("year must be greater than %d, got %d", MinYear, year)
	}
	if position < 0 {
		return Record{}, fmt.Errorf("position must be non-negative")
	}
	publisher = strings.TrimSpace(publisher)
	if publisher == "" {
		publisher = UnknownPublisher
	}

	return Record{
		id:        RecordID(title, authors, year),
		title:     title,
		authors:   authors,
		year:      year,
		publisher: publisher,
		imageURL:  strings.TrimSpace(imageURL),
		position:  position,
	}, nil
}

// Reconstruct creates a Record from an index payload without validation.
// The id is taken as stored.
func Reconstruct(id, title, authors string, year int, publisher, imageURL string, position int) Record {
	return Record{
		id: id, title: title, authors: authors, year: year,
		publisher: publisher, imageURL: imageURL, position: position,
	}
}

// RecordID derives the stable record id from the natural key.
func RecordID(title, authors string, year int) string {
	return uuid.NewSHA1(namespace, []byte(NaturalKey(title, authors, year))).String()
}

// NaturalKey joins the identifying fields with a unit separator.
func NaturalKey(title, authors string, year int) string {
	return title + "\x1f" + authors + "\x1f" + strconv.Itoa(year)
}

// ID returns the record id.
func (r *Record) ID() string { return r.id }

// Title returns the book title.
func (r *Record) Title() string { return r.title }

// Authors returns the comma-joined display form of the authors.
func (r *Record) Authors() string { return r.authors }

// Year returns the publication year.
func (r *Record) Year() int { return r.year }

// Publisher returns the publisher.
func (r *Record) Publisher() string { return r.publisher }

// ImageURL returns the cover image URL, possibly empty.
func (r *Record) ImageURL() string { return r.imageURL }

// Position returns the load order index.
func (r *Record) Position() int { return r.position }

// CompositeText is the embedding input. Pure function of title, authors,
// year and publisher.
func (r *Record) CompositeText() string {
	return fmt.Sprintf("Title: %s. Author: %s. Published: %d. Publisher: %s.",
		r.title, r.authors, r.year, r.publisher)
}

// Describe formats the record as "{title} by {authors} ({year})".
func (r *Record) Describe() string {
	return fmt.Sprintf("%s by %s (%d)", r.title, r.authors, r.year)
}

// FoldedTitle returns the case-folded title used for dedup.
func (r *Record) FoldedTitle() string { return Fold(r.title) }

// FoldedAuthors returns the case-folded authors string.
func (r *Record) FoldedAuthors() string { return Fold(r.authors) }

// Fold lowercases s. No whitespace or ordering normalization is applied.
func Fold(s string) string { return strings.ToLower(s) }

// Neighbor is an index hit: the payload snapshot and its cosine similarity
// to the query vector.
type Neighbor struct {
	Record Record
	Score  float64
}
