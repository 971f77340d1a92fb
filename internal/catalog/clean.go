package catalog

import (
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/bookrec/internal/domain/book"
)

// Drop reasons reported in Stats.Dropped.
const (
	DropMissingField = "missing_field"
	DropBadYear      = "bad_year"
	DropYearRange    = "year_out_of_range"
	DropDuplicate    = "duplicate"
)

// RawRow is one catalog row before cleaning. All fields are as read.
type RawRow struct {
	Title     string
	Authors   string
	Year      string
	Publisher string
	ImageURL  string
}

// Stats summarises a load.
type Stats struct {
	Read    int
	Kept    int
	Dropped map[string]int
}

// Clean converts raw rows into records: rows missing title, authors or year
// are dropped, the year must be numeric with MinYear < year <= maxYear, and
// only the first of each (title, authors, year) triple is kept.
func Clean(rows []RawRow, maxYear int) ([]book.Record, Stats) {
	if maxYear <= 0 {
		maxYear = book.DefaultMaxYear
	}
	stats := Stats{Read: len(rows), Dropped: map[string]int{}}
	seen := make(map[string]struct{}, len(rows))
	out := make([]book.Record, 0, len(rows))

	for _, row := range rows {
		title := strings.TrimSpace(row.Title)
		authors := strings.TrimSpace(row.Authors)
		if title == "" || authors == "" || strings.TrimSpace(row.Year) == "" {
			stats.Dropped[DropMissingField]++
			continue
		}
		year, ok := parseYear(row.Year)
		if !ok {
			stats.Dropped[DropBadYear]++
			continue
		}
		if year <= book.MinYear || year > maxYear {
			stats.Dropped[DropYearRange]++
			continue
		}
		key := book.NaturalKey(title, authors, year)
		if _, dup := seen[key]; dup {
			stats.Dropped[DropDuplicate]++
			continue
		}

		rec, err := book.New(title, authors, year, row.Publisher, row.ImageURL, len(out))
		if err != nil {
			stats.Dropped[DropMissingField]++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}

	stats.Kept = len(out)
	return out, stats
}

// parseYear accepts integer and float forms ("1999", "1999.0"); fractional
// years are truncated before any range check.
func parseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}
