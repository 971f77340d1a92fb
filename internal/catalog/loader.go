package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrec/internal/metrics"
)

// Supported catalog formats.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// Options controls how a catalog file is read and cleaned.
type Options struct {
	Path      string
	Format    string // csv, parquet; empty selects by extension
	Delimiter rune   // csv only; zero means ','
	MaxYear   int    // inclusive upper bound; zero means book.DefaultMaxYear
}

// Load reads, cleans and snapshots the catalog file.
func Load(opts Options, log *zap.Logger) (*Store, Stats, error) {
	start := time.Now()
	format := opts.Format
	if format == "" {
		format = formatFromExt(opts.Path)
	}

	var (
		rows []RawRow
		err  error
	)
	switch format {
	case FormatCSV:
		rows, err = readCSVFile(opts.Path, opts.Delimiter)
	case FormatParquet:
		rows, err = ReadParquet(opts.Path)
	default:
		return nil, Stats{}, fmt.Errorf("unsupported catalog format %q", format)
	}
	if err != nil {
		return nil, Stats{}, fmt.Errorf("load catalog %s: %w", opts.Path, err)
	}

	records, stats := Clean(rows, opts.MaxYear)
	store := NewStore(records)

	metrics.CatalogRows.WithLabelValues("kept").Add(float64(stats.Kept))
	for reason, n := range stats.Dropped {
		metrics.CatalogRows.WithLabelValues(reason).Add(float64(n))
	}
	metrics.CatalogBooks.Set(float64(store.Len()))

	log.Info("catalog loaded",
		zap.String("path", opts.Path),
		zap.String("format", format),
		zap.Int("rows_read", stats.Read),
		zap.Int("books", stats.Kept),
		zap.Any("dropped", stats.Dropped),
		zap.String("fingerprint", store.Fingerprint()),
		zap.Duration("duration", time.Since(start)),
	)
	return store, stats, nil
}

func readCSVFile(path string, delimiter rune) ([]RawRow, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f, delimiter)
}

func formatFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet", ".pq":
		return FormatParquet
	default:
		return FormatCSV
	}
}
