// Package ingest builds the vector index from the loaded catalog.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/bookrec/internal/domain"
	"github.com/kailas-cloud/bookrec/internal/domain/book"
	"github.com/kailas-cloud/bookrec/internal/metrics"
)

// Defaults for Config zero values.
const (
	DefaultBatchSize = 100
	DefaultWorkers   = 4
)

// ErrEmptyCatalog is returned when there is nothing to ingest.
var ErrEmptyCatalog = errors.New("catalog is empty")

// Config controls ingestion.
type Config struct {
	Model     string // embedding model id, part of the vector cache key
	BatchSize int
	Workers   int
}

// Report summarizes one ingestion run.
type Report struct {
	Collection string
	Skipped    bool
	CacheHit   bool
	Upserted   int
	Batches    int
	Duration   time.Duration
}

// Service runs ingestion. Re-running against an existing collection is a no-op.
type Service struct {
	catalog Catalog
	embed   domain.Embedder
	index   Index
	cache   VectorCache
	cfg     Config
	logger  *zap.Logger
}

// New creates an ingestion service. cache may be nil.
func New(catalog Catalog, embed domain.Embedder, index Index, cache VectorCache, cfg Config, logger *zap.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	return &Service{catalog: catalog, embed: embed, index: index, cache: cache, cfg: cfg, logger: logger}
}

// Run ingests the catalog when the collection does not exist yet.
func (s *Service) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	report := Report{Collection: s.index.Collection()}

	exists, err := s.index.Exists(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("check collection: %w", err)
	}
	if exists {
		report.Skipped = true
		report.Duration = time.Since(start)
		s.logger.Info("Collection exists, skipping ingestion", zap.String("collection", report.Collection))
		return report, nil
	}

	records := s.catalog.All()
	if len(records) == 0 {
		return Report{}, ErrEmptyCatalog
	}

	vectors, hit, err := s.vectors(ctx, len(records))
	if err != nil {
		return Report{}, err
	}
	report.CacheHit = hit

	if err := s.index.Create(ctx); err != nil {
		return Report{}, fmt.Errorf("create collection: %w", err)
	}

	batches, err := s.upsert(ctx, records, vectors)
	if err != nil {
		// A half-built collection would make the next run skip ingestion.
		if dropErr := s.index.Drop(context.WithoutCancel(ctx)); dropErr != nil {
			s.logger.Error("Failed to drop partial collection", zap.Error(dropErr))
		}
		return Report{}, err
	}
	report.Upserted = len(records)
	report.Batches = batches

	manifest := book.Manifest{
		Fingerprint: s.catalog.Fingerprint(),
		Model:       s.cfg.Model,
		Count:       len(records),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.index.SaveManifest(ctx, manifest); err != nil {
		return Report{}, fmt.Errorf("save manifest: %w", err)
	}

	report.Duration = time.Since(start)
	s.logger.Info("Ingestion completed",
		zap.String("collection", report.Collection),
		zap.Int("upserted", report.Upserted),
		zap.Int("batches", report.Batches),
		zap.Bool("cache_hit", report.CacheHit),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// Reindex drops the collection and ingests from scratch.
func (s *Service) Reindex(ctx context.Context) (Report, error) {
	if err := s.index.Drop(ctx); err != nil {
		return Report{}, fmt.Errorf("drop collection: %w", err)
	}
	s.logger.Info("Collection dropped for reindex", zap.String("collection", s.index.Collection()))
	return s.Run(ctx)
}

// vectors returns one vector per catalog record, from the cache when it
// matches the current catalog and model.
func (s *Service) vectors(ctx context.Context, n int) ([][]float32, bool, error) {
	fingerprint := s.catalog.Fingerprint()

	if s.cache != nil {
		cached, ok, err := s.cache.Load(ctx, fingerprint, s.cfg.Model, n)
		switch {
		case err != nil:
			s.logger.Warn("Vector cache read failed, re-encoding", zap.Error(err))
		case ok:
			s.logger.Info("Using cached catalog vectors", zap.Int("count", n))
			return cached, true, nil
		}
	}

	s.logger.Info("Encoding catalog", zap.Int("count", n), zap.String("model", s.cfg.Model))
	res, err := domain.BatchEmbed(ctx, s.embed, s.catalog.Texts())
	if err != nil {
		return nil, false, fmt.Errorf("encode catalog: %w", err)
	}
	if len(res.Embeddings) != n {
		return nil, false, fmt.Errorf("%w: encoded %d of %d records", domain.ErrEncoderUnavailable, len(res.Embeddings), n)
	}

	if s.cache != nil {
		if err := s.cache.Save(ctx, fingerprint, s.cfg.Model, res.Embeddings); err != nil {
			s.logger.Warn("Vector cache write failed", zap.Error(err))
		}
	}
	return res.Embeddings, false, nil
}

// upsert writes records in batches with a bounded worker pool. The first
// failure cancels the remaining batches.
func (s *Service) upsert(ctx context.Context, records []book.Record, vectors [][]float32) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)

	batches := 0
	for offset := 0; offset < len(records); offset += s.cfg.BatchSize {
		end := min(offset+s.cfg.BatchSize, len(records))
		recs, vecs := records[offset:end], vectors[offset:end]
		batches++

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err //nolint:wrapcheck // cancellation from a sibling batch
			}
			if err := s.index.Upsert(gctx, recs, vecs); err != nil {
				return fmt.Errorf("upsert batch at %d: %w", offset, err)
			}
			metrics.IngestUpsertedTotal.Add(float64(len(recs)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err //nolint:wrapcheck // already wrapped per batch
	}
	return batches, nil
}
