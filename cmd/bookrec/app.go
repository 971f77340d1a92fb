package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrec/internal/catalog"
	"github.com/kailas-cloud/bookrec/internal/config"
	dbRedis "github.com/kailas-cloud/bookrec/internal/db/redis"
	logpkg "github.com/kailas-cloud/bookrec/internal/logger"
	"github.com/kailas-cloud/bookrec/internal/metrics"
	"github.com/kailas-cloud/bookrec/internal/repository/bookindex"
	"github.com/kailas-cloud/bookrec/internal/repository/vectorcache"
	openaiEmb "github.com/kailas-cloud/bookrec/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/bookrec/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/bookrec/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/bookrec/internal/usecase/ingest"
	recommenduc "github.com/kailas-cloud/bookrec/internal/usecase/recommend"
	"github.com/kailas-cloud/bookrec/internal/version"
)

// app is the composition root shared by every command.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger

	store     *dbRedis.Store
	catalog   *catalog.Store
	embedder  *embeddinguc.BreakerEmbedder
	index     *bookindex.Repo
	cache     *vectorcache.Cache
	ingest    *ingestuc.Service
	recommend *recommenduc.Service
	health    *healthuc.Service
}

// newApp loads config, the catalog and every collaborator. The encoder is
// probed and the index store must answer within the readiness timeout.
func newApp(ctx context.Context, env string) (*app, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	metrics.Register()

	a := &app{env: env, cfg: cfg, logger: logger}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	cfg := a.cfg
	a.logger.Info("Starting bookrec",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", a.env),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("catalog", cfg.Catalog.Path),
	)

	var delimiter rune
	if cfg.Catalog.Delimiter != "" {
		delimiter = []rune(cfg.Catalog.Delimiter)[0]
	}
	books, stats, err := catalog.Load(catalog.Options{
		Path:      cfg.Catalog.Path,
		Format:    cfg.Catalog.Format,
		Delimiter: delimiter,
		MaxYear:   cfg.Catalog.MaxYear,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	a.catalog = books
	a.logger.Info("Catalog loaded", zap.Int("rows", stats.Read), zap.Int("books", stats.Kept))

	a.embedder = buildEmbedder(cfg, a.logger)
	probeCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Embedding.TimeoutSec)*time.Second)
	err = a.embedder.HealthCheck(probeCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("encoder probe: %w", err)
	}
	a.logger.Info("Encoder ready",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	a.store, err = dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
		Flavor:   dbRedis.Flavor(cfg.Database.Driver),
	})
	if err != nil {
		return fmt.Errorf("create database store: %w", err)
	}
	if err := a.store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	a.logger.Info("Connected to database")

	a.index = bookindex.New(a.store, bookindex.Config{
		Collection: cfg.Index.Collection,
		Dimensions: cfg.Embedding.Dimensions,
		Algorithm:  cfg.Index.Algorithm,
		HNSW: bookindex.HNSWConfig{
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		},
	})

	// nil interface, not a typed nil pointer, when the cache is disabled
	var cache ingestuc.VectorCache
	if cfg.Cache.Enabled {
		a.cache, err = vectorcache.Open(ctx, cfg.Cache.Path, metrics.VectorCacheTotal, a.logger)
		if err != nil {
			return fmt.Errorf("open vector cache: %w", err)
		}
		cache = a.cache
	}

	a.ingest = ingestuc.New(a.catalog, a.embedder, a.index, cache, ingestuc.Config{
		Model:     cfg.Embedding.Model,
		BatchSize: cfg.Ingest.BatchSize,
		Workers:   cfg.Ingest.Workers,
	}, a.logger)

	strategy, err := recommenduc.ParseStrategy(cfg.Recommend.FetchStrategy)
	if err != nil {
		return fmt.Errorf("fetch policy: %w", err)
	}
	a.recommend = recommenduc.New(a.catalog, a.embedder, a.index, recommenduc.Policy{
		Strategy:        strategy,
		OverFetchFactor: cfg.Recommend.OverFetchFactor,
		MaxFetch:        cfg.Recommend.MaxFetch,
	})

	a.health = healthuc.New(a.store, a.embedder, a.index, a.catalog, cfg.Embedding.Model)
	return nil
}

// buildEmbedder assembles the decorator chain: OpenAI -> Instrumented -> Breaker.
func buildEmbedder(cfg config.Config, logger *zap.Logger) *embeddinguc.BreakerEmbedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})

	instrumented := embeddinguc.NewInstrumentedEmbedder(
		base, cfg.Embedding.Provider, cfg.Embedding.Model, logger,
		embeddinguc.WithDimensions(cfg.Embedding.Dimensions),
		embeddinguc.WithChunkSize(cfg.Embedding.BatchSize),
	)

	return embeddinguc.NewBreakerEmbedder(instrumented, embeddinguc.BreakerConfig{
		Name:             "encoder",
		FailureThreshold: uint32(cfg.Breaker.FailureThreshold), //nolint:gosec // validated positive
		OpenTimeout:      time.Duration(cfg.Breaker.OpenTimeoutSec) * time.Second,
		HalfOpenRequests: uint32(cfg.Breaker.HalfOpenRequests), //nolint:gosec // validated positive
	}, logger)
}

// Close releases the index connection and the vector cache.
func (a *app) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("Failed to close vector cache", zap.Error(err))
		}
	}
	if a.store != nil {
		a.store.Close()
	}
	_ = a.logger.Sync()
}

// runIngest runs ingestion and prunes stale cache sets.
func (a *app) runIngest(ctx context.Context, reindex bool) (ingestuc.Report, error) {
	run := a.ingest.Run
	if reindex {
		run = a.ingest.Reindex
	}
	report, err := run(ctx)
	if err != nil {
		return report, fmt.Errorf("ingest: %w", err)
	}

	if a.cache != nil {
		removed, err := a.cache.Prune(ctx, a.catalog.Fingerprint(), a.cfg.Embedding.Model)
		if err != nil {
			a.logger.Warn("Vector cache prune failed", zap.Error(err))
		} else if removed > 0 {
			a.logger.Info("Pruned stale vector sets", zap.Int("removed", removed))
		}
	}
	return report, nil
}
