package sdk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrec/internal/catalog"
	dbRedis "github.com/kailas-cloud/bookrec/internal/db/redis"
	"github.com/kailas-cloud/bookrec/internal/domain"
	"github.com/kailas-cloud/bookrec/internal/domain/recommend/request"
	"github.com/kailas-cloud/bookrec/internal/domain/recommend/result"
	"github.com/kailas-cloud/bookrec/internal/metrics"
	"github.com/kailas-cloud/bookrec/internal/repository/bookindex"
	embeddinguc "github.com/kailas-cloud/bookrec/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/bookrec/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/bookrec/internal/usecase/ingest"
	recommenduc "github.com/kailas-cloud/bookrec/internal/usecase/recommend"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, replaced in tests.
type recommendUseCase interface {
	Recommend(ctx context.Context, req request.Request) (result.Result, error)
}

type ingestUseCase interface {
	Run(ctx context.Context) (ingestuc.Report, error)
	Reindex(ctx context.Context) (ingestuc.Report, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the bookrec SDK entry point.
type Client struct {
	store        *dbRedis.Store
	recommendSvc recommendUseCase
	ingestSvc    ingestUseCase
	healthSvc    healthUseCase
	obs          *observer
}

// New checks the encoder, loads the catalog, connects to the index store and
// wires the engine. An encoder is required; when it implements HealthChecker
// an unhealthy encoder fails New with ErrEncoderUnavailable.
// The provided context is used for the encoder health check and the readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		vectorDimensions: domain.DefaultVectorConfig().Dimensions,
		model:            domain.DefaultVectorConfig().Model,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("bookrec: database address required (use WithValkey or WithRedis)")
	}
	if cfg.catalogPath == "" {
		return nil, errors.New("bookrec: catalog file required (use WithCatalogFile)")
	}
	if cfg.embedder == nil {
		return nil, errors.New("bookrec: encoder required (use WithEmbedder)")
	}
	policy, err := buildPolicy(cfg.policy)
	if err != nil {
		return nil, fmt.Errorf("bookrec: %w", err)
	}
	if err := checkEmbedder(ctx, cfg.embedder); err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}
	if cfg.metricsReg != nil {
		if err := metrics.RegisterWith(cfg.metricsReg); err != nil {
			return nil, fmt.Errorf("bookrec: register engine metrics: %w", err)
		}
	}

	books, _, err := catalog.Load(catalog.Options{
		Path:      cfg.catalogPath,
		Format:    cfg.catalogFormat,
		Delimiter: cfg.catalogDelimiter,
		MaxYear:   cfg.maxYear,
	}, zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("bookrec: load catalog: %w", err)
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("bookrec: database not ready: %w", err)
	}

	return wireClient(store, books, cfg, policy, obs), nil
}

func checkEmbedder(ctx context.Context, e Embedder) error {
	hc, ok := e.(HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		if errors.Is(err, ErrEncoderUnavailable) {
			return fmt.Errorf("bookrec: encoder health check: %w", err)
		}
		return fmt.Errorf("bookrec: encoder health check: %w: %w", ErrEncoderUnavailable, err)
	}
	return nil
}

func createStore(cfg *clientConfig) (*dbRedis.Store, error) {
	var flavor dbRedis.Flavor
	switch cfg.driver {
	case "valkey":
		flavor = dbRedis.FlavorValkey
	case "redis":
		flavor = dbRedis.FlavorRedis
	default:
		return nil, fmt.Errorf("bookrec: unknown driver %q", cfg.driver)
	}
	s, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
		Flavor:   flavor,
	})
	if err != nil {
		return nil, fmt.Errorf("bookrec: create %s store: %w", cfg.driver, err)
	}
	return s, nil
}

func buildPolicy(p FetchPolicy) (recommenduc.Policy, error) {
	strategy, err := recommenduc.ParseStrategy(p.Strategy)
	if err != nil {
		return recommenduc.Policy{}, fmt.Errorf("fetch policy: %w", err)
	}
	policy := recommenduc.DefaultPolicy()
	policy.Strategy = strategy
	if p.OverFetchFactor > 0 {
		policy.OverFetchFactor = p.OverFetchFactor
	}
	if p.MaxFetch > 0 {
		policy.MaxFetch = p.MaxFetch
	}
	if err := policy.Validate(); err != nil {
		return recommenduc.Policy{}, fmt.Errorf("fetch policy: %w", err)
	}
	return policy, nil
}

func wireClient(
	store *dbRedis.Store, books *catalog.Store, cfg *clientConfig,
	policy recommenduc.Policy, obs *observer,
) *Client {
	index := bookindex.New(store, bookindex.Config{
		Collection: cfg.collection,
		Dimensions: cfg.vectorDimensions,
		HNSW: bookindex.HNSWConfig{
			M:           cfg.hnswM,
			EFConstruct: cfg.hnswEFConstruct,
		},
	})

	var checker healthuc.EmbeddingChecker
	if hc, ok := cfg.embedder.(HealthChecker); ok {
		checker = hc
	}
	embedder := embeddinguc.NewInstrumentedEmbedder(
		adaptEmbedder(cfg.embedder), "sdk", cfg.model, zap.NewNop(),
		embeddinguc.WithDimensions(cfg.vectorDimensions),
	)

	// The SDK has no persisted vector cache.
	ingestSvc := ingestuc.New(books, embedder, index, nil, ingestuc.Config{Model: cfg.model}, zap.NewNop())
	recommendSvc := recommenduc.New(books, embedder, index, policy)
	healthSvc := healthuc.New(store, checker, index, books, cfg.model)

	return &Client{
		store:        store,
		recommendSvc: recommendSvc,
		ingestSvc:    ingestSvc,
		healthSvc:    healthSvc,
		obs:          obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
