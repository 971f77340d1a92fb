package bookindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/kailas-cloud/bookrec/internal/db"
	"github.com/kailas-cloud/bookrec/internal/domain"
	"github.com/kailas-cloud/bookrec/internal/domain/book"
)

// store is the consumer interface for the book index (ISP).
//
//nolint:interfacebloat // index repo needs hash, kv and index management operations
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index string) (int, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Config describes the collection backing the index.
type Config struct {
	Collection string
	Dimensions int
	Algorithm  string // "hnsw" or "flat"
	HNSW       HNSWConfig
}

// Repo is the vector index adapter for one collection.
type Repo struct {
	store store
	cfg   Config
}

// New creates a book index repository.
func New(s store, cfg Config) *Repo {
	if cfg.Collection == "" {
		cfg.Collection = domain.DefaultCollection
	}
	if cfg.HNSW.M <= 0 {
		cfg.HNSW.M = 16
	}
	if cfg.HNSW.EFConstruct <= 0 {
		cfg.HNSW.EFConstruct = 200
	}
	return &Repo{store: s, cfg: cfg}
}

// Collection returns the collection name.
func (r *Repo) Collection() string { return r.cfg.Collection }

// Exists reports whether the collection index is present.
func (r *Repo) Exists(ctx context.Context) (bool, error) {
	ok, err := r.store.IndexExists(ctx, indexName(r.cfg.Collection))
	if err != nil {
		return false, fmt.Errorf("%w: probe %s: %w", domain.ErrIndexUnavailable, r.cfg.Collection, err)
	}
	return ok, nil
}

// Create creates the collection index. An existing index is left untouched.
func (r *Repo) Create(ctx context.Context) error {
	def, err := buildIndex(r.cfg)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("%w: create %s: %w", domain.ErrIndexUnavailable, r.cfg.Collection, err)
	}
	return nil
}

// Drop removes the index, its documents and the manifest. Documents left
// behind by the drop (valkey-search has no DD) are deleted by prefix, so a
// later Create on the same prefix starts empty.
func (r *Repo) Drop(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, indexName(r.cfg.Collection), true); err != nil &&
		!errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("%w: drop %s: %w", domain.ErrIndexUnavailable, r.cfg.Collection, err)
	}
	keys, err := r.store.Scan(ctx, collectionPrefix(r.cfg.Collection)+"*")
	if err != nil {
		return fmt.Errorf("%w: scan %s: %w", domain.ErrIndexUnavailable, r.cfg.Collection, err)
	}
	if len(keys) > 0 {
		if err := r.store.Del(ctx, keys...); err != nil {
			return fmt.Errorf("%w: delete %d documents of %s: %w", domain.ErrIndexUnavailable, len(keys), r.cfg.Collection, err)
		}
	}
	if err := r.store.Del(ctx, manifestKey(r.cfg.Collection)); err != nil {
		return fmt.Errorf("delete manifest: %w", err)
	}
	return nil
}

// Query returns up to limit neighbours of vector in descending similarity.
// Equal scores keep the order the index returned them in.
func (r *Repo) Query(ctx context.Context, vector []float32, limit int) ([]book.Neighbor, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName(r.cfg.Collection),
		Vector:       vector,
		K:            limit,
		ReturnFields: payloadFields,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: search %s: %w", domain.ErrIndexUnavailable, r.cfg.Collection, err)
	}

	out := make([]book.Neighbor, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		rec, ok := recordFromHash(idFromKey(r.cfg.Collection, e.Key), e.Fields)
		if !ok {
			continue
		}
		out = append(out, book.Neighbor{Record: rec, Score: e.Score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Upsert writes records with their vectors in one pipelined round-trip.
// Keys derive from record ids, so re-running with the same records overwrites.
func (r *Repo) Upsert(ctx context.Context, records []book.Record, vectors [][]float32) error {
	if len(records) != len(vectors) {
		return fmt.Errorf("records/vectors length mismatch: %d vs %d", len(records), len(vectors))
	}
	items := make([]db.HashSetItem, len(records))
	for i := range records {
		if err := domain.CheckDimensions(vectors[i], r.cfg.Dimensions); err != nil {
			return fmt.Errorf("record %s: %w", records[i].ID(), err)
		}
		items[i] = db.HashSetItem{
			Key:    docKey(r.cfg.Collection, records[i].ID()),
			Fields: buildHashFields(&records[i], vectors[i]),
		}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("%w: upsert %d entries: %w", domain.ErrIndexUnavailable, len(items), err)
	}
	return nil
}

// Count returns the number of indexed documents.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, indexName(r.cfg.Collection))
	if err != nil {
		return 0, fmt.Errorf("%w: count %s: %w", domain.ErrIndexUnavailable, r.cfg.Collection, err)
	}
	return n, nil
}

// SaveManifest stores the ingestion manifest.
func (r *Repo) SaveManifest(ctx context.Context, m book.Manifest) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := r.store.Set(ctx, manifestKey(r.cfg.Collection), data); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	return nil
}

// LoadManifest returns the ingestion manifest; ok is false when none exists.
func (r *Repo) LoadManifest(ctx context.Context) (book.Manifest, bool, error) {
	data, err := r.store.Get(ctx, manifestKey(r.cfg.Collection))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return book.Manifest{}, false, nil
		}
		return book.Manifest{}, false, fmt.Errorf("load manifest: %w", err)
	}
	var m book.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return book.Manifest{}, false, fmt.Errorf("decode manifest: %w", err)
	}
	return m, true, nil
}
