package ingest

import (
	"context"

	"github.com/kailas-cloud/bookrec/internal/domain/book"
)

// Catalog is the loaded snapshot to ingest.
type Catalog interface {
	All() []book.Record
	Texts() []string
	Fingerprint() string
}

// Index is the write side of the vector index.
type Index interface {
	Exists(ctx context.Context) (bool, error)
	Create(ctx context.Context) error
	Drop(ctx context.Context) error
	Upsert(ctx context.Context, records []book.Record, vectors [][]float32) error
	SaveManifest(ctx context.Context, m book.Manifest) error
	Collection() string
}

// VectorCache stores precomputed catalog vectors keyed by catalog fingerprint and model.
type VectorCache interface {
	Load(ctx context.Context, catalogHash, model string, expectedCount int) ([][]float32, bool, error)
	Save(ctx context.Context, catalogHash, model string, vectors [][]float32) error
}
