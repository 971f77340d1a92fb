package health

import (
	"context"

	"github.com/kailas-cloud/bookrec/internal/domain/book"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexInspector reports the state of the vector index collection.
type IndexInspector interface {
	Collection() string
	Exists(ctx context.Context) (bool, error)
	Count(ctx context.Context) (int, error)
	LoadManifest(ctx context.Context) (book.Manifest, bool, error)
}

// CatalogInfo describes the loaded catalog snapshot.
type CatalogInfo interface {
	Len() int
	Fingerprint() string
}
