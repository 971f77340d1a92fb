package recommend

import (
	"context"

	"github.com/kailas-cloud/bookrec/internal/domain"
	"github.com/kailas-cloud/bookrec/internal/domain/book"
)

// Catalog resolves a seed record by title substring.
type Catalog interface {
	FindSeed(query string) (book.Record, error)
}

// Embedder vectorizes the seed's composite text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Index returns up to limit nearest neighbours in descending similarity order.
type Index interface {
	Query(ctx context.Context, vector []float32, limit int) ([]book.Neighbor, error)
}
