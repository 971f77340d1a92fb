package recommend

import (
	"context"
	"fmt"
	"testing"

	"github.com/kailas-cloud/bookrec/internal/catalog"
	"github.com/kailas-cloud/bookrec/internal/domain"
	"github.com/kailas-cloud/bookrec/internal/domain/book"
)

type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
	texts   []string
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	m.texts = append(m.texts, text)
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0, 0, 0}}, nil
}

// mockIndex serves a fixed ranked list truncated to the requested limit.
type mockIndex struct {
	ranked  []book.Neighbor
	err     error
	limits  []int
	queryFn func(ctx context.Context, vector []float32, limit int) ([]book.Neighbor, error)
}

func (m *mockIndex) Query(ctx context.Context, vector []float32, limit int) ([]book.Neighbor, error) {
	m.limits = append(m.limits, limit)
	if m.queryFn != nil {
		return m.queryFn(ctx, vector, limit)
	}
	if m.err != nil {
		return nil, m.err
	}
	if limit > len(m.ranked) {
		limit = len(m.ranked)
	}
	return m.ranked[:limit], nil
}

func mustBook(t *testing.T, title, authors string, year, pos int) book.Record {
	t.Helper()
	r, err := book.New(title, authors, year, "Pub", "", pos)
	if err != nil {
		t.Fatalf("book.New(%q): %v", title, err)
	}
	return r
}

// hobbitFixture builds "The Hobbit" plus n other fantasy titles by other
// authors, and an index ranking the seed first followed by the rest with
// strictly decreasing similarity.
func hobbitFixture(t *testing.T, n int) (*catalog.Store, *mockIndex) {
	t.Helper()
	records := []book.Record{mustBook(t, "The Hobbit", "J.R.R. Tolkien", 1937, 0)}
	for i := 1; i <= n; i++ {
		records = append(records, mustBook(t, fmt.Sprintf("Fantasy Title %02d", i), fmt.Sprintf("Author %02d", i), 1950+i, i))
	}

	ranked := make([]book.Neighbor, 0, len(records))
	ranked = append(ranked, book.Neighbor{Record: records[0], Score: 1.0})
	for i, r := range records[1:] {
		ranked = append(ranked, book.Neighbor{Record: r, Score: 0.9 - float64(i)*0.01})
	}
	return catalog.NewStore(records), &mockIndex{ranked: ranked}
}

func newTestService(cat Catalog, idx Index, policy Policy) (*Service, *mockEmbedder) {
	emb := &mockEmbedder{}
	return New(cat, emb, idx, policy), emb
}

func fixedPolicy() Policy {
	p := DefaultPolicy()
	p.Strategy = StrategyFixed
	return p
}
