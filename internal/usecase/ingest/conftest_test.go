package ingest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/kailas-cloud/bookrec/internal/catalog"
	"github.com/kailas-cloud/bookrec/internal/domain"
	"github.com/kailas-cloud/bookrec/internal/domain/book"
)

type mockIndex struct {
	mu        sync.Mutex
	exists    bool
	existsErr error
	createErr error
	upsertFn  func(records []book.Record, vectors [][]float32) error

	created  int
	dropped  int
	upserted map[string][]float32
	batches  int
	manifest *book.Manifest
}

func newMockIndex() *mockIndex {
	return &mockIndex{upserted: make(map[string][]float32)}
}

func (m *mockIndex) Exists(context.Context) (bool, error) { return m.exists, m.existsErr }

func (m *mockIndex) Create(context.Context) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created++
	m.exists = true
	return nil
}

func (m *mockIndex) Drop(context.Context) error {
	m.dropped++
	m.exists = false
	m.upserted = make(map[string][]float32)
	m.manifest = nil
	return nil
}

func (m *mockIndex) Upsert(_ context.Context, records []book.Record, vectors [][]float32) error {
	if m.upsertFn != nil {
		if err := m.upsertFn(records, vectors); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches++
	for i := range records {
		m.upserted[records[i].ID()] = vectors[i]
	}
	return nil
}

func (m *mockIndex) SaveManifest(_ context.Context, mf book.Manifest) error {
	m.manifest = &mf
	return nil
}

func (m *mockIndex) Collection() string { return "books" }

type mockCache struct {
	sets    map[string][][]float32
	loadErr error
	saves   int
}

func newMockCache() *mockCache { return &mockCache{sets: make(map[string][][]float32)} }

func (m *mockCache) Load(_ context.Context, hash, model string, n int) ([][]float32, bool, error) {
	if m.loadErr != nil {
		return nil, false, m.loadErr
	}
	v, ok := m.sets[hash+"/"+model]
	if !ok || len(v) != n {
		return nil, false, nil
	}
	return v, true, nil
}

func (m *mockCache) Save(_ context.Context, hash, model string, vectors [][]float32) error {
	m.saves++
	m.sets[hash+"/"+model] = vectors
	return nil
}

type mockEmbedder struct {
	mu     sync.Mutex
	calls  int
	texts  int
	failOn error
}

func (m *mockEmbedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, fmt.Errorf("single embed not expected")
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failOn != nil {
		return domain.BatchEmbeddingResult{}, m.failOn
	}
	m.texts += len(texts)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1, 0, 0}
	}
	return domain.BatchEmbeddingResult{Embeddings: out}, nil
}

func testCatalog(t *testing.T, n int) *catalog.Store {
	t.Helper()
	records := make([]book.Record, 0, n)
	for i := range n {
		r, err := book.New(fmt.Sprintf("Book %03d", i), "Author", 1900+i%100+1, "Pub", "", i)
		if err != nil {
			t.Fatal(err)
		}
		records = append(records, r)
	}
	return catalog.NewStore(records)
}
