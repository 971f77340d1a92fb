package sdk

import (
	"context"

	"github.com/kailas-cloud/bookrec/internal/domain/recommend/request"
	"github.com/kailas-cloud/bookrec/internal/domain/recommend/result"
	healthuc "github.com/kailas-cloud/bookrec/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/bookrec/internal/usecase/ingest"
)

// --- recommendUseCase mock ---

type mockRecommendUC struct {
	recommendFn func(ctx context.Context, req request.Request) (result.Result, error)
}

func (m *mockRecommendUC) Recommend(ctx context.Context, req request.Request) (result.Result, error) {
	return m.recommendFn(ctx, req)
}

// --- ingestUseCase mock ---

type mockIngestUC struct {
	runFn     func(ctx context.Context) (ingestuc.Report, error)
	reindexFn func(ctx context.Context) (ingestuc.Report, error)
}

func (m *mockIngestUC) Run(ctx context.Context) (ingestuc.Report, error) {
	return m.runFn(ctx)
}

func (m *mockIngestUC) Reindex(ctx context.Context) (ingestuc.Report, error) {
	return m.reindexFn(ctx)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }

// --- embedder mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

func staticEmbedder() *mockEmbedder {
	return &mockEmbedder{fn: func(context.Context, string) (EmbeddingResult, error) {
		return EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}, nil
	}}
}

// checkedEmbedder is an encoder that also reports its health.
type checkedEmbedder struct {
	mockEmbedder
	healthFn func(ctx context.Context) error
}

func (c *checkedEmbedder) HealthCheck(ctx context.Context) error { return c.healthFn(ctx) }

type mockBatchEmbedder struct {
	mockEmbedder
	batchFn func(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

func (m *mockBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	return m.batchFn(ctx, texts)
}

// --- helpers ---

func testClient(rec recommendUseCase, ing ingestUseCase, health healthUseCase) *Client {
	return &Client{
		recommendSvc: rec,
		ingestSvc:    ing,
		healthSvc:    health,
	}
}
