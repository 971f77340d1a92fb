package sdk

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kailas-cloud/bookrec/internal/domain"
	"github.com/kailas-cloud/bookrec/internal/domain/recommend/request"
	"github.com/kailas-cloud/bookrec/internal/domain/recommend/result"
	healthuc "github.com/kailas-cloud/bookrec/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/bookrec/internal/usecase/ingest"
)

func TestClient_Recommend(t *testing.T) {
	rec := &mockRecommendUC{
		recommendFn: func(_ context.Context, req request.Request) (result.Result, error) {
			if req.Query() != "hobbit" {
				t.Errorf("query = %q, want hobbit", req.Query())
			}
			if req.TopK() != 2 || !req.SkipSameAuthor() {
				t.Errorf("top_k=%d skip=%v", req.TopK(), req.SkipSameAuthor())
			}
			return result.New("The Hobbit by J.R.R. Tolkien (1937)", []result.Recommendation{
				result.NewRecommendation("Eragon", "Christopher Paolini", 2002, "Knopf", "", 0.8011),
			}, req.TopK(), 2), nil
		},
	}
	c := testClient(rec, nil, nil)

	res, err := c.Recommend(context.Background(), RecommendRequest{Title: " Hobbit ", TopK: 2, SkipSameAuthor: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.SeedBook != "The Hobbit by J.R.R. Tolkien (1937)" {
		t.Errorf("SeedBook = %q", res.SeedBook)
	}
	if len(res.Recommendations) != 1 || res.Recommendations[0].Title != "Eragon" {
		t.Fatalf("recommendations = %+v", res.Recommendations)
	}
	if res.Recommendations[0].Similarity != 0.8011 {
		t.Errorf("similarity = %v", res.Recommendations[0].Similarity)
	}
	if res.Requested != 2 || !res.Underfilled || res.FetchRounds != 2 {
		t.Errorf("requested=%d underfilled=%v rounds=%d", res.Requested, res.Underfilled, res.FetchRounds)
	}
}

func TestClient_Recommend_InvalidInput(t *testing.T) {
	c := testClient(&mockRecommendUC{
		recommendFn: func(_ context.Context, _ request.Request) (result.Result, error) {
			t.Fatal("use case should not be called")
			return result.Result{}, nil
		},
	}, nil, nil)

	_, err := c.Recommend(context.Background(), RecommendRequest{Title: "  "})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestClient_Recommend_ErrorsPassThrough(t *testing.T) {
	for _, sentinel := range []error{ErrBookNotFound, ErrNoDiverseResults, ErrIndexUnavailable, ErrEncoderUnavailable} {
		t.Run(sentinel.Error(), func(t *testing.T) {
			c := testClient(&mockRecommendUC{
				recommendFn: func(_ context.Context, _ request.Request) (result.Result, error) {
					return result.Result{}, fmt.Errorf("wrapped: %w", sentinel)
				},
			}, nil, nil)

			_, err := c.Recommend(context.Background(), RecommendRequest{Title: "hobbit"})
			if !errors.Is(err, sentinel) {
				t.Fatalf("err = %v, want %v", err, sentinel)
			}
		})
	}
}

func TestClient_Ingest(t *testing.T) {
	ing := &mockIngestUC{
		runFn: func(_ context.Context) (ingestuc.Report, error) {
			return ingestuc.Report{Collection: "books", Upserted: 3, Batches: 1, Duration: time.Second}, nil
		},
		reindexFn: func(_ context.Context) (ingestuc.Report, error) {
			return ingestuc.Report{}, fmt.Errorf("drop: %w", domain.ErrIndexUnavailable)
		},
	}
	c := testClient(nil, ing, nil)

	report, err := c.Ingest(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Collection != "books" || report.Upserted != 3 || report.Skipped {
		t.Errorf("report = %+v", report)
	}

	if _, err := c.Reindex(context.Background()); !errors.Is(err, ErrIndexUnavailable) {
		t.Fatalf("reindex err = %v, want ErrIndexUnavailable", err)
	}
}

func TestClient_Health(t *testing.T) {
	c := testClient(nil, nil, &mockHealthUC{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{
			healthuc.CheckDatabase: healthuc.CheckOK,
			healthuc.CheckIndex:    healthuc.CheckMissing,
		},
		BooksLoaded: 12,
		Collection:  "books",
	}})

	h := c.Health(context.Background())
	if h.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", h.Status)
	}
	if h.Checks["index"] != "missing" || h.Checks["database"] != "ok" {
		t.Errorf("Checks = %v", h.Checks)
	}
	if h.BooksLoaded != 12 || h.Collection != "books" {
		t.Errorf("BooksLoaded=%d Collection=%q", h.BooksLoaded, h.Collection)
	}
}
