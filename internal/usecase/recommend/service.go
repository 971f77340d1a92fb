// Package recommend implements the content-based recommendation engine:
// seed lookup, seed encoding, KNN fetch and diversity filtering.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrec/internal/domain"
	"github.com/kailas-cloud/bookrec/internal/domain/book"
	"github.com/kailas-cloud/bookrec/internal/domain/recommend/request"
	"github.com/kailas-cloud/bookrec/internal/domain/recommend/result"
	"github.com/kailas-cloud/bookrec/internal/logger"
	"github.com/kailas-cloud/bookrec/internal/metrics"
)

// Service answers recommendation requests. It holds no mutable state and is
// safe for concurrent use.
type Service struct {
	catalog Catalog
	embed   Embedder
	index   Index
	policy  Policy
}

// New creates a recommendation service. An invalid policy is replaced by DefaultPolicy.
func New(catalog Catalog, embed Embedder, index Index, policy Policy) *Service {
	if policy.Validate() != nil {
		policy = DefaultPolicy()
	}
	return &Service{catalog: catalog, embed: embed, index: index, policy: policy}
}

// Policy returns the active fetch policy.
func (s *Service) Policy() Policy { return s.policy }

// Recommend returns up to req.TopK() books similar to the first catalog title
// containing req.Query(). Either a result or an error is returned, never both.
func (s *Service) Recommend(ctx context.Context, req request.Request) (result.Result, error) {
	start := time.Now()

	res, err := s.recommend(ctx, req)

	metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	metrics.RecommendTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		logger.FromContext(ctx).Debug("Recommendation failed",
			zap.String("query", req.Query()),
			zap.Error(err),
		)
		return result.Result{}, err
	}

	metrics.RecommendResultSize.Observe(float64(len(res.Recommendations())))
	metrics.RecommendFetchRounds.Observe(float64(res.FetchRounds()))
	if res.Underfilled() {
		metrics.RecommendUnderfilledTotal.Inc()
	}
	return res, nil
}

func (s *Service) recommend(ctx context.Context, req request.Request) (result.Result, error) {
	if req.Query() == "" || req.TopK() < 1 {
		return result.Result{}, fmt.Errorf("%w: empty request", domain.ErrInvalidInput)
	}

	seed, err := s.catalog.FindSeed(req.Query())
	if err != nil {
		return result.Result{}, fmt.Errorf("find seed: %w", err)
	}

	emb, err := s.embed.Embed(ctx, seed.CompositeText())
	if err != nil {
		return result.Result{}, fmt.Errorf("encode seed: %w", collaboratorError(ctx, err, domain.ErrEncoderUnavailable))
	}

	k := req.TopK()
	window := s.policy.initialWindow(k)
	rounds := 0
	var accepted []result.Recommendation

	for {
		candidates, err := s.index.Query(ctx, emb.Embedding, window)
		if err != nil {
			return result.Result{}, fmt.Errorf("query index: %w", collaboratorError(ctx, err, domain.ErrIndexUnavailable))
		}
		rounds++

		accepted = selectDiverse(seed, candidates, k, req.SkipSameAuthor())

		next, more := s.policy.nextWindow(k, window, len(candidates), len(accepted))
		if !more {
			break
		}
		window = next
	}

	if len(accepted) == 0 {
		return result.Result{}, fmt.Errorf("%w: for %q", domain.ErrNoDiverseResults, seed.Title())
	}

	return result.New(seed.Describe(), accepted, k, rounds), nil
}

// selectDiverse walks candidates in index order and accepts at most k of them.
// The seed is excluded by record id and by title, titles are deduplicated
// case-insensitively, and with skipSameAuthor the seed's exact author string is excluded.
func selectDiverse(seed book.Record, candidates []book.Neighbor, k int, skipSameAuthor bool) []result.Recommendation {
	seedTitle := seed.FoldedTitle()
	seedAuthors := seed.FoldedAuthors()

	seen := make(map[string]struct{}, k)
	out := make([]result.Recommendation, 0, k)

	for _, c := range candidates {
		if len(out) >= k {
			break
		}
		rec := c.Record
		if rec.ID() == seed.ID() {
			continue
		}
		title := rec.FoldedTitle()
		if title == seedTitle {
			continue
		}
		if _, dup := seen[title]; dup {
			continue
		}
		if skipSameAuthor && rec.FoldedAuthors() == seedAuthors {
			continue
		}

		seen[title] = struct{}{}
		out = append(out, result.NewRecommendation(
			rec.Title(), rec.Authors(), rec.Year(), rec.Publisher(), rec.ImageURL(),
			roundSimilarity(c.Score),
		))
	}
	return out
}

func roundSimilarity(s float64) float64 {
	return math.Round(s*1e4) / 1e4
}

// collaboratorError tags err with sentinel unless the caller's context has
// ended, in which case the context error is returned on its own.
func collaboratorError(ctx context.Context, err, sentinel error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrBookNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrNoDiverseResults):
		return "no_diverse_results"
	case errors.Is(err, domain.ErrIndexUnavailable):
		return "index_unavailable"
	case errors.Is(err, domain.ErrEncoderUnavailable):
		return "encoder_unavailable"
	default:
		return "error"
	}
}
