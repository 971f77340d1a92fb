package sdk

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/bookrec/internal/domain/recommend/request"
	"github.com/kailas-cloud/bookrec/internal/domain/recommend/result"
)

// RecommendRequest asks for books similar to the first title containing Title.
// TopK of zero selects the default of 8.
type RecommendRequest struct {
	Title          string
	TopK           int
	SkipSameAuthor bool
}

// Recommendation is one recommended book.
type Recommendation struct {
	Title      string
	Authors    string
	Year       int
	Publisher  string
	ImageURL   string
	Similarity float64 // cosine similarity rounded to 4 decimals
}

// RecommendResult is an ordered list of recommendations for a seed book.
type RecommendResult struct {
	SeedBook        string // "<title> by <authors> (<year>)"
	Recommendations []Recommendation
	Requested       int
	Underfilled     bool
	FetchRounds     int
}

// Recommend returns up to TopK books similar to the seed, most similar first.
func (c *Client) Recommend(ctx context.Context, in RecommendRequest) (_ RecommendResult, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe("recommend", start, err, "title", in.Title, "top_k", in.TopK)
	}()

	req, err := request.New(in.Title, in.TopK, in.SkipSameAuthor)
	if err != nil {
		return RecommendResult{}, fmt.Errorf("recommend: %w", err)
	}
	res, err := c.recommendSvc.Recommend(ctx, req)
	if err != nil {
		return RecommendResult{}, fmt.Errorf("recommend: %w", err)
	}
	return toRecommendResult(&res), nil
}

func toRecommendResult(res *result.Result) RecommendResult {
	recs := res.Recommendations()
	out := RecommendResult{
		SeedBook:        res.Seed(),
		Recommendations: make([]Recommendation, len(recs)),
		Requested:       res.Requested(),
		Underfilled:     res.Underfilled(),
		FetchRounds:     res.FetchRounds(),
	}
	for i := range recs {
		out.Recommendations[i] = Recommendation{
			Title:      recs[i].Title(),
			Authors:    recs[i].Authors(),
			Year:       recs[i].Year(),
			Publisher:  recs[i].Publisher(),
			ImageURL:   recs[i].ImageURL(),
			Similarity: recs[i].Similarity(),
		}
	}
	return out
}
