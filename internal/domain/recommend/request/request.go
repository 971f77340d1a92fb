package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/bookrec/internal/domain"
)

// Recommendation parameter limits.
const (
	// MaxQueryLength is the maximum allowed title substring length.
	MaxQueryLength = 512
	DefaultTopK    = 8
	MaxTopK        = 100
)

// Request is a validated recommendation query.
type Request struct {
	query          string
	topK           int
	skipSameAuthor bool
}

// New trims and case-folds the query and validates k.
// A zero topK selects DefaultTopK.
func New(query string, topK int, skipSameAuthor bool) (Request, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Request{}, fmt.Errorf("%w: title substring is required", domain.ErrInvalidInput)
	}
	if len(q) > MaxQueryLength {
		return Request{}, fmt.Errorf("%w: title substring too long (max %d chars)", domain.ErrInvalidInput, MaxQueryLength)
	}
	if topK == 0 {
		topK = DefaultTopK
	}
	if topK < 0 || topK > MaxTopK {
		return Request{}, fmt.Errorf("%w: top_k must be between 1 and %d", domain.ErrInvalidInput, MaxTopK)
	}

	return Request{query: q, topK: topK, skipSameAuthor: skipSameAuthor}, nil
}

// Query returns the normalized (trimmed, case-folded) title substring.
func (r *Request) Query() string { return r.query }

// TopK returns the number of recommendations requested.
func (r *Request) TopK() int { return r.topK }

// SkipSameAuthor reports whether candidates by the seed's author are excluded.
func (r *Request) SkipSameAuthor() bool { return r.skipSameAuthor }
