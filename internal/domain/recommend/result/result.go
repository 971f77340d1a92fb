package result

// Recommendation is a single accepted neighbour.
type Recommendation struct {
	title      string
	authors    string
	year       int
	publisher  string
	imageURL   string
	similarity float64
}

// NewRecommendation creates a recommendation tuple. Similarity is expected
// to be rounded by the caller.
func NewRecommendation(title, authors string, year int, publisher, imageURL string, similarity float64) Recommendation {
	return Recommendation{
		title: title, authors: authors, year: year,
		publisher: publisher, imageURL: imageURL, similarity: similarity,
	}
}

// Title returns the book title.
func (r *Recommendation) Title() string { return r.title }

// Authors returns the authors string.
func (r *Recommendation) Authors() string { return r.authors }

// Year returns the publication year.
func (r *Recommendation) Year() int { return r.year }

// Publisher returns the publisher.
func (r *Recommendation) Publisher() string { return r.publisher }

// ImageURL returns the cover image URL, possibly empty.
func (r *Recommendation) ImageURL() string { return r.imageURL }

// Similarity returns the cosine similarity rounded to 4 decimals.
func (r *Recommendation) Similarity() float64 { return r.similarity }

// Result is the ranked output for one seed.
type Result struct {
	seed            string
	recommendations []Recommendation
	requested       int
	fetchRounds     int
}

// New creates a Result. recs must already be in similarity-descending order.
func New(seed string, recs []Recommendation, requested, fetchRounds int) Result {
	return Result{seed: seed, recommendations: recs, requested: requested, fetchRounds: fetchRounds}
}

// Seed returns the seed description.
func (r *Result) Seed() string { return r.seed }

// Recommendations returns the accepted neighbours.
func (r *Result) Recommendations() []Recommendation { return r.recommendations }

// Requested returns k.
func (r *Result) Requested() int { return r.requested }

// Underfilled reports whether fewer than k neighbours were accepted.
func (r *Result) Underfilled() bool { return len(r.recommendations) < r.requested }

// FetchRounds returns how many index queries were issued.
func (r *Result) FetchRounds() int { return r.fetchRounds }
