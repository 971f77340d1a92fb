package db

// KNNQuery is the input for vector similarity search. Results come back in
// descending similarity order, at most K entries.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search. Score is cosine
// similarity in [-1,1].
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
