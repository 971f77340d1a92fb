package domain

// KeyPrefix namespaces every key bookrec writes to the index store.
const KeyPrefix = "bookrec:"

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "books"

// VectorConfig holds vectorization settings, not exposed to clients.
type VectorConfig struct {
	Model          string
	Dimensions     int
	DistanceMetric string
	Algorithm      string
}

// DefaultVectorConfig returns the default configuration tuned for all-MiniLM-L6-v2.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:          "sentence-transformers/all-MiniLM-L6-v2",
		Dimensions:     384,
		DistanceMetric: "cosine",
		Algorithm:      "hnsw",
	}
}
