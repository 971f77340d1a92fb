package sdk

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

// FetchPolicy controls how many candidates are requested from the index.
// Strategy is "adaptive" (default) or "fixed"; zero values select defaults.
type FetchPolicy struct {
	Strategy        string
	OverFetchFactor int
	MaxFetch        int
}

type clientConfig struct {
	driver   string // "valkey" or "redis"
	addrs    []string
	password string

	catalogPath      string
	catalogFormat    string
	catalogDelimiter rune
	maxYear          int

	embedder         Embedder
	model            string
	vectorDimensions int

	collection      string
	hnswM           int
	hnswEFConstruct int
	policy          FetchPolicy

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey configures the client to connect to a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithCatalogFile sets the catalog file. The format is taken from the
// extension (.csv, .parquet).
func WithCatalogFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.catalogPath = path
	})
}

// WithCSVDelimiter overrides the CSV field delimiter. Default: ','.
func WithCSVDelimiter(d rune) Option {
	return optionFunc(func(c *clientConfig) {
		c.catalogFormat = "csv"
		c.catalogDelimiter = d
	})
}

// WithMaxYear drops catalog rows published after year.
func WithMaxYear(year int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxYear = year
	})
}

// WithEmbedder sets the text embedding encoder. model identifies the vectors
// it produces in the index manifest.
func WithEmbedder(e Embedder, model string) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
		c.model = model
	})
}

// WithVectorDimensions sets the embedding dimension. Defaults to 384 (all-MiniLM-L6-v2).
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithCollection sets the index collection name. Default: "books".
func WithCollection(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.collection = name
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithFetchPolicy sets the candidate fetch policy.
func WithFetchPolicy(p FetchPolicy) Option {
	return optionFunc(func(c *clientConfig) {
		c.policy = p
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK and engine metrics on the given registerer.
// Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
