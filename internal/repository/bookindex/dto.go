package bookindex

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/bookrec/internal/db"
	"github.com/kailas-cloud/bookrec/internal/domain"
	"github.com/kailas-cloud/bookrec/internal/domain/book"
)

// Hash field names.
const (
	fieldTitle     = "title"
	fieldAuthors   = "authors"
	fieldYear      = "year"
	fieldPublisher = "publisher"
	fieldImageURL  = "image_url"
	fieldPosition  = "position"
	fieldVector    = "__vector"
)

var payloadFields = []string{fieldTitle, fieldAuthors, fieldYear, fieldPublisher, fieldImageURL, fieldPosition}

func indexName(collection string) string {
	return fmt.Sprintf("%s%s:idx", domain.KeyPrefix, collection)
}

func collectionPrefix(collection string) string {
	return fmt.Sprintf("%s%s:", domain.KeyPrefix, collection)
}

func docKey(collection, id string) string {
	return collectionPrefix(collection) + id
}

// manifestKey lives outside the collection prefix so it is never indexed or counted.
func manifestKey(collection string) string {
	return fmt.Sprintf("%smanifest:%s", domain.KeyPrefix, collection)
}

func idFromKey(collection, key string) string {
	return strings.TrimPrefix(key, collectionPrefix(collection))
}

// buildIndex creates the FT index definition: NUMERIC year plus a cosine
// vector field aliased as "vector".
func buildIndex(cfg Config) (*db.IndexDefinition, error) {
	b := db.NewIndex(indexName(cfg.Collection)).
		Prefix(collectionPrefix(cfg.Collection)).
		Numeric(fieldYear)

	switch strings.ToLower(cfg.Algorithm) {
	case "", "hnsw":
		b = b.VectorHNSW(fieldVector, "vector", cfg.Dimensions, db.DistanceCosine, cfg.HNSW.M, cfg.HNSW.EFConstruct)
	case "flat":
		b = b.VectorFlat(fieldVector, "vector", cfg.Dimensions, db.DistanceCosine, 0)
	default:
		return nil, fmt.Errorf("unknown vector algorithm %q", cfg.Algorithm)
	}
	return b.Build()
}

// buildHashFields converts a record and its vector into a flat map for HSET.
func buildHashFields(rec *book.Record, vector []float32) map[string]string {
	return map[string]string{
		fieldTitle:     rec.Title(),
		fieldAuthors:   rec.Authors(),
		fieldYear:      strconv.Itoa(rec.Year()),
		fieldPublisher: rec.Publisher(),
		fieldImageURL:  rec.ImageURL(),
		fieldPosition:  strconv.Itoa(rec.Position()),
		fieldVector:    vectorToBytes(vector),
	}
}

// recordFromHash rebuilds the payload snapshot. Entries without a title are skipped.
func recordFromHash(id string, m map[string]string) (book.Record, bool) {
	title := m[fieldTitle]
	if title == "" {
		return book.Record{}, false
	}
	year, _ := strconv.Atoi(m[fieldYear])
	pos, err := strconv.Atoi(m[fieldPosition])
	if err != nil {
		pos = -1
	}
	return book.Reconstruct(id, title, m[fieldAuthors], year, m[fieldPublisher], m[fieldImageURL], pos), true
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
