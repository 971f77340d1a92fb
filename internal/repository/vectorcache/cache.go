// Package vectorcache persists precomputed catalog vectors in SQLite, keyed
// by catalog fingerprint and embedding model.
package vectorcache

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS vector_sets (
	catalog_hash TEXT NOT NULL,
	model TEXT NOT NULL,
	dimensions INTEGER NOT NULL,
	count INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (catalog_hash, model)
);

CREATE TABLE IF NOT EXISTS vectors (
	catalog_hash TEXT NOT NULL,
	model TEXT NOT NULL,
	position INTEGER NOT NULL,
	vector BLOB NOT NULL,
	PRIMARY KEY (catalog_hash, model, position)
);
`

// Cache is a SQLite-backed vector set store.
type Cache struct {
	db         *sql.DB
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// Open opens (creating if needed) the cache database at path.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), may be nil.
func Open(ctx context.Context, path string, cacheTotal *prometheus.CounterVec, logger *zap.Logger) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &Cache{db: db, cacheTotal: cacheTotal, logger: logger}, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close() //nolint:wrapcheck // close error is self-describing
}

// Load returns the vectors cached for (catalogHash, model) in position order.
// ok is false when the set is absent or its size differs from expectedCount.
func (c *Cache) Load(ctx context.Context, catalogHash, model string, expectedCount int) ([][]float32, bool, error) {
	var count, dims int
	err := c.db.QueryRowContext(ctx,
		`SELECT count, dimensions FROM vector_sets WHERE catalog_hash = ? AND model = ?`,
		catalogHash, model,
	).Scan(&count, &dims)
	if errors.Is(err, sql.ErrNoRows) {
		c.inc("miss")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read vector set: %w", err)
	}
	if count != expectedCount {
		c.logger.Warn("vector cache size mismatch, ignoring",
			zap.Int("cached", count), zap.Int("expected", expectedCount))
		c.inc("miss")
		return nil, false, nil
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT position, vector FROM vectors WHERE catalog_hash = ? AND model = ? ORDER BY position`,
		catalogHash, model,
	)
	if err != nil {
		return nil, false, fmt.Errorf("read vectors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([][]float32, count)
	n := 0
	for rows.Next() {
		var pos int
		var blob []byte
		if err := rows.Scan(&pos, &blob); err != nil {
			return nil, false, fmt.Errorf("scan vector: %w", err)
		}
		if pos < 0 || pos >= count {
			return nil, false, fmt.Errorf("vector position %d out of range", pos)
		}
		vec, err := bytesToVector(blob)
		if err != nil {
			return nil, false, fmt.Errorf("decode vector %d: %w", pos, err)
		}
		if len(vec) != dims {
			return nil, false, fmt.Errorf("vector %d has %d dims, want %d", pos, len(vec), dims)
		}
		out[pos] = vec
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate vectors: %w", err)
	}
	if n != count {
		c.logger.Warn("vector cache incomplete, ignoring", zap.Int("rows", n), zap.Int("count", count))
		c.inc("miss")
		return nil, false, nil
	}

	c.inc("hit")
	return out, true, nil
}

// Save stores vectors for (catalogHash, model) in one transaction, replacing any previous set.
func (c *Cache) Save(ctx context.Context, catalogHash, model string, vectors [][]float32) error {
	dims := 0
	if len(vectors) > 0 {
		dims = len(vectors[0])
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM vectors WHERE catalog_hash = ? AND model = ?`, catalogHash, model); err != nil {
		return fmt.Errorf("clear vectors: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO vectors (catalog_hash, model, position, vector) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, v := range vectors {
		if len(v) != dims {
			return fmt.Errorf("vector %d has %d dims, want %d", i, len(v), dims)
		}
		if _, err := stmt.ExecContext(ctx, catalogHash, model, i, vectorToBytes(v)); err != nil {
			return fmt.Errorf("insert vector %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO vector_sets (catalog_hash, model, dimensions, count, created_at) VALUES (?, ?, ?, ?, ?)`,
		catalogHash, model, dims, len(vectors), time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("write vector set: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Prune removes every set other than (catalogHash, model). Returns sets removed.
func (c *Cache) Prune(ctx context.Context, catalogHash, model string) (int, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM vector_sets WHERE NOT (catalog_hash = ? AND model = ?)`, catalogHash, model)
	if err != nil {
		return 0, fmt.Errorf("prune sets: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM vectors WHERE NOT (catalog_hash = ? AND model = ?)`, catalogHash, model); err != nil {
		return 0, fmt.Errorf("prune vectors: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (c *Cache) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector length %d", len(data))
	}
	v := make([]float32, len(data)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return v, nil
}
