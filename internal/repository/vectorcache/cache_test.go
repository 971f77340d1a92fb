package vectorcache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func openTestCache(t *testing.T) (*Cache, *prometheus.CounterVec) {
	t.Helper()
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
	c, err := Open(context.Background(), filepath.Join(t.TempDir(), "sub", "vectors.db"), counter, zap.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, counter
}

func TestCache_MissThenHit(t *testing.T) {
	c, counter := openTestCache(t)
	ctx := context.Background()

	if _, ok, err := c.Load(ctx, "abc", "m", 2); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	vecs := [][]float32{{0.1, 0.2, 0.3}, {-1, 0, 1}}
	if err := c.Save(ctx, "abc", "m", vecs); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := c.Load(ctx, "abc", "m", 2)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	for i := range vecs {
		for j := range vecs[i] {
			if got[i][j] != vecs[i][j] {
				t.Errorf("vector[%d][%d] = %f, want %f", i, j, got[i][j], vecs[i][j])
			}
		}
	}

	if v := testutil.ToFloat64(counter.WithLabelValues("hit")); v != 1 {
		t.Errorf("expected 1 hit, got %f", v)
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("miss")); v != 1 {
		t.Errorf("expected 1 miss, got %f", v)
	}
}

func TestCache_KeyedByHashAndModel(t *testing.T) {
	c, _ := openTestCache(t)
	ctx := context.Background()
	if err := c.Save(ctx, "abc", "m1", [][]float32{{1}}); err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := c.Load(ctx, "abc", "m2", 1); ok {
		t.Error("different model must miss")
	}
	if _, ok, _ := c.Load(ctx, "def", "m1", 1); ok {
		t.Error("different catalog hash must miss")
	}
}

func TestCache_CountMismatchMisses(t *testing.T) {
	c, _ := openTestCache(t)
	ctx := context.Background()
	if err := c.Save(ctx, "abc", "m", [][]float32{{1}, {2}}); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := c.Load(ctx, "abc", "m", 3); ok || err != nil {
		t.Fatalf("expected miss on count mismatch, got ok=%v err=%v", ok, err)
	}
}

func TestCache_SaveIsIdempotent(t *testing.T) {
	c, _ := openTestCache(t)
	ctx := context.Background()
	if err := c.Save(ctx, "abc", "m", [][]float32{{1}, {2}, {3}}); err != nil {
		t.Fatal(err)
	}
	if err := c.Save(ctx, "abc", "m", [][]float32{{4}, {5}}); err != nil {
		t.Fatalf("re-save: %v", err)
	}
	got, ok, err := c.Load(ctx, "abc", "m", 2)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got[0][0] != 4 || got[1][0] != 5 {
		t.Errorf("unexpected vectors %v", got)
	}
}

func TestCache_SaveRejectsRaggedVectors(t *testing.T) {
	c, _ := openTestCache(t)
	if err := c.Save(context.Background(), "a", "m", [][]float32{{1, 2}, {3}}); err == nil {
		t.Fatal("expected error")
	}
}

func TestCache_Prune(t *testing.T) {
	c, _ := openTestCache(t)
	ctx := context.Background()
	_ = c.Save(ctx, "old", "m", [][]float32{{1}})
	_ = c.Save(ctx, "new", "m", [][]float32{{2}})

	n, err := c.Prune(ctx, "new", "m")
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 set pruned, got %d", n)
	}
	if _, ok, _ := c.Load(ctx, "new", "m", 1); !ok {
		t.Error("kept set must survive")
	}
}

func TestBytesToVector_Invalid(t *testing.T) {
	if _, err := bytesToVector([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error")
	}
}
