package health

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/bookrec/internal/domain/book"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err error
}

func (m *mockEmbeddingChecker) HealthCheck(_ context.Context) error { return m.err }

type mockIndex struct {
	exists      bool
	existsErr   error
	count       int
	countErr    error
	manifest    book.Manifest
	hasManifest bool
	manifestErr error
}

func (m *mockIndex) Collection() string { return "books" }

func (m *mockIndex) Exists(context.Context) (bool, error) { return m.exists, m.existsErr }

func (m *mockIndex) Count(context.Context) (int, error) { return m.count, m.countErr }

func (m *mockIndex) LoadManifest(context.Context) (book.Manifest, bool, error) {
	return m.manifest, m.hasManifest, m.manifestErr
}

type mockCatalog struct {
	n           int
	fingerprint string
}

func (m *mockCatalog) Len() int            { return m.n }
func (m *mockCatalog) Fingerprint() string { return m.fingerprint }

func healthyIndex() *mockIndex {
	return &mockIndex{
		exists:      true,
		count:       10,
		manifest:    book.Manifest{Fingerprint: "fp", Model: "m", Count: 10},
		hasManifest: true,
	}
}

func newTestService(db DBPinger, emb EmbeddingChecker, idx IndexInspector) *Service {
	return New(db, emb, idx, &mockCatalog{n: 10, fingerprint: "fp"}, "m")
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := newTestService(&mockDBPinger{}, &mockEmbeddingChecker{}, healthyIndex())
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	for _, name := range []string{CheckDatabase, CheckEmbedding, CheckIndex} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
	if r.BooksLoaded != 10 || r.Indexed != 10 || r.Collection != "books" {
		t.Errorf("unexpected report %+v", r)
	}
}

func TestCheck_DBError(t *testing.T) {
	svc := newTestService(&mockDBPinger{err: errors.New("conn refused")}, &mockEmbeddingChecker{}, healthyIndex())
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[CheckDatabase] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks[CheckDatabase])
	}
	if r.Checks[CheckIndex] != CheckError {
		t.Errorf("index cannot be inspected without the database, got %q", r.Checks[CheckIndex])
	}
	if r.Checks[CheckEmbedding] != CheckOK {
		t.Errorf("expected embedding %q, got %q", CheckOK, r.Checks[CheckEmbedding])
	}
}

func TestCheck_EmbeddingError(t *testing.T) {
	svc := newTestService(&mockDBPinger{}, &mockEmbeddingChecker{err: errors.New("timeout")}, healthyIndex())
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[CheckEmbedding] != CheckError {
		t.Errorf("expected embedding %q, got %q", CheckError, r.Checks[CheckEmbedding])
	}
}

func TestCheck_NilEmbedding(t *testing.T) {
	svc := newTestService(&mockDBPinger{}, nil, healthyIndex())
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks[CheckEmbedding]; ok {
		t.Error("embedding check should be absent when nil")
	}
}

func TestCheck_IndexMissing(t *testing.T) {
	svc := newTestService(&mockDBPinger{}, &mockEmbeddingChecker{}, &mockIndex{})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[CheckIndex] != CheckMissing {
		t.Errorf("expected index %q, got %q", CheckMissing, r.Checks[CheckIndex])
	}
}

func TestCheck_IndexStaleStaysHealthy(t *testing.T) {
	idx := healthyIndex()
	idx.manifest.Fingerprint = "old"
	svc := newTestService(&mockDBPinger{}, &mockEmbeddingChecker{}, idx)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks[CheckIndex] != CheckStale {
		t.Errorf("expected index %q, got %q", CheckStale, r.Checks[CheckIndex])
	}
}

func TestCheck_IndexWithoutManifest(t *testing.T) {
	idx := healthyIndex()
	idx.hasManifest = false
	svc := newTestService(&mockDBPinger{}, &mockEmbeddingChecker{}, idx)

	if r := svc.Check(context.Background()); r.Checks[CheckIndex] != CheckOK {
		t.Errorf("expected index %q, got %q", CheckOK, r.Checks[CheckIndex])
	}
}

func TestCheck_IndexErrors(t *testing.T) {
	cases := map[string]*mockIndex{
		"exists":   {existsErr: errors.New("boom")},
		"count":    {exists: true, countErr: errors.New("boom")},
		"manifest": {exists: true, manifestErr: errors.New("boom")},
	}
	for name, idx := range cases {
		t.Run(name, func(t *testing.T) {
			svc := newTestService(&mockDBPinger{}, &mockEmbeddingChecker{}, idx)
			r := svc.Check(context.Background())
			if r.Checks[CheckIndex] != CheckError || r.Status != Degraded {
				t.Errorf("expected index error and degraded, got %q/%q", r.Checks[CheckIndex], r.Status)
			}
		})
	}
}

func TestCheck_EmptyCatalogDegraded(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockEmbeddingChecker{}, healthyIndex(), &mockCatalog{fingerprint: "fp"}, "m")
	r := svc.Check(context.Background())
	if r.Status != Degraded {
		t.Errorf("expected %q with no books, got %q", Degraded, r.Status)
	}
}
