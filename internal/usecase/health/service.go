package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckMissing indicates the index collection has not been ingested.
	CheckMissing CheckResult = "missing"
	// CheckStale indicates the index was built from a different catalog or model.
	// Recommendations still work but may not reflect the loaded catalog.
	CheckStale CheckResult = "stale"
)

// Check names.
const (
	CheckDatabase  = "database"
	CheckEmbedding = "embedding"
	CheckIndex     = "index"
)

// Report aggregates health check results.
type Report struct {
	Status      Status
	Checks      map[string]CheckResult
	BooksLoaded int
	Collection  string
	Indexed     int
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
	index     IndexInspector
	catalog   CatalogInfo
	model     string
}

// New creates a Service. embedding can be nil.
func New(db DBPinger, embedding EmbeddingChecker, index IndexInspector, catalog CatalogInfo, model string) *Service {
	return &Service{db: db, embedding: embedding, index: index, catalog: catalog, model: model}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	report := Report{
		BooksLoaded: s.catalog.Len(),
		Collection:  s.index.Collection(),
	}

	if err := s.db.Ping(ctx); err != nil {
		checks[CheckDatabase] = CheckError
	} else {
		checks[CheckDatabase] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks[CheckEmbedding] = CheckError
		} else {
			checks[CheckEmbedding] = CheckOK
		}
	}

	if checks[CheckDatabase] == CheckOK {
		checks[CheckIndex], report.Indexed = s.checkIndex(ctx)
	} else {
		checks[CheckIndex] = CheckError
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError || v == CheckMissing {
			status = Degraded
			break
		}
	}
	if report.BooksLoaded == 0 {
		status = Degraded
	}

	report.Status = status
	report.Checks = checks
	return report
}

func (s *Service) checkIndex(ctx context.Context) (CheckResult, int) {
	exists, err := s.index.Exists(ctx)
	if err != nil {
		return CheckError, 0
	}
	if !exists {
		return CheckMissing, 0
	}

	count, err := s.index.Count(ctx)
	if err != nil {
		return CheckError, 0
	}

	manifest, ok, err := s.index.LoadManifest(ctx)
	if err != nil {
		return CheckError, count
	}
	if ok && !manifest.Matches(s.catalog.Fingerprint(), s.model) {
		return CheckStale, count
	}
	return CheckOK, count
}
