package sdk

import "context"

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status      string            // "ok" or "degraded"
	Checks      map[string]string // component → "ok"/"error"/"missing"/"stale"
	BooksLoaded int
	Collection  string
	Indexed     int
}

// Health checks the health of all system components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status:      string(report.Status),
		Checks:      checks,
		BooksLoaded: report.BooksLoaded,
		Collection:  report.Collection,
		Indexed:     report.Indexed,
	}
}
