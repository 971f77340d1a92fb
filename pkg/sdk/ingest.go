package sdk

import (
	"context"
	"fmt"
	"time"

	ingestuc "github.com/kailas-cloud/bookrec/internal/usecase/ingest"
)

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Collection string
	Skipped    bool // collection already existed
	Upserted   int
	Batches    int
	Duration   time.Duration
}

// Ingest encodes the catalog and populates the index collection.
// It is a no-op when the collection already exists.
func (c *Client) Ingest(ctx context.Context) (_ IngestReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ingest", start, err) }()

	report, err := c.ingestSvc.Run(ctx)
	if err != nil {
		return IngestReport{}, fmt.Errorf("ingest: %w", err)
	}
	return toIngestReport(report), nil
}

// Reindex drops the collection and ingests the catalog again.
func (c *Client) Reindex(ctx context.Context) (_ IngestReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("reindex", start, err) }()

	report, err := c.ingestSvc.Reindex(ctx)
	if err != nil {
		return IngestReport{}, fmt.Errorf("reindex: %w", err)
	}
	return toIngestReport(report), nil
}

func toIngestReport(r ingestuc.Report) IngestReport {
	return IngestReport{
		Collection: r.Collection,
		Skipped:    r.Skipped,
		Upserted:   r.Upserted,
		Batches:    r.Batches,
		Duration:   r.Duration,
	}
}
