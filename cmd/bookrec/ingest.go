package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	var reindex bool
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Encode the catalog and populate the vector index",
		Long: `Encodes every catalog book and upserts it into the index collection.
An existing collection is left untouched unless --reindex is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), envName)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.runIngest(cmd.Context(), reindex)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.Skipped {
				fmt.Fprintf(out, "collection %q already exists, nothing to do\n", report.Collection)
				return nil
			}
			fmt.Fprintf(out, "ingested %d books into %q in %d batches (%s, cache hit: %v)\n",
				report.Upserted, report.Collection, report.Batches, report.Duration.Round(time.Millisecond), report.CacheHit)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reindex, "reindex", false, "drop and rebuild the collection")
	return cmd
}
