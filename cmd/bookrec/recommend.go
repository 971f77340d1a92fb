package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/bookrec/internal/domain/recommend/request"
)

type recommendationOut struct {
	Title      string  `json:"title"`
	Authors    string  `json:"authors"`
	Year       int     `json:"year"`
	Publisher  string  `json:"publisher"`
	Similarity float64 `json:"similarity"`
}

type recommendOut struct {
	SeedBook        string              `json:"seed_book"`
	Recommendations []recommendationOut `json:"recommendations"`
	Requested       int                 `json:"requested"`
	Underfilled     bool                `json:"underfilled"`
	FetchRounds     int                 `json:"fetch_rounds"`
}

func newRecommendCmd() *cobra.Command {
	var (
		topK           int
		skipSameAuthor bool
	)
	cmd := &cobra.Command{
		Use:   "recommend <title>",
		Short: "Print recommendations for a title as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := request.New(strings.Join(args, " "), topK, skipSameAuthor)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), envName)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.recommend.Recommend(cmd.Context(), req)
			if err != nil {
				return err
			}

			recs := res.Recommendations()
			out := recommendOut{
				SeedBook:        res.Seed(),
				Recommendations: make([]recommendationOut, len(recs)),
				Requested:       res.Requested(),
				Underfilled:     res.Underfilled(),
				FetchRounds:     res.FetchRounds(),
			}
			for i := range recs {
				out.Recommendations[i] = recommendationOut{
					Title:      recs[i].Title(),
					Authors:    recs[i].Authors(),
					Year:       recs[i].Year(),
					Publisher:  recs[i].Publisher(),
					Similarity: recs[i].Similarity(),
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", request.DefaultTopK, "number of recommendations")
	cmd.Flags().BoolVar(&skipSameAuthor, "skip-same-author", false, "exclude books by the seed's author")
	return cmd
}
