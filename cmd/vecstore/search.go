package main

import (
	"github.com/spf13/cobra"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		embedding   string
		count       int
		threshold   float64
		contentType string
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find records similar to an embedding",
		RunE: func(cmd *cobra.Command, _ []string) error {
			vec, err := parseEmbedding(embedding, cmd.InOrStdin())
			if err != nil {
				return err
			}
			params := a.cfg.SearchParams(vec)
			if cmd.Flags().Changed("count") {
				params.MatchCount = count
			}
			if cmd.Flags().Changed("threshold") {
				params.MatchThreshold = threshold
			}
			params.ContentType = contentType

			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			matches, err := store.SimilaritySearch(ctx, params)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), matches)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&embedding, "embedding", "", "query embedding: JSON array, @file or - for stdin")
	flags.IntVar(&count, "count", 0, "maximum matches, overrides search.match_count")
	flags.Float64Var(&threshold, "threshold", 0, "minimum similarity (exclusive), overrides search.match_threshold")
	flags.StringVar(&contentType, "content-type", "", "only match this content type")
	_ = cmd.MarkFlagRequired("embedding")
	return cmd
}
