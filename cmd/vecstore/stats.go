package main

import (
	"github.com/spf13/cobra"
)

type statsOutput struct {
	Total         int64            `json:"total"`
	ByContentType map[string]int64 `json:"byContentType"`
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count records by content type",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			counts, err := store.CountByContentType(ctx)
			if err != nil {
				return err
			}
			out := statsOutput{ByContentType: counts}
			if out.ByContentType == nil {
				out.ByContentType = map[string]int64{}
			}
			for _, n := range counts {
				out.Total += n
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}
