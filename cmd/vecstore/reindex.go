package main

import (
	"github.com/spf13/cobra"

	"github.com/viant/vecstore/vecadmin"
)

func newReindexCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild and persist the configured sqlite search index",
		Long:  "Rebuilds the index selected by --index (brute, ivf or cover) and stores a snapshot that later opens load instead of rebuilding.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := a.openSQLite(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			result, err := vecadmin.Reindex(ctx, store.DB(), a.cfg.IndexOptions(), a.log)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
}
