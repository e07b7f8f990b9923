package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/viant/vecstore/internal/config"
	"github.com/viant/vecstore/pgstore"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the storage schema",
		Long: "For postgres, applies the embedded migrations (pgvector extension, table, indexes and match_documents).\n" +
			"For sqlite, creates the tables and pins the embedding dimension.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			switch a.cfg.Storage.Backend {
			case config.BackendPostgres:
				db, err := pgstore.Open(ctx, a.cfg.Storage.DSN)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := pgstore.Migrate(ctx, db, a.cfg.Migrate.Timeout, a.log); err != nil {
					return err
				}
			default:
				store, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				if err := store.Close(); err != nil {
					return err
				}
			}
			_, err := fmt.Fprintf(out, "schema ready (%s)\n", a.cfg.Storage.Backend)
			return err
		},
	}
}
