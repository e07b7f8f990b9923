package main

import (
	"github.com/spf13/cobra"

	"github.com/viant/vecstore/internal/errs"
	"github.com/viant/vecstore/vecadmin"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check stored sqlite embeddings for wrong sizes and unsearchable vectors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := a.openSQLite(ctx)
			if err != nil {
				return err
			}
			defer store.Close()
			report, err := vecadmin.Verify(ctx, store.DB(), store.Dimensions())
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !report.OK() {
				return errs.New(errs.CodeStoreInvalidInput, "verify: store contains unsearchable embeddings")
			}
			return nil
		},
	}
}
