package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/viant/vecstore/internal/errs"
	"github.com/viant/vecstore/vector"
)

func newGetCmd(a *app) *cobra.Command {
	var byReference bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a record, or all records of a reference with --reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errs.Wrapf(err, errs.CodeCLIInputInvalid, "invalid id %q", args[0])
			}
			ctx := cmd.Context()
			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if byReference {
				recs, err := store.FindByReference(ctx, id)
				if err != nil {
					return err
				}
				if recs == nil {
					recs = []vector.Record{}
				}
				return writeJSON(cmd.OutOrStdout(), recs)
			}
			rec, err := store.Get(ctx, id)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}
	cmd.Flags().BoolVar(&byReference, "reference", false, "treat the argument as a reference id")
	return cmd
}
