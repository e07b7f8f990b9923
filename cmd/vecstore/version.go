package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Set by ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "vecstore %s (commit: %s, built: %s)\n", version, commit, date)
			return err
		},
	}
}
