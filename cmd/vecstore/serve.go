package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/viant/vecstore/internal/server"
	"github.com/viant/vecstore/pgstore"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if migrate {
				pg, ok := store.(*pgstore.Store)
				if !ok {
					a.log.WithField("backend", a.cfg.Storage.Backend).Warn("--migrate ignored for non-postgres backend")
				} else if err := pgstore.Migrate(ctx, pg.DB(), a.cfg.Migrate.Timeout, a.log); err != nil {
					return err
				}
			}

			addr := a.cfg.Server.Listen
			if listen != "" {
				addr = listen
			}
			srv, err := server.New(server.Config{
				ListenAddr:     addr,
				CORSOrigins:    a.cfg.Server.CORSOrigins,
				MatchCount:     a.cfg.Search.MatchCount,
				MatchThreshold: a.cfg.Search.MatchThreshold,
			}, store, a.log)
			if err != nil {
				return err
			}
			return srv.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address, overrides server.listen")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply postgres migrations before serving")
	return cmd
}
