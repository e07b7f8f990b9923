package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/viant/vecstore/internal/config"
	"github.com/viant/vecstore/internal/errs"
	"github.com/viant/vecstore/internal/logging"
)

// app carries per-invocation state so separate root commands never share a
// viper instance.
type app struct {
	v   *viper.Viper
	cfg *config.Config
	log *logrus.Entry
}

// flagKeys maps persistent flags onto config keys.
var flagKeys = map[string]string{
	"backend":    "storage.backend",
	"dsn":        "storage.dsn",
	"dimensions": "vector.dimensions",
	"index":      "index.kind",
	"log-level":  "log.level",
}

// NewRootCmd creates the root vecstore command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{v: config.New()}
	root := &cobra.Command{
		Use:           "vecstore",
		Short:         "vecstore - embedding record store with similarity search",
		Long:          "vecstore stores text embeddings in SQLite or PostgreSQL/pgvector and answers cosine similarity queries.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "path to config file")
	flags.String("backend", "", "storage backend: sqlite, postgres or memory")
	flags.String("dsn", "", "database path or connection string")
	flags.Int("dimensions", 0, "embedding dimensions")
	flags.String("index", "", "sqlite search index: exact, brute, ivf or cover")
	flags.String("log-level", "", "log level")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newInsertCmd(a),
		newSearchCmd(a),
		newGetCmd(a),
		newStatsCmd(a),
		newReindexCmd(a),
		newVerifyCmd(a),
		newVersionCmd(),
	)
	return root
}

// init resolves configuration with flag > env > file > defaults precedence
// and configures logging.
func (a *app) init(cmd *cobra.Command) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	if err := config.ReadFile(a.v, cfgFile); err != nil {
		return err
	}
	for name, key := range flagKeys {
		flag := cmd.Root().PersistentFlags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := a.v.BindPFlag(key, flag); err != nil {
			return errs.Wrapf(err, errs.CodeCLIInputInvalid, "binding %s flag", name)
		}
	}
	cfg, err := config.FromViper(a.v)
	if err != nil {
		return err
	}
	if err := logging.Init(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr()); err != nil {
		return errs.Wrap(err, errs.CodeCLIInputInvalid, "configure logging")
	}
	a.cfg = cfg
	a.log = logging.New("vecstore")
	return nil
}
